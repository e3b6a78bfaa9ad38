package handlers

import (
	"net/http"

	"cwbridge/internal/app/setup"
	"cwbridge/platform/config"
	"cwbridge/platform/logger"
)

type AdminHandler struct {
	logger  *logger.Logger
	useCase setup.UseCase
	cfg     *config.Config
}

func NewAdminHandler(log *logger.Logger, useCase setup.UseCase, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		logger:  log,
		useCase: useCase,
		cfg:     cfg,
	}
}

// @Summary Get bridge settings
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} setup.SettingsResponse
// @Router /admin/settings [get]
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.useCase.GetSettings(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// @Summary Update bridge settings
// @Tags Admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body setup.UpdateSettingsRequest true "Settings update"
// @Success 200 {object} setup.SettingsResponse
// @Router /admin/settings [put]
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req setup.UpdateSettingsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.useCase.UpdateSettings(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// @Summary List chat-service inboxes
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Param refresh query boolean false "Bypass the cached inbox list"
// @Success 200 {array} setup.InboxResponse
// @Router /admin/inboxes [get]
func (h *AdminHandler) ListInboxes(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	resp, err := h.useCase.ListInboxes(r.Context(), refresh)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// @Summary Map inboxes to CRM sources
// @Tags Admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body setup.UpdateInboxSourcesRequest true "Inbox source mapping"
// @Success 200 {object} object
// @Router /admin/inboxes/sources [put]
func (h *AdminHandler) UpdateInboxSources(w http.ResponseWriter, r *http.Request) {
	var req setup.UpdateInboxSourcesRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.useCase.UpdateInboxSources(r.Context(), &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"success": true})
}

// @Summary Provision the chat-service integration
// @Description Installs the sync label, macro, webhook and correlation attribute definitions.
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} setup.SetupResponse
// @Router /admin/setup [post]
func (h *AdminHandler) RunSetup(w http.ResponseWriter, r *http.Request) {
	webhookURL := h.cfg.WebhookURL()

	resp, err := h.useCase.RunSetup(r.Context(), webhookURL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
