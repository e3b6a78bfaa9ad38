package handlers

import (
	"io"
	"net/http"

	appsync "cwbridge/internal/app/sync"
	"cwbridge/platform/logger"
)

// Webhook payloads are at most a conversation with its message history;
// anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 20

type SyncHandler struct {
	logger  *logger.Logger
	useCase appsync.UseCase
}

func NewSyncHandler(log *logger.Logger, useCase appsync.UseCase) *SyncHandler {
	return &SyncHandler{
		logger:  log,
		useCase: useCase,
	}
}

// @Summary Receive a chat-service webhook
// @Description Accepts webhook deliveries and macro sub-action posts. Always responds 200 so the chat service never disables the webhook; deliveries without an event name get an empty body.
// @Tags Sync
// @Accept json
// @Produce json
// @Param trigger query boolean false "Set by the sync macro's webhook sub-action"
// @Success 200 {object} sync.WebhookResponse
// @Router /sync [post]
func (h *SyncHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithError(err).Warn("failed to read webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	trigger := r.URL.Query().Get("trigger") == "true"
	resp := h.useCase.ProcessWebhook(r.Context(), payload, trigger)
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// @Summary Resync a conversation record
// @Description Rebuilds the comment mirror of a CRM conversation record from the live transcript.
// @Tags Sync
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body sync.ResyncRequest true "Resync request"
// @Success 200 {object} sync.ResyncResponse
// @Failure 400 {object} object "Invalid request"
// @Failure 404 {object} object "Record not found"
// @Router /resync [post]
func (h *SyncHandler) Resync(w http.ResponseWriter, r *http.Request) {
	var req appsync.ResyncRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.useCase.Resync(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
