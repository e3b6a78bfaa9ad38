package handlers

import (
	"net/http"

	"cwbridge/platform/database"
	"cwbridge/platform/logger"
)

type HealthHandler struct {
	logger *logger.Logger
	db     *database.Database
}

func NewHealthHandler(log *logger.Logger, db *database.Database) *HealthHandler {
	return &HealthHandler{
		logger: log,
		db:     db,
	}
}

// @Summary Health check
// @Description Check if the bridge and its database are healthy
// @Tags Health
// @Produce json
// @Success 200 {object} object "Bridge is healthy"
// @Failure 503 {object} object "Database unavailable"
// @Router /health [get]
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"service": "cwbridge",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "cwbridge",
	})
}
