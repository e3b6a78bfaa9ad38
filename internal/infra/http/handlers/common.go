package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"cwbridge/pkg/errors"
	"cwbridge/platform/logger"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response: " + err.Error())
	}
}

// writeError maps an error onto its HTTP status. Unrecognized errors
// are reported as 500 without leaking the message.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		log.Error("Unhandled error: " + err.Error())
		appErr = errors.ErrInternalServerError
	}
	writeJSON(w, log, appErr.Code, map[string]interface{}{
		"success": false,
		"error":   appErr.Message,
		"details": appErr.Details,
	})
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewWithDetails(errors.ErrBadRequest.Code, "Invalid request body", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return errors.NewWithDetails(errors.ErrBadRequest.Code, "Validation failed", err.Error())
	}
	return nil
}
