package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an HTTP-status-coded error surfaced to admin-facing callers.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewWithDetails(code int, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	ErrBadRequest          = New(http.StatusBadRequest, "Bad request")
	ErrUnauthorized        = New(http.StatusUnauthorized, "Unauthorized")
	ErrNotFound            = New(http.StatusNotFound, "Not found")
	ErrInternalServerError = New(http.StatusInternalServerError, "Internal server error")

	// Chat-service client failure taxonomy. Transport covers network and
	// timeout failures, RemoteRejected any non-2xx that is not an
	// idempotent duplicate, Decode malformed response bodies.
	ErrChatwootTransport     = New(http.StatusBadGateway, "Chatwoot request failed")
	ErrChatwootRejected      = New(http.StatusBadGateway, "Chatwoot rejected the request")
	ErrChatwootDecode        = New(http.StatusBadGateway, "Failed to decode Chatwoot response")
	ErrChatwootNotConfigured = New(http.StatusServiceUnavailable, "Chatwoot URL or API key is not set")

	ErrCRMTransport = New(http.StatusBadGateway, "CRM request failed")
	ErrCRMRejected  = New(http.StatusBadGateway, "CRM rejected the request")
	ErrCRMNotFound  = New(http.StatusNotFound, "CRM record not found")

	ErrAIUnavailable     = New(http.StatusServiceUnavailable, "AI enrichment is not available")
	ErrAIInvalidResponse = New(http.StatusBadGateway, "AI enrichment returned an invalid response")
)

func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}
