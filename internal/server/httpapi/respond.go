package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mvolkov/notekeeper/internal/errs"
)

// Error codes the UI uses to target specific form fields.
const (
	codeValidation      = "VALIDATION_ERROR"
	codeEmail           = "EMAIL_ERROR"
	codeCurrentPassword = "CURRENT_PASSWORD_ERROR"
	codeNewPassword     = "NEW_PASSWORD_ERROR"
	codeServer          = "SERVER_ERROR"
)

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"errorCode,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    any               `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg, Code: code})
}

// writeError maps service errors onto HTTP status classes and error codes.
// Internal detail never crosses the boundary; unknown errors are logged and
// reported as a generic server error.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if ve, ok := errs.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: "Validation Error",
			Code:    codeValidation,
			Errors:  ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, errs.ErrInvalidParent), errors.Is(err, errs.ErrInvalidFolder):
		writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, errs.ErrEmailTaken):
		writeErrorCode(w, http.StatusBadRequest, codeEmail, "Email already registered")
	case errors.Is(err, errs.ErrCurrentPassword):
		writeErrorCode(w, http.StatusBadRequest, codeCurrentPassword, "Current password is incorrect")
	case errors.Is(err, errs.ErrWeakPassword):
		writeErrorCode(w, http.StatusBadRequest, codeNewPassword, "New password does not meet requirements")
	case errors.Is(err, errs.ErrConflict):
		writeErrorCode(w, http.StatusBadRequest, "", "A folder with this name already exists")
	case errors.Is(err, errs.ErrInvalidCredentials):
		writeErrorCode(w, http.StatusUnauthorized, "", "Invalid email or password")
	case errors.Is(err, errs.ErrUnauthenticated):
		writeErrorCode(w, http.StatusUnauthorized, "", "Not authenticated")
	case errors.Is(err, errs.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "", "Not found")
	case errors.Is(err, errs.ErrRateLimited):
		writeErrorCode(w, http.StatusTooManyRequests, "", "Too many attempts, try again later")
	default:
		log.Error("request failed", zap.Error(err))
		writeErrorCode(w, http.StatusInternalServerError, codeServer, "Internal server error")
	}
}
