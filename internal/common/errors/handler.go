// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler writes standardized error responses for HTTP handlers.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorResponse is the wire shape for every failed request. Exactly one
// user-facing message per failure.
type errorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
	CurrentStage int `json:"currentStage,omitempty"`
}

// WriteError normalizes err to a StandardError and writes it as JSON with the
// mapped status code. STAGE_LOCKED responses carry the project's currentStage
// so a client can navigate to the unlocked stage.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)

	status := HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"code":    string(stdErr.Code),
			"message": stdErr.Message,
			"details": stdErr.Details,
			"path":    r.URL.Path,
		})
	} else {
		h.logger.Warn("request rejected", map[string]interface{}{
			"code": string(stdErr.Code),
			"path": r.URL.Path,
		})
	}

	resp := errorResponse{}
	resp.Error.Code = stdErr.Code
	resp.Error.Message = stdErr.Message
	if cs, ok := stdErr.Metadata["currentStage"].(int); ok {
		resp.CurrentStage = cs
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
