// Package errors provides standardized error handling for the strategy pipeline.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeProjectNotFound    ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeStageLocked        ErrorCode = "STAGE_LOCKED"
	ErrCodeStageNotAdvancable ErrorCode = "STAGE_NOT_ADVANCABLE"

	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"

	ErrCodeAnalysisFailed  ErrorCode = "ANALYSIS_FAILED"
	ErrCodeAnalysisTimeout ErrorCode = "ANALYSIS_TIMEOUT"

	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Error Constructors

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectNotFoundError creates a non-retryable not-found error.
func NewProjectNotFoundError(projectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectNotFound,
		Message:   "Project not found",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageLockedError creates a non-retryable error for navigation past the
// unlocked stage.
func NewStageLockedError(requested, current int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageLocked,
		Message:   "Stage is not unlocked yet",
		Details:   fmt.Sprintf("requestedStage: %d, currentStage: %d", requested, current),
		Retryable: false,
		Metadata:  map[string]interface{}{"currentStage": current},
		Timestamp: time.Now().UTC(),
	}
}

// NewStageNotAdvancableError creates a non-retryable error for a stage without
// an outgoing transition.
func NewStageNotAdvancableError(stage int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageNotAdvancable,
		Message:   "Stage has no transition to run",
		Details:   fmt.Sprintf("stage: %d", stage),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable authentication error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCredentialsError creates a non-retryable sign-in error.
func NewInvalidCredentialsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCredentials,
		Message:   "Invalid email or password",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailTakenError creates a non-retryable sign-up conflict error.
func NewEmailTakenError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailTaken,
		Message:   "An account with this email already exists",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFailedError creates a retryable remote analysis error. The
// transition that triggered the call is aborted; the user may retry it.
func NewAnalysisFailedError(function string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   fmt.Sprintf("Analysis function '%s' failed", function),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisTimeoutError creates a retryable remote analysis timeout error.
func NewAnalysisTimeoutError(function string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisTimeout,
		Message:   fmt.Sprintf("Analysis function '%s' timed out", function),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreFailureError creates a retryable document store error.
func NewStoreFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailure,
		Message:   "Document store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps internal error codes to HTTP response codes.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeProjectNotFound:
		return http.StatusNotFound
	case ErrCodeStageLocked, ErrCodeStageNotAdvancable:
		return http.StatusConflict
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeEmailTaken:
		return http.StatusConflict
	case ErrCodeAnalysisFailed, ErrCodeAnalysisTimeout:
		return http.StatusBadGateway
	case ErrCodeStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether an error carries a retryable code.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}
