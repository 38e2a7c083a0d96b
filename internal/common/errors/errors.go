// Package errors provides standardized error handling for the generation engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Request validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingField     ErrorCode = "MISSING_FIELD"

	// Generation job lifecycle
	ErrCodeTransportError      ErrorCode = "TRANSPORT_ERROR"
	ErrCodeNoJobID             ErrorCode = "NO_JOB_ID"
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout   ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeGenerationCancelled ErrorCode = "GENERATION_CANCELLED"

	// Catalog
	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeTemplateNotFound  ErrorCode = "TEMPLATE_NOT_FOUND"
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

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Generation request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFieldError creates a non-retryable error for a required field that
// resolved to empty after merging and trimming.
func NewMissingFieldError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingField,
		Message:   "Required field missing from generation request",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable transport error for a failed submit or poll.
func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   "Generation API transport error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoJobIDError creates a non-retryable error for a success response that
// carries neither inline content nor any recognizable job identifier. The
// response shape itself is wrong, so retrying cannot help.
func NewNoJobIDError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoJobID,
		Message:   "Submission response contained no job identifier",
		Details:   "checked request_id, generation_id and data.request_id",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a non-retryable error carrying the backend's
// reported failure message(s) verbatim.
func NewGenerationFailedError(messages ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Generation job failed",
		Details:   strings.Join(messages, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates an error for an exceeded local poll budget.
// Distinct from GENERATION_FAILED: the job may still be running server-side.
func NewGenerationTimeoutError(budget time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Generation job exceeded the local wait budget",
		Details:   fmt.Sprintf("budget: %s", budget),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationCancelledError creates the terminal marker for a user cancel.
// Not an error condition for alerting purposes.
func NewGenerationCancelledError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationCancelled,
		Message:   "Generation cancelled by caller",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a retryable catalog source error.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Catalog load failed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template lookup error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in catalog",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended automatic retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransportError:
		return 2 // submit-time transport errors only; polls are never retried

	case ErrCodeCatalogLoadFailed:
		return 3

	default:
		return 0 // validation, wrong-shape and terminal job errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "TEMPLATE"):
		return "CATALOG"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "JOB"):
		return "GENERATION"
	case strings.Contains(codeStr, "TRANSPORT"):
		return "TRANSPORT"
	default:
		return "OTHER"
	}
}

// CodeOf extracts the ErrorCode from err when it is a *StandardError.
// Returns an empty code otherwise.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}
