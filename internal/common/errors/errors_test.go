package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeTransportError, 2},
		{ErrCodeCatalogLoadFailed, 3},
		{ErrCodeValidationFailed, 0},
		{ErrCodeMissingField, 0},
		{ErrCodeNoJobID, 0},
		{ErrCodeGenerationFailed, 0},
		{ErrCodeGenerationTimeout, 0},
		{ErrCodeGenerationCancelled, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetRetryCount(tt.code))
			assert.Equal(t, tt.expected > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeMissingField))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeTemplateNotFound))
	assert.Equal(t, "GENERATION", GetErrorCategory(ErrCodeGenerationTimeout))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeTransportError))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrorCode("SOMETHING_ELSE")))
}

func TestConstructors(t *testing.T) {
	t.Run("transport error is retryable", func(t *testing.T) {
		err := NewTransportError("submit", fmt.Errorf("connection refused"))
		assert.Equal(t, ErrCodeTransportError, err.Code)
		assert.True(t, err.Retryable)
		assert.Contains(t, err.Details, "submit")
		assert.Contains(t, err.Details, "connection refused")
	})

	t.Run("failure messages joined", func(t *testing.T) {
		err := NewGenerationFailedError("model overloaded", "quota exceeded")
		assert.Equal(t, "model overloaded; quota exceeded", err.Details)
		assert.False(t, err.Retryable)
	})

	t.Run("timeout carries budget", func(t *testing.T) {
		err := NewGenerationTimeoutError(5 * time.Minute)
		assert.Equal(t, ErrCodeGenerationTimeout, err.Code)
		assert.Contains(t, err.Details, "5m")
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNoJobID, CodeOf(NewNoJobIDError()))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain error")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
