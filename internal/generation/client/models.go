// internal/generation/client/models.go
package client

import (
	"contentgen-engine/internal/common/errors"
)

// submitResponse is the duck-typed body of POST /generate. The backend has
// shipped three different async id shapes; all are modeled here and resolved
// by extractJobID in priority order.
type submitResponse struct {
	Success      bool                   `json:"success"`
	Content      string                 `json:"content,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	GenerationID string                 `json:"generation_id,omitempty"`
	Data         *submitData            `json:"data,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
}

type submitData struct {
	RequestID string `json:"request_id,omitempty"`
}

// statusResponse is the body of GET /generate/status/{request_id}.
type statusResponse struct {
	Data statusData `json:"data"`
}

type statusData struct {
	Status       string                 `json:"status"`
	Progress     *float64               `json:"progress,omitempty"`
	CurrentAgent string                 `json:"current_agent,omitempty"`
	Content      string                 `json:"content,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Snapshot is the caller-facing view of the machine at one instant. Errors
// are read from Err, never thrown past the machine's boundary.
type Snapshot struct {
	State       State                  `json:"state"`
	JobID       string                 `json:"jobId,omitempty"`
	Progress    float64                `json:"progress"`
	CurrentStep string                 `json:"currentStep,omitempty"`
	Content     string                 `json:"content,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Err         *errors.StandardError  `json:"error,omitempty"`
}
