// internal/generation/builder/models.go
package builder

// GenerationRequest is the canonical, immutable job-submission payload. It is
// created once per user submission and never mutated during polling. The JSON
// tags match the POST /generate wire shape; the correlation id is local only.
type GenerationRequest struct {
	CorrelationID  string                 `json:"-"`
	TemplateID     string                 `json:"template"`
	StyleID        string                 `json:"style_profile"`
	Parameters     map[string]interface{} `json:"dynamic_parameters,omitempty"`
	Priority       int                    `json:"priority,omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
	GenerationMode string                 `json:"generation_mode,omitempty"`
}
