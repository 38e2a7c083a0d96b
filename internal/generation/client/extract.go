// internal/generation/client/extract.go
package client

import "strings"

// extractJobID resolves the job identifier from a submit response using the
// ordered fallback chain request_id -> generation_id -> data.request_id.
// Returns "" when no recognizable identifier is present.
func extractJobID(resp *submitResponse) string {
	if id := strings.TrimSpace(resp.RequestID); id != "" {
		return id
	}
	if id := strings.TrimSpace(resp.GenerationID); id != "" {
		return id
	}
	if resp.Data != nil {
		if id := strings.TrimSpace(resp.Data.RequestID); id != "" {
			return id
		}
	}
	return ""
}

// failureMessages collects the backend's reported error strings, most
// specific list first, falling back to the single error field.
func failureMessages(errStr string, errList []string) []string {
	if len(errList) > 0 {
		return errList
	}
	if errStr != "" {
		return []string{errStr}
	}
	return []string{"generation failed without a reported reason"}
}
