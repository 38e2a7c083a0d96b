// internal/generation/progress/presenter.go
package progress

import "strings"

// Step labels shown while a generation job is in flight.
const (
	LabelResearching = "Researching…"
	LabelPlanning    = "Planning…"
	LabelWriting     = "Writing…"
	LabelEditing     = "Editing…"
	LabelFormatting  = "Formatting…"
	LabelComplete    = "Complete"
)

// stepLabels maps known backend agent/step identifiers to display labels.
var stepLabels = map[string]string{
	"research":   LabelResearching,
	"researcher": LabelResearching,
	"planning":   LabelPlanning,
	"planner":    LabelPlanning,
	"outline":    LabelPlanning,
	"writing":    LabelWriting,
	"writer":     LabelWriting,
	"drafting":   LabelWriting,
	"editing":    LabelEditing,
	"editor":     LabelEditing,
	"review":     LabelEditing,
	"formatting": LabelFormatting,
	"formatter":  LabelFormatting,
	"complete":   LabelComplete,
	"completed":  LabelComplete,
}

// Present maps a raw agent/step identifier and a progress fraction to a
// human-readable step label. Unknown identifiers fall back to numeric banding;
// it never fails.
func Present(rawStep string, fraction float64) string {
	if label, ok := stepLabels[strings.ToLower(strings.TrimSpace(rawStep))]; ok {
		return label
	}

	switch {
	case fraction < 0.20:
		return LabelResearching
	case fraction < 0.50:
		return LabelPlanning
	case fraction < 0.80:
		return LabelWriting
	case fraction < 0.95:
		return LabelEditing
	case fraction < 1.0:
		return LabelFormatting
	default:
		return LabelComplete
	}
}

// Normalize converts a backend progress value to the canonical 0-1 fraction.
// Values above 1 are treated as percentages; the result is clamped to [0,1].
func Normalize(progress float64) float64 {
	if progress > 1 {
		progress = progress / 100
	}
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
