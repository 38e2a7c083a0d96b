// internal/engine/compatibility/bands.go
package compatibility

// Band is the categorical quality label derived from a numeric score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandPoor      Band = "poor"
)

// Band thresholds. Scores at or above ExcellentThreshold are excellent, at or
// above GoodThreshold are good, everything below is poor.
const (
	ExcellentThreshold = 85
	GoodThreshold      = 70
)

// QualityBand carries the band plus display metadata.
type QualityBand struct {
	Band      Band   `json:"band"`
	Label     string `json:"label"`
	ColorHint string `json:"colorHint"`
}

// Classify maps a score to its quality band. Total over all ints: out-of-range
// scores are clamped to [0,100], since upstream values are trusted but bounded.
func Classify(score int) QualityBand {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	switch {
	case score >= ExcellentThreshold:
		return QualityBand{Band: BandExcellent, Label: "Excellent match", ColorHint: "green"}
	case score >= GoodThreshold:
		return QualityBand{Band: BandGood, Label: "Good match", ColorHint: "yellow"}
	default:
		return QualityBand{Band: BandPoor, Label: "Poor match", ColorHint: "red"}
	}
}
