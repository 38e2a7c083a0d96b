// internal/engine/recommendation/models.go
package recommendation

import (
	"contentgen-engine/internal/engine/compatibility"
	pkgcatalog "contentgen-engine/pkg/catalog"
)

// FilterLevel controls how wide the candidate net is cast.
type FilterLevel string

const (
	FilterRecommended FilterLevel = "recommended"
	FilterCompatible  FilterLevel = "compatible"
	FilterAll         FilterLevel = "all"
)

// Recommendation is one ranked style profile for a template.
type Recommendation struct {
	Style pkgcatalog.StyleProfile   `json:"style"`
	Score int                       `json:"score"`
	Band  compatibility.QualityBand `json:"band"`
}
