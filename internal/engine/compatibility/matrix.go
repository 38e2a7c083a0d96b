// internal/engine/compatibility/matrix.go
package compatibility

import (
	pkgcatalog "contentgen-engine/pkg/catalog"
)

// FallbackScore is returned for any (template, style) pair the matrix has no
// entry for. Missing data is treated as plausibly average fit, never an error,
// so an incomplete matrix cannot hard-fail a selection flow.
const FallbackScore = 75

// TierSets holds per-template tier membership used to pre-filter candidates.
type TierSets struct {
	Recommended  []string
	Compatible   []string
	Incompatible []string
}

// Matrix is an immutable score table injected at construction. All reads are
// pure and safe for concurrent use without locking.
type Matrix struct {
	scores map[string]map[string]int
	tiers  map[string]TierSets
}

// NewMatrix builds a Matrix from catalog compatibility entries.
func NewMatrix(entries []pkgcatalog.Compatibility) *Matrix {
	m := &Matrix{
		scores: make(map[string]map[string]int, len(entries)),
		tiers:  make(map[string]TierSets, len(entries)),
	}
	for _, e := range entries {
		row := make(map[string]int, len(e.Scores))
		for styleID, score := range e.Scores {
			row[styleID] = score
		}
		m.scores[e.TemplateID] = row
		m.tiers[e.TemplateID] = TierSets{
			Recommended:  append([]string(nil), e.Recommended...),
			Compatible:   append([]string(nil), e.Compatible...),
			Incompatible: append([]string(nil), e.Incompatible...),
		}
	}
	return m
}

// Lookup returns the compatibility score for the pair, or FallbackScore when
// either the template or the pair is unknown.
func (m *Matrix) Lookup(templateID, styleID string) int {
	row, ok := m.scores[templateID]
	if !ok {
		return FallbackScore
	}
	score, ok := row[styleID]
	if !ok {
		return FallbackScore
	}
	return score
}

// Tiers returns tier membership for the template. Unknown templates yield
// empty sets, leaving every style scorable only under the "all" filter.
func (m *Matrix) Tiers(templateID string) TierSets {
	return m.tiers[templateID]
}
