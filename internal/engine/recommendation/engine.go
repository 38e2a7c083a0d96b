// internal/engine/recommendation/engine.go
package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"contentgen-engine/internal/common/logger"
	"contentgen-engine/internal/common/metrics"
	"contentgen-engine/internal/engine/compatibility"
	pkgcatalog "contentgen-engine/pkg/catalog"

	"github.com/redis/go-redis/v9"
)

// Engine ranks style profiles against a template using the compatibility
// matrix. The matrix is injected at construction, never a hidden global.
type Engine struct {
	config *Config
	matrix *compatibility.Matrix
	redis  *redis.Client
	logger logger.Logger
}

// NewEngine creates a recommendation engine. redis may be nil, which disables
// result caching without changing any output.
func NewEngine(config *Config, matrix *compatibility.Matrix, rdb *redis.Client, log logger.Logger) *Engine {
	return &Engine{
		config: config,
		matrix: matrix,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "recommendation"}),
	}
}

// Recommend returns style profiles ranked for the template, best first. Ties
// keep catalog order, so repeated calls with unchanged inputs yield identical
// output. An empty result is a valid state, not an error; callers widen the
// filter level to recover.
func (e *Engine) Recommend(ctx context.Context, templateID string, level FilterLevel, cat *pkgcatalog.Catalog) []Recommendation {
	if cached, ok := e.cacheGet(ctx, templateID, level, cat.Version); ok {
		metrics.RecommendationsServed.WithLabelValues(string(level)).Inc()
		return cached
	}

	candidates := e.resolveCandidates(templateID, level, cat)

	ranked := make([]Recommendation, 0, len(candidates))
	for _, style := range candidates {
		score := e.matrix.Lookup(templateID, style.ID)
		ranked = append(ranked, Recommendation{
			Style: style,
			Score: score,
			Band:  compatibility.Classify(score),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	e.logger.Debug("recommendations ranked", map[string]interface{}{
		"templateId":  templateID,
		"filterLevel": string(level),
		"candidates":  len(ranked),
	})

	e.cacheSet(ctx, templateID, level, cat.Version, ranked)
	metrics.RecommendationsServed.WithLabelValues(string(level)).Inc()

	return ranked
}

// resolveCandidates selects candidate styles in catalog order. Membership sets
// are deduplicated, so a style listed in two tiers appears once.
func (e *Engine) resolveCandidates(templateID string, level FilterLevel, cat *pkgcatalog.Catalog) []pkgcatalog.StyleProfile {
	if level == FilterAll {
		return cat.StyleProfiles
	}

	tiers := e.matrix.Tiers(templateID)
	member := map[string]bool{}
	for _, id := range tiers.Recommended {
		member[id] = true
	}
	if level == FilterCompatible {
		for _, id := range tiers.Compatible {
			member[id] = true
		}
	}

	var candidates []pkgcatalog.StyleProfile
	for _, style := range cat.StyleProfiles {
		if member[style.ID] {
			candidates = append(candidates, style)
		}
	}
	return candidates
}

func (e *Engine) cacheKey(templateID string, level FilterLevel, version string) string {
	return fmt.Sprintf("recommend:%s:%s:v%s", templateID, level, version)
}

func (e *Engine) cacheGet(ctx context.Context, templateID string, level FilterLevel, version string) ([]Recommendation, bool) {
	if e.redis == nil || !e.config.CacheEnabled {
		return nil, false
	}

	val, err := e.redis.Get(ctx, e.cacheKey(templateID, level, version)).Result()
	if err != nil {
		metrics.RecommendationCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var ranked []Recommendation
	if err := json.Unmarshal([]byte(val), &ranked); err != nil {
		metrics.RecommendationCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.RecommendationCacheHits.WithLabelValues("hit").Inc()
	return ranked, true
}

func (e *Engine) cacheSet(ctx context.Context, templateID string, level FilterLevel, version string, ranked []Recommendation) {
	if e.redis == nil || !e.config.CacheEnabled {
		return
	}

	data, err := json.Marshal(ranked)
	if err != nil {
		return
	}
	if err := e.redis.Set(ctx, e.cacheKey(templateID, level, version), data, e.config.CacheTTL).Err(); err != nil {
		e.logger.Warn("failed to cache recommendations", map[string]interface{}{
			"templateId": templateID,
			"error":      err,
		})
	}
}
