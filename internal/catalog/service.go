// internal/catalog/service.go
package catalog

import (
	"context"
	"sync"
	"time"

	"contentgen-engine/internal/common/errors"
	"contentgen-engine/internal/common/logger"

	pkgcatalog "contentgen-engine/pkg/catalog"
)

// Source loads a full catalog document from wherever it lives.
type Source interface {
	Load(ctx context.Context) (*pkgcatalog.Catalog, error)
	Name() string
}

// Service serves the catalog with a TTL cache in front of the source. The
// catalog is read-only to callers; a reload swaps the whole document.
type Service struct {
	source Source
	ttl    time.Duration
	logger logger.Logger

	mu       sync.RWMutex
	cached   *pkgcatalog.Catalog
	loadedAt time.Time
}

func NewService(source Source, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		source: source,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog", "source": source.Name()}),
	}
}

// Catalog returns the current catalog, loading or refreshing it as needed.
// A stale cached copy is served when a refresh fails.
func (s *Service) Catalog(ctx context.Context) (*pkgcatalog.Catalog, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.loadedAt) < s.ttl {
		cat := s.cached
		s.mu.RUnlock()
		return cat, nil
	}
	s.mu.RUnlock()

	cat, err := s.source.Load(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.cached
		s.mu.RUnlock()
		if stale != nil {
			s.logger.Warn("catalog refresh failed, serving stale copy", map[string]interface{}{
				"error": err,
			})
			return stale, nil
		}
		return nil, errors.NewCatalogLoadFailedError(s.source.Name(), err)
	}

	s.mu.Lock()
	s.cached = cat
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("catalog loaded", map[string]interface{}{
		"version":   cat.Version,
		"templates": len(cat.Templates),
		"styles":    len(cat.StyleProfiles),
	})

	return cat, nil
}

// Template resolves a template by id from the current catalog.
func (s *Service) Template(ctx context.Context, id string) (*pkgcatalog.Template, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if tpl := cat.TemplateByID(id); tpl != nil {
		return tpl, nil
	}
	return nil, errors.NewTemplateNotFoundError(id)
}

// fileSource loads the catalog from a JSON file on disk.
type fileSource struct {
	path string
}

func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (f *fileSource) Name() string { return "json:" + f.path }

func (f *fileSource) Load(_ context.Context) (*pkgcatalog.Catalog, error) {
	return pkgcatalog.LoadCatalog(f.path)
}
