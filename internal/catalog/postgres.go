// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	pkgcatalog "contentgen-engine/pkg/catalog"
)

// postgresSource loads the catalog from the templates, style_profiles and
// template_style_compatibility tables. JSON columns hold the variable-shape
// fields (sections, parameter schema, tone descriptors).
type postgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) Source {
	return &postgresSource{db: db}
}

func (p *postgresSource) Name() string { return "postgres" }

func (p *postgresSource) Load(ctx context.Context) (*pkgcatalog.Catalog, error) {
	cat := &pkgcatalog.Catalog{}

	if err := p.loadTemplates(ctx, cat); err != nil {
		return nil, err
	}
	if err := p.loadStyles(ctx, cat); err != nil {
		return nil, err
	}
	if err := p.loadCompatibility(ctx, cat); err != nil {
		return nil, err
	}

	return cat, nil
}

func (p *postgresSource) loadTemplates(ctx context.Context, cat *pkgcatalog.Catalog) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, display_name, category, sections, parameter_schema, parameter_defaults
		FROM templates ORDER BY sort_order, id`)
	if err != nil {
		return fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t pkgcatalog.Template
		var sections, schema, defaults []byte
		if err := rows.Scan(&t.ID, &t.DisplayName, &t.Category, &sections, &schema, &defaults); err != nil {
			return fmt.Errorf("scan template: %w", err)
		}
		if len(sections) > 0 {
			if err := json.Unmarshal(sections, &t.Sections); err != nil {
				t.Sections = nil
			}
		}
		if len(schema) > 0 {
			if err := json.Unmarshal(schema, &t.ParameterSchema); err != nil {
				t.ParameterSchema = nil
			}
		}
		if len(defaults) > 0 {
			if err := json.Unmarshal(defaults, &t.ParameterDefaults); err != nil {
				t.ParameterDefaults = nil
			}
		}
		cat.Templates = append(cat.Templates, t)
	}
	return rows.Err()
}

func (p *postgresSource) loadStyles(ctx context.Context, cat *pkgcatalog.Catalog) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, display_name, category, tone
		FROM style_profiles ORDER BY sort_order, id`)
	if err != nil {
		return fmt.Errorf("query style profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s pkgcatalog.StyleProfile
		var tone []byte
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Category, &tone); err != nil {
			return fmt.Errorf("scan style profile: %w", err)
		}
		if len(tone) > 0 {
			if err := json.Unmarshal(tone, &s.Tone); err != nil {
				s.Tone = nil
			}
		}
		cat.StyleProfiles = append(cat.StyleProfiles, s)
	}
	return rows.Err()
}

func (p *postgresSource) loadCompatibility(ctx context.Context, cat *pkgcatalog.Catalog) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT template_id, style_id, score, tier
		FROM template_style_compatibility ORDER BY template_id, style_id`)
	if err != nil {
		return fmt.Errorf("query compatibility: %w", err)
	}
	defer rows.Close()

	byTemplate := map[string]*pkgcatalog.Compatibility{}
	var order []string

	for rows.Next() {
		var templateID, styleID, tier string
		var score int
		if err := rows.Scan(&templateID, &styleID, &score, &tier); err != nil {
			return fmt.Errorf("scan compatibility: %w", err)
		}

		entry, ok := byTemplate[templateID]
		if !ok {
			entry = &pkgcatalog.Compatibility{
				TemplateID: templateID,
				Scores:     map[string]int{},
			}
			byTemplate[templateID] = entry
			order = append(order, templateID)
		}

		entry.Scores[styleID] = score
		switch tier {
		case "recommended":
			entry.Recommended = append(entry.Recommended, styleID)
		case "compatible":
			entry.Compatible = append(entry.Compatible, styleID)
		case "incompatible":
			entry.Incompatible = append(entry.Incompatible, styleID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		cat.Compatibility = append(cat.Compatibility, *byTemplate[id])
	}
	return nil
}
