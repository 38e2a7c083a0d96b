// internal/generation/builder/builder.go
package builder

import (
	"context"
	"fmt"
	"strings"

	"contentgen-engine/internal/catalog"
	"contentgen-engine/internal/common/errors"
	"contentgen-engine/internal/common/logger"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// Field name pairs accepted from upstream forms. The short, explicit name wins
// when both are present.
const (
	fieldTemplate       = "template"
	fieldTemplateLong   = "template_id"
	fieldStyle          = "style"
	fieldStyleLong      = "style_profile"
	fieldPriority       = "priority"
	fieldTimeoutSecs    = "timeout_seconds"
	fieldGenerationMode = "generation_mode"
)

// Builder validates and normalizes a raw user selection into a canonical
// GenerationRequest.
type Builder struct {
	catalog *catalog.Service
	logger  logger.Logger
}

func NewBuilder(cat *catalog.Service, log logger.Logger) *Builder {
	return &Builder{
		catalog: cat,
		logger:  log.WithFields(map[string]interface{}{"component": "builder"}),
	}
}

// Build merges field aliases, validates required fields, applies template
// parameter defaults and returns the immutable request. Unknown parameter
// keys are preserved, not stripped.
func (b *Builder) Build(ctx context.Context, raw map[string]interface{}) (*GenerationRequest, error) {
	templateID := mergeField(raw, fieldTemplate, fieldTemplateLong)
	if templateID == "" {
		return nil, errors.NewMissingFieldError(fieldTemplate)
	}

	styleID := mergeField(raw, fieldStyle, fieldStyleLong)
	if styleID == "" {
		return nil, errors.NewMissingFieldError(fieldStyle)
	}

	req := &GenerationRequest{
		CorrelationID: uuid.New().String(),
		TemplateID:    templateID,
		StyleID:       styleID,
		Parameters:    map[string]interface{}{},
	}

	for key, value := range raw {
		switch key {
		case fieldTemplate, fieldTemplateLong, fieldStyle, fieldStyleLong:
			// consumed above
		case fieldPriority:
			req.Priority = asInt(value)
		case fieldTimeoutSecs:
			req.TimeoutSeconds = asInt(value)
		case fieldGenerationMode:
			if s, ok := value.(string); ok {
				req.GenerationMode = strings.TrimSpace(s)
			}
		default:
			req.Parameters[key] = value
		}
	}

	// Template defaults and schema are best-effort: an id absent from the
	// catalog is still submittable, mirroring the matrix's missing-entry
	// tolerance.
	tpl, err := b.catalog.Template(ctx, templateID)
	if err != nil {
		b.logger.Debug("template not in catalog, skipping defaults", map[string]interface{}{
			"templateId": templateID,
		})
		return req, nil
	}

	for key, def := range tpl.ParameterDefaults {
		if _, present := req.Parameters[key]; !present {
			req.Parameters[key] = def
		}
	}

	if len(tpl.ParameterSchema) > 0 {
		if err := validateParameters(tpl.ParameterSchema, req.Parameters); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// mergeField resolves a short/long field name pair to a trimmed value, with
// the short name taking precedence.
func mergeField(raw map[string]interface{}, short, long string) string {
	if v, ok := raw[short].(string); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	if v, ok := raw[long].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func validateParameters(schemaMap, params map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewValidationFailedError(fmt.Sprintf("schema error: %v", err))
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.NewValidationFailedError(strings.Join(errs, "; "))
	}

	return nil
}

func asInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
