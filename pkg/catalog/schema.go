// pkg/catalog/schema.go
package catalog

// Catalog is the versioned document carrying every template, style profile and
// the compatibility matrix between them. The engine only reads it.
type Catalog struct {
	Version       string          `json:"version"`
	LastUpdated   string          `json:"lastUpdated"`
	Templates     []Template      `json:"templates"`
	StyleProfiles []StyleProfile  `json:"styleProfiles"`
	Compatibility []Compatibility `json:"compatibility"`
}

// Template is a content blueprint selected by the user.
type Template struct {
	ID                string                 `json:"id"`
	DisplayName       string                 `json:"displayName"`
	Category          string                 `json:"category"`
	Sections          []string               `json:"sections,omitempty"`
	ParameterSchema   map[string]interface{} `json:"parameterSchema,omitempty"`
	ParameterDefaults map[string]interface{} `json:"parameterDefaults,omitempty"`
}

// StyleProfile is a tone/voice configuration applied to generated content.
type StyleProfile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Category    string   `json:"category"`
	Tone        []string `json:"tone,omitempty"`
}

// Compatibility carries per-template scores and tier membership.
type Compatibility struct {
	TemplateID   string         `json:"templateId"`
	Scores       map[string]int `json:"scores"` // styleId -> score in [0,100]
	Recommended  []string       `json:"recommended,omitempty"`
	Compatible   []string       `json:"compatible,omitempty"`
	Incompatible []string       `json:"incompatible,omitempty"`
}

// TemplateByID returns the template with the given id, or nil.
func (c *Catalog) TemplateByID(id string) *Template {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	return nil
}

// StyleByID returns the style profile with the given id, or nil.
func (c *Catalog) StyleByID(id string) *StyleProfile {
	for i := range c.StyleProfiles {
		if c.StyleProfiles[i].ID == id {
			return &c.StyleProfiles[i]
		}
	}
	return nil
}

// StyleIDs returns every style profile id in catalog order.
func (c *Catalog) StyleIDs() []string {
	ids := make([]string, len(c.StyleProfiles))
	for i, s := range c.StyleProfiles {
		ids[i] = s.ID
	}
	return ids
}
