package templating

// TemplateConfig holds the options for the template engine.
type TemplateConfig struct {
	// Dir is the directory the CLI loads *.tmpl.html and *.part.html files from.
	Dir string `json:"dir" env:"DIR"`

	// MissingKey controls what a template does when indexing a map with a key
	// that is not present: "default", "zero" or "error". See text/template.
	MissingKey string `json:"missing_key" env:"MISSING_KEY"`
}

// DefaultConfig returns a TemplateConfig with default values.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		Dir:        "./data/templates",
		MissingKey: "default",
	}
}

func (c TemplateConfig) missingKeyOption() string {
	switch c.MissingKey {
	case "zero", "error":
		return "missingkey=" + c.MissingKey
	default:
		return "missingkey=default"
	}
}
