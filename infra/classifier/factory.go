package classifier

import (
	"fmt"

	"github.com/kilianp07/dayplan/core/logger"
)

// Config selects the classifier implementation.
type Config struct {
	// Kind is "keyword" (default) or "openai".
	Kind     string       `json:"kind"`
	Fallback string       `json:"fallback"`
	OpenAI   OpenAIConfig `json:"openai"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "keyword"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Kind {
	case "keyword":
	case "openai":
		if c.OpenAI.Model == "" {
			return fmt.Errorf("classifier.openai.model is required")
		}
	default:
		return fmt.Errorf("unknown classifier kind %s", c.Kind)
	}
	return nil
}

// New builds the configured classifier. The OpenAI classifier falls back to
// keyword matching.
func New(cfg Config, log logger.Logger) (Classifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kw := NewKeywordClassifier(cfg.Fallback)
	if cfg.Kind == "openai" {
		return NewOpenAIClassifier(cfg.OpenAI, kw, log)
	}
	return kw, nil
}
