// Package config loads the service configuration from YAML or JSON with
// environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dayplan/core/factory"
	"github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/infra/classifier"
	"github.com/kilianp07/dayplan/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: PLANNER_SERVER__ADDR sets server.addr.
const EnvPrefix = "PLANNER_"

type Config struct {
	Server     ServerConfig         `json:"server"`
	Planner    planner.Config       `json:"planner"`
	Store      StoreConfig          `json:"store"`
	Costs      factory.ModuleConfig `json:"costs"`
	Classifier classifier.Config    `json:"classifier"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	MQTT       mqtt.Config          `json:"mqtt"`
	Sentry     SentryConfig         `json:"sentry"`
}

// Load reads path, applies environment overrides, fills defaults and
// validates the result. An empty path loads defaults and the environment
// only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Planner.SetDefaults()
	c.Store.SetDefaults()
	if c.Costs.Type == "" {
		c.Costs.Type = "static"
	}
	c.Classifier.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"planner", c.Planner.Validate},
		{"store", c.Store.Validate},
		{"classifier", c.Classifier.Validate},
		{"logging", c.Logging.Validate},
		{"mqtt", c.MQTT.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
