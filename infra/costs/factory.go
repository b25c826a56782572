package costs

import (
	"fmt"

	"github.com/kilianp07/dayplan/core/factory"
	"github.com/kilianp07/dayplan/core/planner"
)

// Registry builds cost providers from configuration. Registered types are
// "static", "sqlite" and "http".
var Registry = factory.NewRegistry[planner.CostProvider]()

type staticConf struct {
	Path        string    `json:"path"`
	DefaultCost float64   `json:"default_cost"`
	Profiles    []Profile `json:"profiles"`
}

type sqliteConf struct {
	Path        string  `json:"path"`
	DefaultCost float64 `json:"default_cost"`
}

func init() {
	Registry.MustRegister("static", func(conf map[string]any) (planner.CostProvider, error) {
		var c staticConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		profiles := c.Profiles
		if c.Path != "" {
			loaded, err := LoadProfiles(c.Path)
			if err != nil {
				return nil, fmt.Errorf("load profiles: %w", err)
			}
			profiles = append(profiles, loaded...)
		}
		return NewStaticProvider(profiles, c.DefaultCost), nil
	})
	Registry.MustRegister("sqlite", func(conf map[string]any) (planner.CostProvider, error) {
		var c sqliteConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite cost provider: path is required")
		}
		return NewSQLiteProvider(c.Path, c.DefaultCost)
	})
	Registry.MustRegister("http", func(conf map[string]any) (planner.CostProvider, error) {
		var c HTTPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewHTTPProvider(c)
	})
}
