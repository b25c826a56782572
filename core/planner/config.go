package planner

import "fmt"

// Defaults applied when configuration leaves values empty.
const (
	DefaultDurationMinutes = 60
	DefaultCost            = 0.5
	DefaultCategory        = "general"
	// SentinelCost prices candidates that would run past their window.
	SentinelCost = 1e6
)

// Config holds engine settings.
type Config struct {
	DefaultDurationMinutes int          `json:"default_duration_minutes"`
	DefaultCost            float64      `json:"default_cost"`
	DefaultCategory        string       `json:"default_category"`
	Solver                 SolverConfig `json:"solver"`
}

// SolverConfig selects and tunes the 0/1 solver implementation.
type SolverConfig struct {
	// Kind is "search" (group branch and bound) or "lp" (LP relaxation
	// branch and bound).
	Kind      string  `json:"kind"`
	MaxNodes  int     `json:"max_nodes"`
	Tolerance float64 `json:"tolerance"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if c.DefaultCost <= 0 {
		c.DefaultCost = DefaultCost
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = DefaultCategory
	}
	if c.Solver.Kind == "" {
		c.Solver.Kind = "search"
	}
	if c.Solver.MaxNodes <= 0 {
		c.Solver.MaxNodes = 5_000_000
	}
	if c.Solver.Tolerance <= 0 {
		c.Solver.Tolerance = 1e-7
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Solver.Kind != "search" && c.Solver.Kind != "lp" {
		return fmt.Errorf("unknown solver kind %s", c.Solver.Kind)
	}
	return nil
}
