package milp

import (
	"errors"
	"fmt"

	"github.com/kilianp07/dayplan/core/factory"
	"github.com/kilianp07/dayplan/core/planner"
)

const (
	defaultMaxNodes  = 5_000_000
	defaultTolerance = 1e-7
	// ctxCheckEvery is the number of nodes explored between context checks.
	ctxCheckEvery = 1024
)

// ErrNodeLimit is returned when the search exceeds Options.MaxNodes.
var ErrNodeLimit = errors.New("milp: node limit reached")

// ErrUnsupported is returned when a problem does not have the structure a
// solver requires.
var ErrUnsupported = errors.New("milp: unsupported problem structure")

// Options tune both solvers.
type Options struct {
	MaxNodes  int     `json:"max_nodes"`
	Tolerance float64 `json:"tolerance"`
}

func (o *Options) setDefaults() {
	if o.MaxNodes <= 0 {
		o.MaxNodes = defaultMaxNodes
	}
	if o.Tolerance <= 0 {
		o.Tolerance = defaultTolerance
	}
}

// Registry builds solvers from configuration. "search" and "lp" are
// registered by default.
var Registry = factory.NewRegistry[planner.Solver]()

func init() {
	Registry.MustRegister("search", func(conf map[string]any) (planner.Solver, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewSearchSolver(o), nil
	})
	Registry.MustRegister("lp", func(conf map[string]any) (planner.Solver, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewLPSolver(o), nil
	})
}

// New returns the solver selected by cfg.
func New(cfg planner.SolverConfig) (planner.Solver, error) {
	s, err := Registry.Create(factory.ModuleConfig{
		Type: cfg.Kind,
		Conf: map[string]any{"max_nodes": cfg.MaxNodes, "tolerance": cfg.Tolerance},
	})
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	return s, nil
}

func infeasible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", planner.ErrInfeasible, fmt.Sprintf(format, args...))
}
