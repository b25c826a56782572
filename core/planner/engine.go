package planner

import (
	"context"
	"strings"

	"github.com/kilianp07/dayplan/core/logger"
	"github.com/kilianp07/dayplan/core/model"
)

// Request is one scheduling run for a single date.
type Request struct {
	// Date must match every task's date. Empty takes the first task's date.
	Date  string
	Tasks []model.RawTask
	// Committed is the snapshot of the date's committed schedule. Nil means
	// no schedule exists yet and selects pairwise exclusion; a non-nil
	// (possibly empty) slice selects slot-capacity exclusion.
	Committed []model.Placement
	// DurationOptional applies the default duration to tasks without one.
	DurationOptional bool
}

// Outcome is the result of a successful run.
type Outcome struct {
	Date           string
	Scheduled      []model.Placement
	Merged         []model.Placement
	TotalCost      float64
	Mode           Mode
	NumVars        int
	NumConstraints int
}

// Engine formulates and solves one date's scheduling problem. An Engine is
// stateless between calls and safe for concurrent use.
type Engine struct {
	cfg    Config
	costs  *CostMatrixBuilder
	solver Solver
	log    logger.Logger
}

// NewEngine returns an engine pricing tasks with provider and solving with
// solver.
func NewEngine(cfg Config, provider CostProvider, solver Solver, log logger.Logger) *Engine {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{
		cfg:    cfg,
		costs:  NewCostMatrixBuilder(provider, cfg.DefaultCost, log),
		solver: solver,
		log:    log,
	}
}

// Schedule places every task of req or fails the whole batch.
func (e *Engine) Schedule(ctx context.Context, req Request) (*Outcome, error) {
	norm := NewNormalizer(NormalizeOptions{
		DurationOptional:       req.DurationOptional,
		DefaultDurationMinutes: e.cfg.DefaultDurationMinutes,
		DefaultCategory:        e.cfg.DefaultCategory,
	}, e.log)
	tasks, err := norm.Normalize(req.Tasks)
	if err != nil {
		return nil, err
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = tasks[0].Date
	}
	for _, t := range tasks {
		if t.Date != date {
			return nil, newError(KindInvalidInput, t.ID, "task date %s differs from request date %s", t.Date, date)
		}
	}

	vs, err := BuildVariableSpace(tasks)
	if err != nil {
		return nil, err
	}

	categories := make([]string, len(tasks))
	for i, t := range tasks {
		categories[i] = t.Category
	}
	costs := e.costs.Build(ctx, categories)

	cs := BuildConstraints(vs, req.Committed, e.log)
	p := Problem{
		NumVars:   vs.N,
		Objective: BuildObjective(vs, costs),
		Eq:        cs.Eq,
		Le:        cs.Le,
	}
	e.log.Debugw("solving schedule", map[string]any{
		"date":        date,
		"tasks":       len(tasks),
		"vars":        p.NumVars,
		"constraints": len(p.Eq) + len(p.Le),
		"mode":        string(cs.Mode),
	})

	sol, err := solve(ctx, e.solver, p)
	if err != nil {
		return nil, err
	}
	scheduled, err := Decode(vs, sol.X)
	if err != nil {
		return nil, err
	}

	var total float64
	for v, x := range sol.X {
		if x > 0.5 {
			total += p.Objective[v]
		}
	}

	return &Outcome{
		Date:           date,
		Scheduled:      scheduled,
		Merged:         Merge(req.Committed, scheduled),
		TotalCost:      total,
		Mode:           cs.Mode,
		NumVars:        p.NumVars,
		NumConstraints: len(p.Eq) + len(p.Le),
	}, nil
}
