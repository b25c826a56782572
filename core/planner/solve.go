package planner

import (
	"context"
	"errors"
)

// solve runs the solver and maps its failures onto planner error kinds. A
// timeout is reported as Infeasible.
func solve(ctx context.Context, s Solver, p Problem) (Solution, error) {
	sol, err := s.Solve(ctx, p)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		return Solution{}, wrapError(KindInfeasible, err, "solver timed out")
	case errors.Is(err, context.Canceled):
		return Solution{}, wrapError(KindInfeasible, err, "solve canceled")
	case KindOf(err) != "":
		return Solution{}, err
	default:
		return Solution{}, wrapError(KindInfeasible, err, "solver failed")
	}
	if len(sol.X) != p.NumVars {
		return Solution{}, newError(KindDecodeInconsistency, "",
			"solver returned %d values for %d variables", len(sol.X), p.NumVars)
	}
	return sol, nil
}
