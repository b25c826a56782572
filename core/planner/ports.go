package planner

import "context"

// CostProvider returns one 24-value hourly cost vector per requested category.
// Implementations should substitute defaults for unknown categories; the
// planner tolerates errors and malformed rows regardless.
type CostProvider interface {
	HourlyCosts(ctx context.Context, categories []string) ([][]float64, error)
}

// Constraint is one linear row over the decision vector. A nil Coefs means
// every listed variable has coefficient 1.
type Constraint struct {
	Vars  []int
	Coefs []float64
	Bound float64
}

// Coef returns the coefficient of the k-th listed variable.
func (c Constraint) Coef(k int) float64 {
	if c.Coefs == nil {
		return 1
	}
	return c.Coefs[k]
}

// Problem is a 0/1 integer linear program:
//
//	minimize  Objective·x
//	s.t.      Eq rows:  Σ coef·x = Bound
//	          Le rows:  Σ coef·x <= Bound
//	          x ∈ {0,1}^NumVars
type Problem struct {
	NumVars   int
	Objective []float64
	Eq        []Constraint
	Le        []Constraint
}

// Solution is an optimal assignment returned by a Solver.
type Solution struct {
	X         []float64
	Objective float64
}

// Solver solves 0/1 integer linear programs. Implementations return an error
// wrapping ErrInfeasible when no assignment satisfies the constraints.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Solution, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, p Problem) (Solution, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, p Problem) (Solution, error) { return f(ctx, p) }
