package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/dayplan/core/planner"
)

// integralTol is the distance from 0 or 1 below which a relaxed value is
// considered integral.
const integralTol = 1e-6

// lpSolve points to the simplex routine. Tests override it to simulate
// solver failures.
var lpSolve = lp.Simplex

// LPSolver runs depth-first branch and bound over the LP relaxation of the
// problem. Pairwise exclusion rows are first merged into clique rows, and
// fixed variables are substituted out of every node's relaxation rather than
// added as rows so the constraint matrix keeps full row rank.
type LPSolver struct {
	opts Options
}

// NewLPSolver returns an LPSolver with defaults applied to opts.
func NewLPSolver(opts Options) *LPSolver {
	opts.setDefaults()
	return &LPSolver{opts: opts}
}

// fixing holds -1 for free variables, 0 or 1 for fixed ones.
type fixing []int8

type relaxation struct {
	x   []float64
	obj float64
}

var errNodeInfeasible = errors.New("node infeasible")

// Solve returns a minimum cost assignment or an error wrapping
// planner.ErrInfeasible.
func (s *LPSolver) Solve(ctx context.Context, p planner.Problem) (planner.Solution, error) {
	if len(p.Objective) != p.NumVars {
		return planner.Solution{}, ErrUnsupported
	}
	bounded := assignmentBounded(p)
	p.Le = compactExclusions(p.NumVars, p.Eq, p.Le)

	root := make(fixing, p.NumVars)
	for i := range root {
		root[i] = -1
	}
	stack := []fixing{root}
	best := math.Inf(1)
	var bestX []float64
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return planner.Solution{}, err
		}
		nodes++
		if nodes > s.opts.MaxNodes {
			return planner.Solution{}, ErrNodeLimit
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r, err := s.relax(p, node, bounded)
		if errors.Is(err, errNodeInfeasible) || errors.Is(err, lp.ErrInfeasible) {
			continue
		}
		if err != nil {
			return planner.Solution{}, fmt.Errorf("lp relaxation: %w", err)
		}
		if r.obj >= best-s.opts.Tolerance {
			continue
		}
		j := mostFractional(r.x)
		if j < 0 {
			best = r.obj
			bestX = roundBinary(r.x)
			continue
		}
		zero := append(fixing(nil), node...)
		zero[j] = 0
		one := append(fixing(nil), node...)
		one[j] = 1
		// Popped first: the up branch tends to reach integral leaves quickly.
		stack = append(stack, zero, one)
	}
	if bestX == nil {
		return planner.Solution{}, infeasible("relaxation has no integral point")
	}
	return planner.Solution{X: bestX, Objective: best}, nil
}

// assignmentBounded marks variables whose upper bound of 1 is implied by a
// unit equality row Σ x = 1.
func assignmentBounded(p planner.Problem) []bool {
	out := make([]bool, p.NumVars)
	for _, r := range p.Eq {
		if r.Bound != 1 {
			continue
		}
		unit := true
		for k := range r.Vars {
			if r.Coef(k) != 1 {
				unit = false
				break
			}
		}
		if !unit {
			continue
		}
		for _, v := range r.Vars {
			out[v] = true
		}
	}
	return out
}

// relax solves the LP relaxation of p with the variables in fix substituted.
// The standard form has one column per free variable followed by one slack
// column per inequality or bound row.
func (s *LPSolver) relax(p planner.Problem, fix fixing, bounded []bool) (relaxation, error) {
	col := make([]int, p.NumVars)
	var freeVars []int
	var constant float64
	for v, f := range fix {
		col[v] = -1
		switch f {
		case -1:
			col[v] = len(freeVars)
			freeVars = append(freeVars, v)
		case 1:
			constant += p.Objective[v]
		}
	}

	type row struct {
		coefs map[int]float64
		rhs   float64
		slack bool
	}
	var rows []row
	addRow := func(c planner.Constraint, slack bool) error {
		r := row{coefs: make(map[int]float64), rhs: c.Bound, slack: slack}
		for k, v := range c.Vars {
			a := c.Coef(k)
			if fix[v] == -1 {
				if a != 0 {
					r.coefs[col[v]] += a
				}
				continue
			}
			r.rhs -= a * float64(fix[v])
		}
		if len(r.coefs) == 0 {
			if (slack && r.rhs < -s.opts.Tolerance) || (!slack && math.Abs(r.rhs) > s.opts.Tolerance) {
				return errNodeInfeasible
			}
			return nil
		}
		rows = append(rows, r)
		return nil
	}
	for _, c := range p.Eq {
		if err := addRow(c, false); err != nil {
			return relaxation{}, err
		}
	}
	for _, c := range p.Le {
		if err := addRow(c, true); err != nil {
			return relaxation{}, err
		}
	}
	for _, v := range freeVars {
		if !bounded[v] {
			rows = append(rows, row{coefs: map[int]float64{col[v]: 1}, rhs: 1, slack: true})
		}
	}

	x := make([]float64, p.NumVars)
	for v, f := range fix {
		if f == 1 {
			x[v] = 1
		}
	}
	if len(freeVars) == 0 {
		return relaxation{x: x, obj: constant}, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.slack {
			slacks++
		}
	}
	m, n := len(rows), len(freeVars)+slacks
	if m > n {
		return relaxation{}, ErrUnsupported
	}
	if m == 0 {
		// No row touches a free variable: set each by the sign of its cost.
		obj := constant
		for _, v := range freeVars {
			if p.Objective[v] < 0 {
				x[v] = 1
				obj += p.Objective[v]
			}
		}
		return relaxation{x: x, obj: obj}, nil
	}

	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	c := make([]float64, n)
	for k, v := range freeVars {
		c[k] = p.Objective[v]
	}
	next := len(freeVars)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, a := range r.coefs {
			A.Set(i, j, sign*a)
		}
		if r.slack {
			A.Set(i, next, sign)
			next++
		}
		b[i] = sign * r.rhs
	}

	obj, sol, err := lpSolve(c, A, b, s.opts.Tolerance, nil)
	if err != nil {
		return relaxation{}, err
	}
	for k, v := range freeVars {
		x[v] = sol[k]
	}
	return relaxation{x: x, obj: constant + obj}, nil
}

func mostFractional(x []float64) int {
	best, idx := integralTol, -1
	for j, v := range x {
		if d := math.Min(v, 1-v); d > best {
			best, idx = d, j
		}
	}
	return idx
}

func roundBinary(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if v > 0.5 {
			out[j] = 1
		}
	}
	return out
}
