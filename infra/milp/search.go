package milp

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/dayplan/core/planner"
)

// SearchSolver solves problems whose equality rows partition the variables
// into groups of the form Σ x = 1 and whose inequality rows have
// non-negative coefficients. Every scheduling problem built by the planner
// has this shape.
type SearchSolver struct {
	opts Options
}

// NewSearchSolver returns a SearchSolver with defaults applied to opts.
func NewSearchSolver(opts Options) *SearchSolver {
	opts.setDefaults()
	return &SearchSolver{opts: opts}
}

type rowTerm struct {
	row  int
	coef float64
}

type groupProblem struct {
	groups [][]int
	rowsOf [][]rowTerm
	bound  []float64
	cost   []float64
}

func compileGroups(p planner.Problem, tol float64) (*groupProblem, error) {
	if len(p.Objective) != p.NumVars {
		return nil, ErrUnsupported
	}
	owner := make([]int, p.NumVars)
	for v := range owner {
		owner[v] = -1
	}
	gp := &groupProblem{
		groups: make([][]int, 0, len(p.Eq)),
		rowsOf: make([][]rowTerm, p.NumVars),
		bound:  make([]float64, len(p.Le)),
		cost:   p.Objective,
	}
	for gi, r := range p.Eq {
		if math.Abs(r.Bound-1) > tol {
			return nil, ErrUnsupported
		}
		group := make([]int, 0, len(r.Vars))
		for k, v := range r.Vars {
			if r.Coef(k) != 1 || owner[v] != -1 {
				return nil, ErrUnsupported
			}
			owner[v] = gi
			group = append(group, v)
		}
		if len(group) == 0 {
			return nil, infeasible("empty assignment row %d", gi)
		}
		sort.SliceStable(group, func(a, b int) bool { return p.Objective[group[a]] < p.Objective[group[b]] })
		gp.groups = append(gp.groups, group)
	}
	for _, g := range owner {
		if g == -1 {
			return nil, ErrUnsupported
		}
	}
	for ri, r := range p.Le {
		if r.Bound < -tol {
			return nil, infeasible("row %d has negative bound", ri)
		}
		gp.bound[ri] = r.Bound
		for k, v := range r.Vars {
			c := r.Coef(k)
			if c < 0 {
				return nil, ErrUnsupported
			}
			if c != 0 {
				gp.rowsOf[v] = append(gp.rowsOf[v], rowTerm{row: ri, coef: c})
			}
		}
	}
	// Smallest groups first keeps the tree narrow near the root.
	sort.SliceStable(gp.groups, func(a, b int) bool { return len(gp.groups[a]) < len(gp.groups[b]) })
	return gp, nil
}

// Solve returns a minimum cost assignment or an error wrapping
// planner.ErrInfeasible.
func (s *SearchSolver) Solve(ctx context.Context, p planner.Problem) (planner.Solution, error) {
	if err := ctx.Err(); err != nil {
		return planner.Solution{}, err
	}
	gp, err := compileGroups(p, s.opts.Tolerance)
	if err != nil {
		return planner.Solution{}, err
	}
	st := &search{
		groupProblem: gp,
		ctx:          ctx,
		opts:         s.opts,
		activity:     make([]float64, len(gp.bound)),
		choice:       make([]int, len(gp.groups)),
		best:         math.Inf(1),
	}
	st.dfs(0, 0)
	if st.err != nil {
		return planner.Solution{}, st.err
	}
	if st.bestChoice == nil {
		return planner.Solution{}, infeasible("no assignment satisfies all rows")
	}
	x := make([]float64, p.NumVars)
	for _, v := range st.bestChoice {
		x[v] = 1
	}
	return planner.Solution{X: x, Objective: floats.Dot(p.Objective, x)}, nil
}

type search struct {
	*groupProblem
	ctx        context.Context
	opts       Options
	activity   []float64
	choice     []int
	best       float64
	bestChoice []int
	nodes      int
	err        error
}

func (s *search) fits(v int) bool {
	for _, t := range s.rowsOf[v] {
		if s.activity[t.row]+t.coef > s.bound[t.row]+s.opts.Tolerance {
			return false
		}
	}
	return true
}

func (s *search) apply(v int, sign float64) {
	for _, t := range s.rowsOf[v] {
		s.activity[t.row] += sign * t.coef
	}
}

// cheapest returns the lowest cost candidate of group g that still fits.
func (s *search) cheapest(g int) (float64, bool) {
	for _, v := range s.groups[g] {
		if s.fits(v) {
			return s.cost[v], true
		}
	}
	return 0, false
}

func (s *search) dfs(depth int, cost float64) {
	if s.err != nil {
		return
	}
	s.nodes++
	if s.nodes > s.opts.MaxNodes {
		s.err = ErrNodeLimit
		return
	}
	if s.nodes%ctxCheckEvery == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}
	if depth == len(s.groups) {
		if cost < s.best {
			s.best = cost
			s.bestChoice = append(s.bestChoice[:0], s.choice...)
		}
		return
	}

	// Lower bound of the groups below this one. A group with no fitting
	// candidate makes the whole subtree infeasible.
	var rest float64
	for g := depth + 1; g < len(s.groups); g++ {
		c, ok := s.cheapest(g)
		if !ok {
			return
		}
		rest += c
	}

	for _, v := range s.groups[depth] {
		if cost+s.cost[v]+rest >= s.best-s.opts.Tolerance {
			break
		}
		if !s.fits(v) {
			continue
		}
		s.choice[depth] = v
		s.apply(v, 1)
		s.dfs(depth+1, cost+s.cost[v])
		s.apply(v, -1)
		if s.err != nil {
			return
		}
	}
}
