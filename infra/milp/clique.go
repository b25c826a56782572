package milp

import (
	"slices"

	"github.com/kilianp07/dayplan/core/planner"
)

// edge is an unordered variable pair with u < v.
type edge struct{ u, v int }

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// isUnit reports whether every coefficient of c is 1.
func isUnit(c planner.Constraint) bool {
	for k := range c.Vars {
		if c.Coef(k) != 1 {
			return false
		}
	}
	return true
}

// isExclusionPair reports whether c reads x_u + x_v <= 1 for two distinct
// variables.
func isExclusionPair(c planner.Constraint) bool {
	return len(c.Vars) == 2 && c.Vars[0] != c.Vars[1] && c.Bound == 1 && isUnit(c)
}

// compactExclusions replaces the pairwise exclusion rows of le by a clique
// cover of the conflict graph. Two variables conflict when a pair row
// excludes them or when both belong to the same unit assignment row of eq.
// Every returned clique row Σ x <= 1 holds for all 0/1 points satisfying
// the original rows, and every pair row is implied by some clique row, so
// the integer feasible set is unchanged while the relaxation gets fewer and
// tighter rows. Rows other than exclusion pairs are returned untouched.
func compactExclusions(numVars int, eq, le []planner.Constraint) []planner.Constraint {
	var pairs []edge
	var out []planner.Constraint
	for _, c := range le {
		if isExclusionPair(c) {
			pairs = append(pairs, newEdge(c.Vars[0], c.Vars[1]))
			continue
		}
		out = append(out, c)
	}
	if len(pairs) == 0 {
		return le
	}

	adj := make([]map[int]struct{}, numVars)
	link := func(a, b int) {
		if adj[a] == nil {
			adj[a] = make(map[int]struct{})
		}
		if adj[b] == nil {
			adj[b] = make(map[int]struct{})
		}
		adj[a][b] = struct{}{}
		adj[b][a] = struct{}{}
	}
	for _, e := range pairs {
		link(e.u, e.v)
	}
	for _, c := range eq {
		if c.Bound != 1 || !isUnit(c) {
			continue
		}
		for i := 0; i < len(c.Vars); i++ {
			for j := i + 1; j < len(c.Vars); j++ {
				if c.Vars[i] != c.Vars[j] {
					link(c.Vars[i], c.Vars[j])
				}
			}
		}
	}

	covered := make(map[edge]bool, len(pairs))
	for _, e := range pairs {
		if covered[e] {
			continue
		}
		clique := []int{e.u, e.v}
		candidates := make([]int, 0, len(adj[e.u]))
		for w := range adj[e.u] {
			if _, ok := adj[e.v][w]; ok {
				candidates = append(candidates, w)
			}
		}
		slices.Sort(candidates)
		for _, w := range candidates {
			if adjacentToAll(adj[w], clique) {
				clique = append(clique, w)
			}
		}
		slices.Sort(clique)
		for i := 0; i < len(clique); i++ {
			for j := i + 1; j < len(clique); j++ {
				covered[edge{clique[i], clique[j]}] = true
			}
		}
		out = append(out, planner.Constraint{Vars: clique, Bound: 1})
	}
	return out
}

func adjacentToAll(nbrs map[int]struct{}, clique []int) bool {
	for _, c := range clique {
		if _, ok := nbrs[c]; !ok {
			return false
		}
	}
	return true
}
