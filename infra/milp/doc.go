// Package milp provides 0/1 integer linear program solvers for the planner.
//
// SearchSolver is a depth-first branch and bound over the "choose exactly
// one" groups formed by the equality rows. LPSolver is a classic branch and
// bound over the gonum simplex relaxation; it accepts any problem with 0/1
// variables but is slower on scheduling workloads.
package milp
