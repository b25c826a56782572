package planner

import "gonum.org/v1/gonum/mat"

// BuildObjective prices every candidate by summing its task's cost row over
// the slots the candidate occupies. costs row i belongs to task i.
//
// A candidate that would end past its window receives SentinelCost.
// BuildVariableSpace never allocates such candidates; the check guards
// hand-built variable spaces only.
func BuildObjective(vs *VariableSpace, costs *mat.Dense) []float64 {
	c := make([]float64, vs.N)
	for i, b := range vs.Blocks {
		t := vs.Tasks[i]
		row := costs.RawRowView(i)
		for v := b.Start; v < b.End; v++ {
			start := vs.StartSlot(i, v)
			if start+t.DurationSlots-1 > t.Window.End {
				c[v] = SentinelCost
				continue
			}
			c[v] = IntervalCost(row, start, t.DurationSlots)
		}
	}
	return c
}
