package planner

import (
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/slot"
)

// Decode maps a solution back to one placement per task, in task order.
// Exactly one candidate of every block must be selected.
func Decode(vs *VariableSpace, x []float64) ([]model.Placement, error) {
	out := make([]model.Placement, len(vs.Tasks))
	for i, b := range vs.Blocks {
		t := vs.Tasks[i]
		chosen, n := -1, 0
		for v := b.Start; v < b.End; v++ {
			if x[v] > 0.5 {
				chosen = v
				n++
			}
		}
		if n != 1 {
			return nil, newError(KindDecodeInconsistency, t.ID, "%d candidates selected", n)
		}
		start := vs.StartSlot(i, chosen)
		out[i] = model.Placement{
			Index:     i,
			Date:      t.Date,
			Desc:      t.Description,
			StartTime: slot.Format(start),
			EndTime:   slot.Format(start + t.DurationSlots),
			Category:  t.Category,
			TaskID:    t.ID,
		}
	}
	return out, nil
}
