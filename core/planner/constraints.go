package planner

import (
	"github.com/kilianp07/dayplan/core/logger"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/slot"
)

// Mode selects how new tasks are kept apart.
type Mode string

const (
	// ModePairwise adds one exclusion row per overlapping candidate pair. It
	// is used when the date has no committed schedule.
	ModePairwise Mode = "pairwise"
	// ModeCapacity adds one row per slot of the request range bounding the
	// candidates covering it by the slot's remaining capacity. It is used
	// when a committed schedule exists and replaces pairwise exclusion.
	ModeCapacity Mode = "capacity"
)

// ConstraintSet holds the rows of one scheduling problem.
type ConstraintSet struct {
	Mode Mode
	Eq   []Constraint
	Le   []Constraint
	// RangeStart is the first slot of Capacity.
	RangeStart int
	// Capacity is the occupied mask over the request range: 0 for slots
	// taken by committed tasks, 1 otherwise. Nil in pairwise mode.
	Capacity []int
}

// BuildConstraints emits the assignment rows plus the exclusion family
// selected by committed: nil selects ModePairwise, anything else (including
// an empty schedule) selects ModeCapacity.
func BuildConstraints(vs *VariableSpace, committed []model.Placement, log logger.Logger) ConstraintSet {
	if log == nil {
		log = logger.NopLogger{}
	}
	cs := ConstraintSet{Eq: AssignmentConstraints(vs)}
	if committed == nil {
		cs.Mode = ModePairwise
		cs.Le = PairwiseConstraints(vs)
		return cs
	}
	lo, hi := vs.Range()
	cs.Mode = ModeCapacity
	cs.RangeStart = lo
	cs.Capacity = OccupiedMask(committed, lo, hi, log)
	cs.Le = CapacityConstraints(vs, cs.Capacity, lo)
	return cs
}

// AssignmentConstraints requires exactly one candidate per task.
func AssignmentConstraints(vs *VariableSpace) []Constraint {
	rows := make([]Constraint, len(vs.Blocks))
	for i, b := range vs.Blocks {
		vars := make([]int, 0, b.Len())
		for v := b.Start; v < b.End; v++ {
			vars = append(vars, v)
		}
		rows[i] = Constraint{Vars: vars, Bound: 1}
	}
	return rows
}

// PairwiseConstraints adds x_p + x_q <= 1 for every pair of candidates of
// distinct tasks whose intervals overlap.
func PairwiseConstraints(vs *VariableSpace) []Constraint {
	var rows []Constraint
	for p := 0; p < len(vs.Tasks); p++ {
		dp := vs.Tasks[p].DurationSlots
		for q := p + 1; q < len(vs.Tasks); q++ {
			dq := vs.Tasks[q].DurationSlots
			for vp := vs.Blocks[p].Start; vp < vs.Blocks[p].End; vp++ {
				sp := vs.StartSlot(p, vp)
				for vq := vs.Blocks[q].Start; vq < vs.Blocks[q].End; vq++ {
					sq := vs.StartSlot(q, vq)
					if slot.Overlaps(sp, dp, sq, dq) {
						rows = append(rows, Constraint{Vars: []int{vp, vq}, Bound: 1})
					}
				}
			}
		}
	}
	return rows
}

// OccupiedMask returns the capacity of every slot in [lo, hi]: 0 when a
// committed placement covers the slot, 1 otherwise. Committed placements
// belong to the request date; one whose end is not after its start runs
// past midnight and occupies the slots from 288 onwards for its tail.
// Placements with malformed times or zero length are skipped.
func OccupiedMask(committed []model.Placement, lo, hi int, log logger.Logger) []int {
	if hi < lo {
		return nil
	}
	capacity := make([]int, hi-lo+1)
	for s := range capacity {
		capacity[s] = 1
	}
	for _, p := range committed {
		startMin, err := slot.ParseClock(p.StartTime)
		if err != nil {
			log.Warnf("skipping committed task %q: %v", p.Desc, err)
			continue
		}
		endMin, err := slot.ParseClock(p.EndTime)
		if err != nil {
			log.Warnf("skipping committed task %q: %v", p.Desc, err)
			continue
		}
		if endMin == startMin {
			continue
		}
		from := max(slot.FromMinutes(startMin), lo)
		to := min(slot.CeilSlots(startMin+slot.ClockDistance(startMin, endMin)), hi+1)
		for s := from; s < to; s++ {
			capacity[s-lo] = 0
		}
	}
	return capacity
}

// CapacityConstraints bounds, for every slot of the range starting at lo,
// the number of candidates covering the slot by its capacity. Slots no
// candidate covers produce no row.
func CapacityConstraints(vs *VariableSpace, capacity []int, lo int) []Constraint {
	cover := make([][]int, len(capacity))
	for i, b := range vs.Blocks {
		d := vs.Tasks[i].DurationSlots
		for v := b.Start; v < b.End; v++ {
			start := vs.StartSlot(i, v)
			for s := start; s < start+d; s++ {
				idx := s - lo
				if idx < 0 || idx >= len(cover) {
					continue
				}
				cover[idx] = append(cover[idx], v)
			}
		}
	}
	var rows []Constraint
	for idx, vars := range cover {
		if len(vars) == 0 {
			continue
		}
		rows = append(rows, Constraint{Vars: vars, Bound: float64(capacity[idx])})
	}
	return rows
}
