package planner

import "github.com/kilianp07/dayplan/core/model"

// Block is the contiguous range [Start, End) of decision variables owned by
// one task.
type Block struct {
	Task  int
	Start int
	End   int
}

// Len returns the number of candidates in the block.
func (b Block) Len() int { return b.End - b.Start }

// VariableSpace maps the global decision vector onto task placements.
type VariableSpace struct {
	Tasks  []model.Task
	Blocks []Block
	N      int
}

// BuildVariableSpace allocates one block of candidate start offsets per task.
// A task whose window cannot hold its duration at any offset fails the whole
// batch with WindowTooSmall.
func BuildVariableSpace(tasks []model.Task) (*VariableSpace, error) {
	vs := &VariableSpace{Tasks: tasks, Blocks: make([]Block, len(tasks))}
	for i, t := range tasks {
		if t.DurationSlots <= 0 {
			return nil, newError(KindInvalidInput, t.ID, "duration must be positive")
		}
		count := t.Window.Len() - t.DurationSlots + 1
		if count <= 0 {
			return nil, newError(KindWindowTooSmall, t.ID,
				"task needs %d slots but window holds %d", t.DurationSlots, max(t.Window.Len(), 0))
		}
		vs.Blocks[i] = Block{Task: i, Start: vs.N, End: vs.N + count}
		vs.N += count
	}
	return vs, nil
}

// StartSlot returns the absolute start slot of global variable v, which must
// belong to task i's block.
func (vs *VariableSpace) StartSlot(i, v int) int {
	return vs.Tasks[i].Window.Start + (v - vs.Blocks[i].Start)
}

// Range returns the smallest slot range [lo, hi] covering every window.
func (vs *VariableSpace) Range() (lo, hi int) {
	for i, t := range vs.Tasks {
		if i == 0 || t.Window.Start < lo {
			lo = t.Window.Start
		}
		if i == 0 || t.Window.End > hi {
			hi = t.Window.End
		}
	}
	return lo, hi
}
