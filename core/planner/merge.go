package planner

import (
	"math"
	"sort"

	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/slot"
)

// Merge combines a committed snapshot with newly scheduled placements. The
// result is sorted by start time of day and reindexed from 0. Ties keep
// committed placements first, then input order. Neither input is modified.
// Committed placements with unparseable start times sort last.
func Merge(committed, scheduled []model.Placement) []model.Placement {
	merged := make([]model.Placement, 0, len(committed)+len(scheduled))
	merged = append(merged, committed...)
	merged = append(merged, scheduled...)

	keys := make([]int, len(merged))
	for i, p := range merged {
		m, err := slot.ParseClock(p.StartTime)
		if err != nil {
			m = math.MaxInt
		}
		keys[i] = m
	}
	order := make([]int, len(merged))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	out := make([]model.Placement, len(merged))
	for i, idx := range order {
		out[i] = merged[idx]
		out[i].Index = i
	}
	return out
}
