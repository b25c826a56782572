package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/core/model"
)

func TestMerge_SortsAndReindexes(t *testing.T) {
	committed := []model.Placement{
		{Index: 0, Desc: "gym", StartTime: "18:00", EndTime: "19:00"},
		{Index: 1, Desc: "standup", StartTime: "09:00", EndTime: "09:15"},
	}
	scheduled := []model.Placement{
		{Index: 0, Desc: "read", StartTime: "09:00", EndTime: "10:00"},
		{Index: 1, Desc: "walk", StartTime: "7:30", EndTime: "8:00"},
	}
	merged := Merge(committed, scheduled)

	require.Len(t, merged, 4)
	var descs []string
	for i, p := range merged {
		assert.Equal(t, i, p.Index)
		descs = append(descs, p.Desc)
	}
	// Committed entries win ties.
	assert.Equal(t, []string{"walk", "standup", "read", "gym"}, descs)

	// Inputs are untouched.
	assert.Equal(t, 0, committed[0].Index)
	assert.Equal(t, "gym", committed[0].Desc)
	assert.Equal(t, 1, scheduled[1].Index)
}

func TestMerge_Idempotent(t *testing.T) {
	committed := []model.Placement{{Desc: "a", StartTime: "10:00"}, {Desc: "b", StartTime: "10:00"}}
	scheduled := []model.Placement{{Desc: "c", StartTime: "08:00"}, {Desc: "d", StartTime: "10:00"}}
	first := Merge(committed, scheduled)
	second := Merge(committed, scheduled)
	assert.Equal(t, first, second)
	assert.Equal(t, "c", first[0].Desc)
	assert.Equal(t, "d", first[3].Desc)
}

func TestMerge_MalformedSortsLast(t *testing.T) {
	merged := Merge([]model.Placement{{Desc: "bad", StartTime: "noon"}}, []model.Placement{{Desc: "ok", StartTime: "23:00"}})
	assert.Equal(t, "ok", merged[0].Desc)
	assert.Equal(t, "bad", merged[1].Desc)
}

func TestMerge_NilSnapshot(t *testing.T) {
	merged := Merge(nil, []model.Placement{{Desc: "x", StartTime: "08:00", Index: 5}})
	require.Len(t, merged, 1)
	assert.Equal(t, 0, merged[0].Index)
}

func TestDecode(t *testing.T) {
	vs, err := BuildVariableSpace([]model.Task{task("a", 96, 99, 2), task("b", 286, 291, 3)})
	require.NoError(t, err)
	vs.Tasks[0].Description = "read"
	x := make([]float64, vs.N)
	x[1] = 0.9999
	x[vs.Blocks[1].Start+1] = 1

	out, err := Decode(vs, x)
	require.NoError(t, err)
	assert.Equal(t, "08:05", out[0].StartTime)
	assert.Equal(t, "08:15", out[0].EndTime)
	assert.Equal(t, "read", out[0].Desc)
	// 287 -> 23:55, ending past midnight.
	assert.Equal(t, "23:55", out[1].StartTime)
	assert.Equal(t, "00:10", out[1].EndTime)
}

func TestDecode_Inconsistent(t *testing.T) {
	vs, err := BuildVariableSpace([]model.Task{task("a", 0, 3, 1)})
	require.NoError(t, err)

	_, err = Decode(vs, make([]float64, vs.N))
	assert.Equal(t, KindDecodeInconsistency, KindOf(err))

	_, err = Decode(vs, []float64{1, 0, 1, 0})
	assert.Equal(t, KindDecodeInconsistency, KindOf(err))
}
