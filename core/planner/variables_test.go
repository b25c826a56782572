package planner

import (
	"errors"
	"testing"

	"github.com/kilianp07/dayplan/core/model"
)

func task(id string, ws, we, d int) model.Task {
	return model.Task{ID: id, Date: "2025-03-01", DurationSlots: d, Window: model.Window{Start: ws, End: we}, Category: "logical"}
}

func TestBuildVariableSpace_Blocks(t *testing.T) {
	vs, err := BuildVariableSpace([]model.Task{task("a", 96, 143, 12), task("b", 96, 143, 18)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// 48 slots: 37 offsets for 12 slots, 31 for 18.
	if vs.N != 68 {
		t.Fatalf("expected 68 vars, got %d", vs.N)
	}
	if vs.Blocks[1].Start != 37 || vs.Blocks[1].End != 68 {
		t.Fatalf("unexpected block %+v", vs.Blocks[1])
	}
	if got := vs.StartSlot(1, 37); got != 96 {
		t.Fatalf("first start of b = %d", got)
	}
	if got := vs.StartSlot(0, 36); got != 132 {
		t.Fatalf("last start of a = %d", got)
	}
	lo, hi := vs.Range()
	if lo != 96 || hi != 143 {
		t.Fatalf("range %d..%d", lo, hi)
	}
}

func TestBuildVariableSpace_ExactFit(t *testing.T) {
	vs, err := BuildVariableSpace([]model.Task{task("a", 10, 21, 12)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if vs.N != 1 {
		t.Fatalf("expected a single candidate, got %d", vs.N)
	}
}

func TestBuildVariableSpace_WindowTooSmall(t *testing.T) {
	_, err := BuildVariableSpace([]model.Task{task("ok", 0, 100, 5), task("big", 10, 20, 12)})
	if !errors.Is(err, ErrWindowTooSmall) {
		t.Fatalf("expected WindowTooSmall, got %v", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.TaskID != "big" {
		t.Fatalf("expected task id big, got %v", err)
	}
}

func TestBuildVariableSpace_ZeroDuration(t *testing.T) {
	_, err := BuildVariableSpace([]model.Task{task("z", 0, 10, 0)})
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
