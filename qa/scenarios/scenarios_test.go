package scenarios

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestTaskDefDuration(t *testing.T) {
	raw := TaskDef{Desc: "a", Start: "08:00", End: "09:00"}.ToModel("2025-03-01")
	if raw.DurationMinutes != nil {
		t.Fatalf("expected no duration, got %d", *raw.DurationMinutes)
	}
	raw = TaskDef{Desc: "a", Start: "08:00", End: "09:00", Duration: 30}.ToModel("2025-03-01")
	if raw.DurationMinutes == nil || *raw.DurationMinutes != 30 {
		t.Fatalf("unexpected duration %v", raw.DurationMinutes)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
