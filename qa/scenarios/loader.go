// Package scenarios replays YAML scheduling scenarios against the service.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/infra/costs"
)

type TaskDef struct {
	Desc     string `yaml:"desc"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Duration int    `yaml:"duration,omitempty"`
	Category string `yaml:"category,omitempty"`
}

func (d TaskDef) ToModel(date string) model.RawTask {
	t := model.RawTask{
		Date:        date,
		Start:       d.Start,
		End:         d.End,
		Category:    d.Category,
		Description: d.Desc,
	}
	if d.Duration > 0 {
		dur := d.Duration
		t.DurationMinutes = &dur
	}
	return t
}

// SeedDef is a committed schedule written before the first step.
type SeedDef struct {
	User  string            `yaml:"user"`
	Date  string            `yaml:"date"`
	Tasks []model.Placement `yaml:"tasks"`
}

type Expected struct {
	Success bool   `yaml:"success"`
	Kind    string `yaml:"kind,omitempty"`
	Mode    string `yaml:"mode,omitempty"`
	// Starts maps task descriptions to their expected start time.
	Starts map[string]string `yaml:"starts,omitempty"`
	// Committed is the number of committed tasks of the step's date after
	// the step ran.
	Committed int `yaml:"committed"`
}

type StepDef struct {
	Name   string    `yaml:"name"`
	User   string    `yaml:"user,omitempty"`
	Date   string    `yaml:"date"`
	Tasks  []TaskDef `yaml:"tasks"`
	Expect Expected  `yaml:"expect"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Solver      string          `yaml:"solver,omitempty"`
	Profiles    []costs.Profile `yaml:"profiles,omitempty"`
	Seed        []SeedDef       `yaml:"seed,omitempty"`
	Steps       []StepDef       `yaml:"steps"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
