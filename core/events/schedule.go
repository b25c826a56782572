package events

import (
	"time"

	"github.com/kilianp07/dayplan/core/model"
)

// ScheduleCommitted is published after the merged schedule of a date has
// been written.
type ScheduleCommitted struct {
	User           string            `json:"user"`
	Date           string            `json:"date"`
	Scheduled      []model.Placement `json:"scheduled"`
	Merged         []model.Placement `json:"merged"`
	TotalCost      float64           `json:"total_cost"`
	Mode           string            `json:"mode"`
	Solver         string            `json:"solver,omitempty"`
	NumVars        int               `json:"num_vars"`
	NumConstraints int               `json:"num_constraints"`
	SolveDuration  time.Duration     `json:"solve_duration_ns"`
	At             time.Time         `json:"at"`
}

// ScheduleRejected is published when a request fails. Kind is the planner
// error kind.
type ScheduleRejected struct {
	User    string    `json:"user"`
	Date    string    `json:"date"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Tasks   int       `json:"tasks"`
	At      time.Time `json:"at"`
}
