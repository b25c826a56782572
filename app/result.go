package app

import (
	"time"

	"github.com/kilianp07/dayplan/core/model"
)

// Result is the outcome of a scheduling request as seen by callers. Failed
// requests carry the planner error kind. Days is filled whenever schedules
// were computed, including when persisting them failed.
type Result struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	ErrorKind string      `json:"error_kind,omitempty"`
	TaskID    string      `json:"task_id,omitempty"`
	User      string      `json:"user,omitempty"`
	Days      []DayResult `json:"days,omitempty"`
}

// DayResult is the schedule computed for one date.
type DayResult struct {
	Date      string            `json:"date"`
	Scheduled []model.Placement `json:"scheduled"`
	Merged    []model.Placement `json:"merged"`
	TotalCost float64           `json:"total_cost"`
	Mode      string            `json:"mode"`
}

// LatestRequest is the last request the service accepted.
type LatestRequest struct {
	Kind       string    `json:"kind"`
	ReceivedAt time.Time `json:"received_at"`
	Payload    any       `json:"payload"`
}

// Request kinds.
const (
	KindWindow = "window"
	KindPlan   = "plan"
	KindTasks  = "tasks"
)
