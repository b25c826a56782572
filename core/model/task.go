package model

import (
	"fmt"
)

// DateLayout is the boundary encoding of calendar dates.
const DateLayout = "2006-01-02"

// RawTask is a task descriptor as received from callers, before it is mapped
// onto the slot grid. Start and End bound the window in which the task may be
// placed; DurationMinutes is optional.
type RawTask struct {
	ID              string `json:"id,omitempty"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Start           string `json:"start_time" validate:"required"`
	End             string `json:"end_time" validate:"required"`
	DurationMinutes *int   `json:"duration_minutes,omitempty" validate:"omitempty,gte=0"`
	Category        string `json:"category,omitempty"`
	Description     string `json:"description"`
}

// Window is an inclusive range of slots. End may exceed the daily grid when
// the window spans midnight.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of slots in the window.
func (w Window) Len() int { return w.End - w.Start + 1 }

// Task is a normalized task ready to be scheduled.
type Task struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	DurationSlots int    `json:"duration_slots"`
	Window        Window `json:"window"`
	Category      string `json:"category"`
	Description   string `json:"description"`
}

// Placement is a task placed on a day, either committed earlier or produced by
// a scheduling run.
type Placement struct {
	Index     int    `json:"index"`
	Date      string `json:"date,omitempty"`
	Desc      string `json:"desc"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Category  string `json:"intelligence,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

// Key identifies a placement for idempotent writes.
func (p Placement) Key() string { return fmt.Sprintf("%s-%s", p.Desc, p.StartTime) }

// DaySchedule is the committed schedule of one user for one date.
type DaySchedule struct {
	User  string      `json:"user"`
	Date  string      `json:"date"`
	Tasks []Placement `json:"tasks"`
}
