package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Default window bounds for plan entries that omit them. The end is the
// midnight closing the day, so an entry without bounds spans all 24 hours.
const (
	PlanDayStart = "00:00"
	PlanDayEnd   = "00:00"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return validate
}

// Validate checks struct tags on a boundary payload.
func Validate(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// WindowRequest schedules several tasks inside one shared window [Ts, Te).
type WindowRequest struct {
	User     string   `json:"user,omitempty"`
	TaskDate string   `json:"taskDate" validate:"omitempty,datetime=2006-01-02"`
	Ts       string   `json:"Ts" validate:"required"`
	Te       string   `json:"Te" validate:"required"`
	N        int      `json:"n,omitempty" validate:"gte=0"`
	K        []int    `json:"k" validate:"required,min=1,dive,gt=0"`
	Desc     []string `json:"desc" validate:"required,min=1"`
	Category []string `json:"category,omitempty"`
}

// Check validates tags and the cross-field lengths.
func (r WindowRequest) Check() error {
	if err := Validate(r); err != nil {
		return err
	}
	if len(r.K) != len(r.Desc) {
		return fmt.Errorf("invalid input: %d durations for %d descriptions", len(r.K), len(r.Desc))
	}
	if r.N != 0 && r.N != len(r.K) {
		return fmt.Errorf("invalid input: n=%d does not match %d tasks", r.N, len(r.K))
	}
	if len(r.Category) != 0 && len(r.Category) != len(r.K) {
		return fmt.Errorf("invalid input: %d categories for %d tasks", len(r.Category), len(r.K))
	}
	return nil
}

// RawTasks expands the request into one RawTask per duration for date.
func (r WindowRequest) RawTasks(date string) []RawTask {
	out := make([]RawTask, len(r.K))
	for i, k := range r.K {
		d := k
		out[i] = RawTask{
			Date:            date,
			Start:           r.Ts,
			End:             r.Te,
			DurationMinutes: &d,
			Description:     r.Desc[i],
		}
		if i < len(r.Category) {
			out[i].Category = r.Category[i]
		}
	}
	return out
}

// PlanRequest is a plan of selected itinerary entries, each with its own
// date and window. Field names follow the plan generator's JSON.
type PlanRequest struct {
	User    string      `json:"user,omitempty"`
	Name    string      `json:"計畫名稱"`
	Entries []PlanEntry `json:"已選行程" validate:"required,min=1,dive"`
}

// PlanEntry is one itinerary entry of a PlanRequest.
type PlanEntry struct {
	Event    string `json:"事件"`
	Year     int    `json:"年分" validate:"required,gte=1970"`
	Month    int    `json:"月份" validate:"required,min=1,max=12"`
	Day      int    `json:"日期" validate:"required,min=1,max=31"`
	Start    string `json:"開始時間,omitempty"`
	End      string `json:"結束時間,omitempty"`
	Duration *int   `json:"持續時間,omitempty" validate:"omitempty,gte=0"`
	Category string `json:"多元智慧領域,omitempty"`
}

// Date renders the entry's date as YYYY-MM-DD.
func (e PlanEntry) Date() string { return fmt.Sprintf("%04d-%02d-%02d", e.Year, e.Month, e.Day) }

// RawTasks converts plan entries, filling the default day window.
func (p PlanRequest) RawTasks() []RawTask {
	out := make([]RawTask, len(p.Entries))
	for i, e := range p.Entries {
		start, end := e.Start, e.End
		if strings.TrimSpace(start) == "" {
			start = PlanDayStart
		}
		if strings.TrimSpace(end) == "" {
			end = PlanDayEnd
		}
		out[i] = RawTask{
			Date:            e.Date(),
			Start:           start,
			End:             end,
			DurationMinutes: e.Duration,
			Category:        e.Category,
			Description:     e.Event,
		}
	}
	return out
}
