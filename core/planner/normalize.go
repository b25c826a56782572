package planner

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dayplan/core/logger"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/slot"
)

// NormalizeOptions describe the caller contract for raw tasks.
type NormalizeOptions struct {
	// DurationOptional selects the default duration for tasks that omit one
	// instead of the clock distance between their window bounds.
	DurationOptional bool
	// DefaultDurationMinutes applies when DurationOptional is set.
	DefaultDurationMinutes int
	// DefaultCategory is used for tasks without a category.
	DefaultCategory string
}

// Normalizer maps raw tasks onto the slot grid.
type Normalizer struct {
	opts NormalizeOptions
	log  logger.Logger
}

// NewNormalizer returns a Normalizer with defaults applied to opts.
func NewNormalizer(opts NormalizeOptions, log logger.Logger) *Normalizer {
	if opts.DefaultDurationMinutes <= 0 {
		opts.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = DefaultCategory
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Normalizer{opts: opts, log: log}
}

// Normalize converts every raw task. The first failure aborts the batch.
func (n *Normalizer) Normalize(raw []model.RawTask) ([]model.Task, error) {
	if len(raw) == 0 {
		return nil, newError(KindInvalidInput, "", "no tasks to schedule")
	}
	out := make([]model.Task, 0, len(raw))
	for i, r := range raw {
		t, err := n.normalizeOne(r)
		if err != nil {
			var pe *Error
			if errors.As(err, &pe) && pe.TaskID == "" {
				pe.TaskID = taskLabel(r, i)
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (n *Normalizer) normalizeOne(r model.RawTask) (model.Task, error) {
	if _, err := time.Parse(model.DateLayout, strings.TrimSpace(r.Date)); err != nil {
		return model.Task{}, newError(KindInvalidInput, r.ID, "date %q is not YYYY-MM-DD", r.Date)
	}
	start, err := slot.ParseClock(r.Start)
	if err != nil {
		return model.Task{}, &Error{Kind: KindInvalidTimeFormat, TaskID: r.ID, Message: "start time", Err: err}
	}
	end, err := slot.ParseClock(r.End)
	if err != nil {
		return model.Task{}, &Error{Kind: KindInvalidTimeFormat, TaskID: r.ID, Message: "end time", Err: err}
	}
	span := slot.ClockDistance(start, end)
	if r.DurationMinutes != nil && *r.DurationMinutes < 0 {
		return model.Task{}, newError(KindInvalidInput, r.ID, "duration %d minutes is negative", *r.DurationMinutes)
	}

	minutes := span
	switch {
	case r.DurationMinutes != nil && *r.DurationMinutes > 0:
		minutes = *r.DurationMinutes
		if minutes != span {
			n.log.Debugw("caller duration differs from window span", map[string]any{
				"task":     r.Description,
				"duration": minutes,
				"span":     span,
			})
		}
	case n.opts.DurationOptional:
		minutes = n.opts.DefaultDurationMinutes
	}

	// Bounds are rounded inwards so placements never leave the window: the
	// first slot starting at or after the start time, and the last slot
	// ending at or before the end time.
	ws := slot.CeilSlots(start)
	we := slot.FromMinutes(start+span) - 1

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	category := r.Category
	if strings.TrimSpace(category) == "" {
		category = n.opts.DefaultCategory
	}
	return model.Task{
		ID:            id,
		Date:          strings.TrimSpace(r.Date),
		DurationSlots: slot.CeilSlots(minutes),
		Window:        model.Window{Start: ws, End: we},
		Category:      CanonicalCategory(category),
		Description:   r.Description,
	}, nil
}

func taskLabel(r model.RawTask, i int) string {
	if r.ID != "" {
		return r.ID
	}
	if r.Description != "" {
		return r.Description
	}
	return "#" + strconv.Itoa(i)
}
