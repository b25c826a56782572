package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/dayplan/core/events"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/internal/eventbus"
)

// Topic names used for drop accounting.
const (
	TopicCommitted = "schedule.committed"
	TopicRejected  = "schedule.rejected"
)

// StartEventCollector subscribes to the schedule buses and records a
// ScheduleEvent for every committed or rejected run. Either bus may be nil.
// It stops when the context is canceled or both buses are closed. The
// returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context,
	committed *eventbus.TypedBus[events.ScheduleCommitted],
	rejected *eventbus.TypedBus[events.ScheduleRejected],
	sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil || (committed == nil && rejected == nil) {
		close(done)
		return done
	}
	var okSub <-chan events.ScheduleCommitted
	var failSub <-chan events.ScheduleRejected
	if committed != nil {
		okSub = committed.Subscribe()
	}
	if rejected != nil {
		failSub = rejected.Subscribe()
	}
	drops, _ := sink.(coremetrics.BusDropRecorder)
	go func() {
		defer close(done)
		defer func() {
			if committed != nil {
				committed.Unsubscribe(okSub)
			}
			if rejected != nil {
				rejected.Unsubscribe(failSub)
			}
		}()
		for okSub != nil || failSub != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-okSub:
				if !ok {
					okSub = nil
					continue
				}
				_ = sink.RecordSchedule(FromCommitted(ev))
				if drops != nil {
					_ = drops.RecordBusDrops(TopicCommitted, committed.Dropped())
				}
			case ev, ok := <-failSub:
				if !ok {
					failSub = nil
					continue
				}
				_ = sink.RecordSchedule(FromRejected(ev))
				if drops != nil {
					_ = drops.RecordBusDrops(TopicRejected, rejected.Dropped())
				}
			}
		}
	}()
	return done
}

// FromCommitted converts a committed run into a metrics event.
func FromCommitted(ev events.ScheduleCommitted) coremetrics.ScheduleEvent {
	return coremetrics.ScheduleEvent{
		User:           ev.User,
		Date:           ev.Date,
		Outcome:        coremetrics.OutcomeSuccess,
		Mode:           ev.Mode,
		Solver:         ev.Solver,
		Tasks:          len(ev.Scheduled),
		NumVars:        ev.NumVars,
		NumConstraints: ev.NumConstraints,
		TotalCost:      ev.TotalCost,
		SolveDuration:  ev.SolveDuration,
		Time:           stamp(ev.At),
	}
}

// FromRejected converts a failed run into a metrics event.
func FromRejected(ev events.ScheduleRejected) coremetrics.ScheduleEvent {
	return coremetrics.ScheduleEvent{
		User:    ev.User,
		Date:    ev.Date,
		Outcome: ev.Kind,
		Tasks:   ev.Tasks,
		Time:    stamp(ev.At),
	}
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
