package metrics

import "time"

// OutcomeSuccess is the outcome of a request that produced a schedule.
// Failed requests carry the planner error kind instead.
const OutcomeSuccess = "success"

// ScheduleEvent describes the scheduling run of one date.
type ScheduleEvent struct {
	User           string
	Date           string
	Outcome        string
	Mode           string
	Solver         string
	Tasks          int
	NumVars        int
	NumConstraints int
	TotalCost      float64
	SolveDuration  time.Duration
	Time           time.Time
}

// MetricsSink records scheduling runs for observability purposes.
type MetricsSink interface {
	RecordSchedule(ev ScheduleEvent) error
}

// StoreEvent is one call to the schedule store.
type StoreEvent struct {
	Op      string
	Latency time.Duration
	Failed  bool
	Time    time.Time
}

// StoreRecorder records schedule store calls.
type StoreRecorder interface {
	RecordStoreOperation(ev StoreEvent) error
}

// BusDropRecorder records events dropped by a full subscriber.
type BusDropRecorder interface {
	RecordBusDrops(topic string, total int64) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordSchedule(ScheduleEvent) error    { return nil }
func (NopSink) RecordStoreOperation(StoreEvent) error { return nil }
func (NopSink) RecordBusDrops(string, int64) error    { return nil }
