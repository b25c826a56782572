// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - ScheduleCommitted: a date was solved and written to the schedule store
//   - ScheduleRejected: a scheduling request failed
package events
