// Package store implements core/store.ScheduleStore on SQLite.
package store
