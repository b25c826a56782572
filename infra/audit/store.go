// Package audit keeps an append-only record of scheduling requests.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/dayplan/core/model"
)

// Record captures one scheduling run of one date and its result.
type Record struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	User      string            `json:"user"`
	Date      string            `json:"date"`
	Request   string            `json:"request"`
	Success   bool              `json:"success"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Message   string            `json:"message,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Solver    string            `json:"solver,omitempty"`
	Tasks     int               `json:"tasks"`
	TotalCost float64           `json:"total_cost"`
	SolveMS   float64           `json:"solve_ms"`
	Scheduled []model.Placement `json:"scheduled,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start time.Time
	End   time.Time
	User  string
	Date  string
	// Limit keeps the most recent records when positive.
	Limit int
}

// Matches reports whether r passes every filter of q except Limit.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.User != "" && r.User != q.User {
		return false
	}
	if q.Date != "" && r.Date != q.Date {
		return false
	}
	return true
}

func (q Query) limit(res []Record) []Record {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Options select and tune the audit backend.
type Options struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open creates the store selected by opts. The "none" backend returns a nil
// store and no error.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "none":
		return nil, nil
	case "jsonl":
		return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown audit backend %s", opts.Backend)
	}
}
