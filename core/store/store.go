// Package store defines persistence of committed day schedules.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kilianp07/dayplan/core/model"
)

// ScheduleStore persists the committed schedule of each (user, date).
//
// ReadCommitted returns nil and no error when the date has no schedule yet.
// WriteCommitted upserts placements by their (description, start time) key:
// writing the same placements twice leaves one copy. Placements already
// stored under other keys are kept.
type ScheduleStore interface {
	ReadCommitted(ctx context.Context, user, date string) (*model.DaySchedule, error)
	WriteCommitted(ctx context.Context, user, date string, tasks []model.Placement) error
	Close() error
}

// SortPlacements orders placements by index, then start time.
func SortPlacements(p []model.Placement) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Index != p[j].Index {
			return p[i].Index < p[j].Index
		}
		return p[i].StartTime < p[j].StartTime
	})
}

type dayKey struct{ user, date string }

// MemoryStore keeps schedules in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[dayKey]map[string]model.Placement
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[dayKey]map[string]model.Placement{}}
}

func (s *MemoryStore) ReadCommitted(_ context.Context, user, date string) (*model.DaySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day, ok := s.data[dayKey{user, date}]
	if !ok {
		return nil, nil
	}
	tasks := make([]model.Placement, 0, len(day))
	for _, p := range day {
		tasks = append(tasks, p)
	}
	SortPlacements(tasks)
	return &model.DaySchedule{User: user, Date: date, Tasks: tasks}, nil
}

func (s *MemoryStore) WriteCommitted(_ context.Context, user, date string, tasks []model.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dayKey{user, date}
	day, ok := s.data[k]
	if !ok {
		day = make(map[string]model.Placement, len(tasks))
		s.data[k] = day
	}
	for _, p := range tasks {
		p.Date = date
		day[p.Key()] = p
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
