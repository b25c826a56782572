package app

import (
	"context"
	"strings"
	"time"

	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/infra/audit"
)

// Committed returns the committed schedule of user on date, or nil when
// none exists.
func (s *Service) Committed(ctx context.Context, user, date string) (*model.DaySchedule, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		user = DefaultUser
	}
	return s.timedRead(ctx, user, date)
}

// Audit returns the audit records matching q.
func (s *Service) Audit(ctx context.Context, q audit.Query) ([]audit.Record, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	return s.audit.Query(ctx, q)
}

func (s *Service) timedRead(ctx context.Context, user, date string) (*model.DaySchedule, error) {
	start := time.Now()
	day, err := s.store.ReadCommitted(ctx, user, date)
	s.observeStore("read", start, err)
	return day, err
}

func (s *Service) timedWrite(ctx context.Context, user, date string, tasks []model.Placement) error {
	start := time.Now()
	err := s.store.WriteCommitted(ctx, user, date, tasks)
	s.observeStore("write", start, err)
	return err
}

func (s *Service) observeStore(op string, start time.Time, err error) {
	if s.storeRec == nil {
		return
	}
	ev := coremetrics.StoreEvent{Op: op, Latency: time.Since(start), Failed: err != nil, Time: s.now()}
	if rerr := s.storeRec.RecordStoreOperation(ev); rerr != nil {
		s.log.Warnf("record store metric: %v", rerr)
	}
}
