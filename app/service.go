// Package app wires the scheduling engine to persistence, classification,
// notifications and observability.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dayplan/core/events"
	"github.com/kilianp07/dayplan/core/logger"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/model"
	coremon "github.com/kilianp07/dayplan/core/monitoring"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/core/store"
	"github.com/kilianp07/dayplan/infra/audit"
	"github.com/kilianp07/dayplan/internal/eventbus"
	"github.com/kilianp07/dayplan/internal/keylock"
)

// DefaultUser owns requests that name no user.
const DefaultUser = "default"

// ErrAuditDisabled is returned by audit queries when no audit store is
// configured.
var ErrAuditDisabled = errors.New("audit log disabled")

// Classifier assigns a category to a task description.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

// Deps are the collaborators of a Service. Engine and Store are required.
type Deps struct {
	Engine     *planner.Engine
	Store      store.ScheduleStore
	Classifier Classifier
	Audit      audit.Store
	Committed  *eventbus.TypedBus[events.ScheduleCommitted]
	Rejected   *eventbus.TypedBus[events.ScheduleRejected]
	Logger     logger.Logger
	// Metrics receives store call latencies when it implements
	// metrics.StoreRecorder.
	Metrics coremetrics.MetricsSink
	// Solver names the solver for events and audit records.
	Solver string
	// RequestTimeout bounds each request when positive.
	RequestTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service schedules tasks for users. Requests touching the same (user, date)
// are serialized; others run concurrently.
type Service struct {
	engine     *planner.Engine
	store      store.ScheduleStore
	classifier Classifier
	audit      audit.Store
	committed  *eventbus.TypedBus[events.ScheduleCommitted]
	rejected   *eventbus.TypedBus[events.ScheduleRejected]
	log        logger.Logger
	storeRec   coremetrics.StoreRecorder
	solver     string
	timeout    time.Duration
	now        func() time.Time
	locks      *keylock.Locker

	mu     sync.RWMutex
	latest *LatestRequest
}

// NewService builds a Service from d.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logger.NopLogger{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	rec, _ := d.Metrics.(coremetrics.StoreRecorder)
	return &Service{
		engine:     d.Engine,
		store:      d.Store,
		classifier: d.Classifier,
		audit:      d.Audit,
		committed:  d.Committed,
		rejected:   d.Rejected,
		log:        d.Logger,
		storeRec:   rec,
		solver:     d.Solver,
		timeout:    d.RequestTimeout,
		now:        d.Now,
		locks:      keylock.New(),
	}
}

// SubmitWindow schedules the tasks of a shared-window request. The task date
// defaults to today.
func (s *Service) SubmitWindow(ctx context.Context, req model.WindowRequest) Result {
	if err := req.Check(); err != nil {
		return s.reject(ctx, req.User, nil, &planner.Error{Kind: planner.KindInvalidInput, Message: err.Error()})
	}
	date := strings.TrimSpace(req.TaskDate)
	if date == "" {
		date = s.now().Format(model.DateLayout)
	}
	s.remember(KindWindow, req)
	return s.Schedule(ctx, req.User, req.RawTasks(date), false)
}

// SubmitPlan schedules every entry of a plan. Each date is solved on its own
// and nothing is written unless every date solves.
func (s *Service) SubmitPlan(ctx context.Context, req model.PlanRequest) Result {
	if err := model.Validate(req); err != nil {
		return s.reject(ctx, req.User, nil, &planner.Error{Kind: planner.KindInvalidInput, Message: err.Error()})
	}
	s.remember(KindPlan, req)
	return s.Schedule(ctx, req.User, req.RawTasks(), true)
}

// Latest returns the last accepted request.
func (s *Service) Latest() (LatestRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return LatestRequest{}, false
	}
	return *s.latest, true
}

func (s *Service) remember(kind string, payload any) {
	s.mu.Lock()
	s.latest = &LatestRequest{Kind: kind, ReceivedAt: s.now(), Payload: payload}
	s.mu.Unlock()
}

type dayGroup struct {
	date  string
	tasks []model.RawTask
	out   *planner.Outcome
	took  time.Duration
}

// Schedule places tasks for user. Tasks are grouped by date; the request
// succeeds only when every date solves, and schedules are written only then.
func (s *Service) Schedule(ctx context.Context, user string, tasks []model.RawTask, durationOptional bool) Result {
	user = strings.TrimSpace(user)
	if user == "" {
		user = DefaultUser
	}
	if len(tasks) == 0 {
		return s.reject(ctx, user, nil, &planner.Error{Kind: planner.KindInvalidInput, Message: "no tasks to schedule"})
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tasks = s.classify(ctx, tasks)
	groups := groupByDate(tasks)

	unlock, err := s.lockDates(ctx, user, groups)
	if err != nil {
		return s.reject(ctx, user, groups, &planner.Error{Kind: planner.KindInfeasible, Message: "request canceled while waiting", Err: err})
	}
	defer unlock()

	for _, g := range groups {
		if err := s.solve(ctx, user, g, durationOptional); err != nil {
			return s.reject(ctx, user, groups, err)
		}
	}

	res := Result{Success: true, User: user, Days: make([]DayResult, 0, len(groups))}
	for _, g := range groups {
		res.Days = append(res.Days, dayResult(g))
	}
	for _, g := range groups {
		if err := s.timedWrite(ctx, user, g.date, g.out.Merged); err != nil {
			perr := &planner.Error{Kind: planner.KindUpstreamUnavailable, Message: "write committed schedule for " + g.date, Err: err}
			failed := s.reject(ctx, user, groups, perr)
			failed.Days = res.Days
			return failed
		}
	}
	for _, g := range groups {
		s.commit(ctx, user, g)
	}
	res.Message = fmt.Sprintf("scheduled %d task(s) on %d day(s)", len(tasks), len(groups))
	return res
}

func (s *Service) solve(ctx context.Context, user string, g *dayGroup, durationOptional bool) error {
	day, err := s.timedRead(ctx, user, g.date)
	if err != nil {
		return &planner.Error{Kind: planner.KindUpstreamUnavailable, Message: "read committed schedule for " + g.date, Err: err}
	}
	var snapshot []model.Placement
	if day != nil {
		snapshot = day.Tasks
		if snapshot == nil {
			snapshot = []model.Placement{}
		}
	}
	start := time.Now()
	out, err := s.engine.Schedule(ctx, planner.Request{
		Date:             g.date,
		Tasks:            g.tasks,
		Committed:        snapshot,
		DurationOptional: durationOptional,
	})
	g.took = time.Since(start)
	if err != nil {
		return err
	}
	g.out = out
	s.log.Infof("scheduled %d task(s) for %s on %s in %s mode, cost %.2f",
		len(out.Scheduled), user, g.date, out.Mode, out.TotalCost)
	return nil
}

func (s *Service) commit(ctx context.Context, user string, g *dayGroup) {
	at := s.now()
	if s.committed != nil {
		s.committed.Publish(events.ScheduleCommitted{
			User:           user,
			Date:           g.date,
			Scheduled:      g.out.Scheduled,
			Merged:         g.out.Merged,
			TotalCost:      g.out.TotalCost,
			Mode:           string(g.out.Mode),
			Solver:         s.solver,
			NumVars:        g.out.NumVars,
			NumConstraints: g.out.NumConstraints,
			SolveDuration:  g.took,
			At:             at,
		})
	}
	s.record(ctx, audit.Record{
		Timestamp: at,
		User:      user,
		Date:      g.date,
		Success:   true,
		Mode:      string(g.out.Mode),
		Solver:    s.solver,
		Tasks:     len(g.tasks),
		TotalCost: g.out.TotalCost,
		SolveMS:   float64(g.took) / float64(time.Millisecond),
		Scheduled: g.out.Scheduled,
	})
}

// reject reports err for every date of groups and converts it to a Result.
func (s *Service) reject(ctx context.Context, user string, groups []*dayGroup, err error) Result {
	if user == "" {
		user = DefaultUser
	}
	kind := planner.KindOf(err)
	if kind == "" {
		kind = planner.KindUpstreamUnavailable
	}
	res := Result{Success: false, User: user, ErrorKind: string(kind), Message: err.Error()}
	var pe *planner.Error
	if errors.As(err, &pe) {
		res.TaskID = pe.TaskID
	}

	dates := []*dayGroup{{}}
	if len(groups) > 0 {
		dates = groups
	}
	at := s.now()
	for _, g := range dates {
		tags := map[string]string{"user": user, "date": g.date, "kind": string(kind)}
		switch kind {
		case planner.KindDecodeInconsistency:
			coremon.CaptureException(err, tags)
		case planner.KindUpstreamUnavailable:
			coremon.CaptureException(err, tags)
		}
		if s.rejected != nil {
			s.rejected.Publish(events.ScheduleRejected{
				User:    user,
				Date:    g.date,
				Kind:    string(kind),
				Message: res.Message,
				Tasks:   len(g.tasks),
				At:      at,
			})
		}
		s.record(ctx, audit.Record{
			Timestamp: at,
			User:      user,
			Date:      g.date,
			ErrorKind: string(kind),
			Message:   res.Message,
			Solver:    s.solver,
			Tasks:     len(g.tasks),
		})
	}
	s.log.Warnf("schedule rejected for %s: %s", user, res.Message)
	return res
}

func (s *Service) record(ctx context.Context, rec audit.Record) {
	if s.audit == nil {
		return
	}
	rec.ID = uuid.NewString()
	// The audit trail outlives the request deadline.
	if err := s.audit.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Errorf("audit append: %v", err)
	}
}

// classify fills missing categories. Classifier failures leave the category
// empty so the engine default applies.
func (s *Service) classify(ctx context.Context, tasks []model.RawTask) []model.RawTask {
	if s.classifier == nil {
		return tasks
	}
	out := make([]model.RawTask, len(tasks))
	copy(out, tasks)
	for i := range out {
		if strings.TrimSpace(out[i].Category) != "" {
			continue
		}
		cat, err := s.classifier.Classify(ctx, out[i].Description)
		if err != nil {
			s.log.Warnf("classify %q: %v", out[i].Description, err)
			continue
		}
		out[i].Category = cat
	}
	return out
}

// lockDates takes the (user, date) locks of every group in sorted order.
func (s *Service) lockDates(ctx context.Context, user string, groups []*dayGroup) (func(), error) {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = user + "|" + g.date
	}
	sort.Strings(keys)
	var held []func()
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range keys {
		release, err := s.locks.Lock(ctx, k)
		if err != nil {
			unlock()
			return nil, err
		}
		held = append(held, release)
	}
	return unlock, nil
}

func groupByDate(tasks []model.RawTask) []*dayGroup {
	var groups []*dayGroup
	index := map[string]*dayGroup{}
	for _, t := range tasks {
		date := strings.TrimSpace(t.Date)
		g, ok := index[date]
		if !ok {
			g = &dayGroup{date: date}
			index[date] = g
			groups = append(groups, g)
		}
		g.tasks = append(g.tasks, t)
	}
	return groups
}

func dayResult(g *dayGroup) DayResult {
	return DayResult{
		Date:      g.date,
		Scheduled: g.out.Scheduled,
		Merged:    g.out.Merged,
		TotalCost: g.out.TotalCost,
		Mode:      string(g.out.Mode),
	}
}
