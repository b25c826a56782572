package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/core/events"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/core/slot"
	"github.com/kilianp07/dayplan/core/store"
	"github.com/kilianp07/dayplan/infra/audit"
	"github.com/kilianp07/dayplan/infra/costs"
	"github.com/kilianp07/dayplan/infra/milp"
	"github.com/kilianp07/dayplan/internal/eventbus"
)

const day1 = "2025-03-01"

type memAudit struct {
	mu   sync.Mutex
	recs []audit.Record
}

func (m *memAudit) Append(_ context.Context, rec audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memAudit) Query(_ context.Context, q audit.Query) ([]audit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Record
	for _, r := range m.recs {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAudit) Close() error { return nil }

type failingStore struct {
	*store.MemoryStore
	readErr  error
	writeErr error
}

func (f *failingStore) ReadCommitted(ctx context.Context, user, date string) (*model.DaySchedule, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.MemoryStore.ReadCommitted(ctx, user, date)
}

func (f *failingStore) WriteCommitted(ctx context.Context, user, date string, tasks []model.Placement) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStore.WriteCommitted(ctx, user, date, tasks)
}

type stubClassifier map[string]string

func (s stubClassifier) Classify(_ context.Context, desc string) (string, error) {
	if c, ok := s[desc]; ok {
		return c, nil
	}
	return "", errors.New("unknown")
}

type storeRecorder struct {
	coremetrics.NopSink
	mu  sync.Mutex
	ops []coremetrics.StoreEvent
}

func (r *storeRecorder) RecordStoreOperation(ev coremetrics.StoreEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ev)
	return nil
}

type fixture struct {
	svc       *Service
	store     store.ScheduleStore
	audit     *memAudit
	committed *eventbus.TypedBus[events.ScheduleCommitted]
	rejected  *eventbus.TypedBus[events.ScheduleRejected]
}

func newFixture(t *testing.T, st store.ScheduleStore, mutate func(*Deps)) *fixture {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore()
	}
	provider := costs.NewStaticProvider(nil, 0.5)
	f := &fixture{
		store:     st,
		audit:     &memAudit{},
		committed: eventbus.NewTyped[events.ScheduleCommitted](),
		rejected:  eventbus.NewTyped[events.ScheduleRejected](),
	}
	d := Deps{
		Engine:    planner.NewEngine(planner.Config{}, provider, milp.NewSearchSolver(milp.Options{}), nil),
		Store:     st,
		Audit:     f.audit,
		Committed: f.committed,
		Rejected:  f.rejected,
		Solver:    "search",
		Now:       func() time.Time { return time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&d)
	}
	f.svc = NewService(d)
	t.Cleanup(func() {
		f.committed.Close()
		f.rejected.Close()
	})
	return f
}

func window(user, date, ts, te string, k []int, desc []string) model.WindowRequest {
	return model.WindowRequest{User: user, TaskDate: date, Ts: ts, Te: te, K: k, Desc: desc}
}

func span(t *testing.T, p model.Placement) (int, int) {
	t.Helper()
	s, err := slot.ParseClock(p.StartTime)
	require.NoError(t, err)
	e, err := slot.ParseClock(p.EndTime)
	require.NoError(t, err)
	return s, s + slot.ClockDistance(s, e)
}

func TestService_SubmitWindowCommits(t *testing.T) {
	f := newFixture(t, nil, nil)
	sub := f.committed.Subscribe()

	res := f.svc.SubmitWindow(context.Background(),
		window("alice", day1, "08:00", "12:00", []int{60, 90}, []string{"read", "write"}))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "alice", res.User)
	require.Len(t, res.Days, 1)
	assert.Equal(t, string(planner.ModePairwise), res.Days[0].Mode)
	require.Len(t, res.Days[0].Scheduled, 2)

	a0, a1 := span(t, res.Days[0].Scheduled[0])
	b0, b1 := span(t, res.Days[0].Scheduled[1])
	assert.True(t, a1 <= b0 || b1 <= a0, "placements overlap")

	day, err := f.store.ReadCommitted(context.Background(), "alice", day1)
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Len(t, day.Tasks, 2)

	select {
	case ev := <-sub:
		assert.Equal(t, "alice", ev.User)
		assert.Equal(t, day1, ev.Date)
		assert.Equal(t, "search", ev.Solver)
		assert.Positive(t, ev.NumVars)
	case <-time.After(time.Second):
		t.Fatal("no committed event")
	}

	recs, err := f.svc.Audit(context.Background(), audit.Query{User: "alice"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Success)
	assert.NotEmpty(t, recs[0].ID)
}

func TestService_SecondRequestAvoidsCommitted(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	first := f.svc.SubmitWindow(ctx, window("bob", day1, "09:00", "10:00", []int{60}, []string{"gym"}))
	require.True(t, first.Success, first.Message)

	second := f.svc.SubmitWindow(ctx, window("bob", day1, "09:00", "11:00", []int{60}, []string{"study"}))
	require.True(t, second.Success, second.Message)
	require.Len(t, second.Days, 1)
	assert.Equal(t, string(planner.ModeCapacity), second.Days[0].Mode)
	assert.Equal(t, "10:00", second.Days[0].Scheduled[0].StartTime)
	assert.Len(t, second.Days[0].Merged, 2)

	day, err := f.svc.Committed(ctx, "bob", day1)
	require.NoError(t, err)
	require.Len(t, day.Tasks, 2)
}

func TestService_InfeasibleWritesNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	sub := f.rejected.Subscribe()

	res := f.svc.SubmitWindow(context.Background(),
		window("carol", day1, "08:00", "09:00", []int{60, 60}, []string{"a", "b"}))
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindInfeasible), res.ErrorKind)

	day, err := f.store.ReadCommitted(context.Background(), "carol", day1)
	require.NoError(t, err)
	assert.Nil(t, day)

	select {
	case ev := <-sub:
		assert.Equal(t, string(planner.KindInfeasible), ev.Kind)
		assert.Equal(t, 2, ev.Tasks)
	case <-time.After(time.Second):
		t.Fatal("no rejected event")
	}
}

func TestService_InvalidWindowRequest(t *testing.T) {
	f := newFixture(t, nil, nil)
	res := f.svc.SubmitWindow(context.Background(),
		window("", day1, "08:00", "12:00", []int{60, 30}, []string{"only one"}))
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindInvalidInput), res.ErrorKind)
	assert.Equal(t, DefaultUser, res.User)
	_, ok := f.svc.Latest()
	assert.False(t, ok)
}

func TestService_BadClockIsInvalidTimeFormat(t *testing.T) {
	f := newFixture(t, nil, nil)
	res := f.svc.SubmitWindow(context.Background(),
		window("dan", day1, "8h", "12:00", []int{60}, []string{"x"}))
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindInvalidTimeFormat), res.ErrorKind)
}

func TestService_DefaultsDateAndUser(t *testing.T) {
	f := newFixture(t, nil, nil)
	res := f.svc.SubmitWindow(context.Background(),
		window("", "", "13:00", "15:00", []int{30}, []string{"walk"}))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, DefaultUser, res.User)
	assert.Equal(t, "2025-03-01", res.Days[0].Date)

	latest, ok := f.svc.Latest()
	require.True(t, ok)
	assert.Equal(t, KindWindow, latest.Kind)
}

func TestService_WriteFailureIsUpstreamUnavailable(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), writeErr: errors.New("disk full")}
	f := newFixture(t, st, nil)

	res := f.svc.SubmitWindow(context.Background(),
		window("erin", day1, "08:00", "10:00", []int{30}, []string{"mail"}))
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindUpstreamUnavailable), res.ErrorKind)
	require.Len(t, res.Days, 1)
	assert.Len(t, res.Days[0].Scheduled, 1)
}

func TestService_ReadFailureIsUpstreamUnavailable(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), readErr: errors.New("locked")}
	f := newFixture(t, st, nil)

	res := f.svc.SubmitWindow(context.Background(),
		window("erin", day1, "08:00", "10:00", []int{30}, []string{"mail"}))
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindUpstreamUnavailable), res.ErrorKind)
	assert.Empty(t, res.Days)
}

func TestService_PlanAllOrNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	dur := 60
	plan := model.PlanRequest{
		User: "fay",
		Name: "week",
		Entries: []model.PlanEntry{
			{Event: "swim", Year: 2025, Month: 3, Day: 1, Start: "08:00", End: "10:00", Duration: &dur},
			{Event: "a", Year: 2025, Month: 3, Day: 2, Start: "08:00", End: "09:00", Duration: &dur},
			{Event: "b", Year: 2025, Month: 3, Day: 2, Start: "08:00", End: "09:00", Duration: &dur},
		},
	}
	res := f.svc.SubmitPlan(context.Background(), plan)
	assert.False(t, res.Success)
	assert.Equal(t, string(planner.KindInfeasible), res.ErrorKind)

	for _, d := range []string{"2025-03-01", "2025-03-02"} {
		day, err := f.store.ReadCommitted(context.Background(), "fay", d)
		require.NoError(t, err)
		assert.Nil(t, day, d)
	}
}

func TestService_PlanMultipleDates(t *testing.T) {
	f := newFixture(t, nil, nil)
	plan := model.PlanRequest{
		User: "gus",
		Entries: []model.PlanEntry{
			{Event: "swim", Year: 2025, Month: 3, Day: 2, Start: "08:00", End: "12:00"},
			{Event: "read", Year: 2025, Month: 3, Day: 1, Start: "08:00", End: "12:00"},
		},
	}
	res := f.svc.SubmitPlan(context.Background(), plan)
	require.True(t, res.Success, res.Message)
	require.Len(t, res.Days, 2)
	assert.Equal(t, "2025-03-02", res.Days[0].Date)
	assert.Equal(t, "2025-03-01", res.Days[1].Date)

	s, e := span(t, res.Days[0].Scheduled[0])
	assert.Equal(t, planner.DefaultDurationMinutes, e-s)

	latest, ok := f.svc.Latest()
	require.True(t, ok)
	assert.Equal(t, KindPlan, latest.Kind)
}

func TestService_ClassifiesMissingCategories(t *testing.T) {
	f := newFixture(t, nil, func(d *Deps) {
		d.Classifier = stubClassifier{"run": "bodily"}
	})
	req := window("hal", day1, "08:00", "12:00", []int{30, 30}, []string{"run", "???"})
	res := f.svc.SubmitWindow(context.Background(), req)
	require.True(t, res.Success, res.Message)

	cats := map[string]string{}
	for _, p := range res.Days[0].Scheduled {
		cats[p.Desc] = p.Category
	}
	assert.Equal(t, "bodily", cats["run"])
	assert.Equal(t, planner.DefaultCategory, cats["???"])
}

func TestService_RecordsStoreLatency(t *testing.T) {
	rec := &storeRecorder{}
	f := newFixture(t, nil, func(d *Deps) { d.Metrics = rec })
	res := f.svc.SubmitWindow(context.Background(),
		window("ivy", day1, "08:00", "10:00", []int{30}, []string{"x"}))
	require.True(t, res.Success, res.Message)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.ops, 2)
	assert.Equal(t, "read", rec.ops[0].Op)
	assert.Equal(t, "write", rec.ops[1].Op)
}

func TestService_ConcurrentRequestsSameDay(t *testing.T) {
	f := newFixture(t, nil, nil)
	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.SubmitWindow(context.Background(),
				window("jo", day1, "08:00", "12:00", []int{60}, []string{string(rune('a' + i))}))
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.True(t, r.Success, r.Message)
	}

	day, err := f.store.ReadCommitted(context.Background(), "jo", day1)
	require.NoError(t, err)
	require.Len(t, day.Tasks, 4)
	for i := range day.Tasks {
		for j := i + 1; j < len(day.Tasks); j++ {
			a0, a1 := span(t, day.Tasks[i])
			b0, b1 := span(t, day.Tasks[j])
			assert.True(t, a1 <= b0 || b1 <= a0, "committed tasks overlap")
		}
	}
}

func TestService_AuditDisabled(t *testing.T) {
	svc := NewService(Deps{Store: store.NewMemoryStore()})
	_, err := svc.Audit(context.Background(), audit.Query{})
	assert.ErrorIs(t, err, ErrAuditDisabled)
}
