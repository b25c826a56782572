package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/dayplan/app"
	"github.com/kilianp07/dayplan/core/events"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/core/store"
	"github.com/kilianp07/dayplan/infra/costs"
	"github.com/kilianp07/dayplan/infra/logger"
	"github.com/kilianp07/dayplan/infra/metrics"
	"github.com/kilianp07/dayplan/infra/milp"
	"github.com/kilianp07/dayplan/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	cfg := planner.Config{Solver: planner.SolverConfig{Kind: sc.Solver}}
	cfg.SetDefaults()
	solver, err := milp.New(cfg.Solver)
	if err != nil {
		t.Fatalf("solver: %v", err)
	}

	st := store.NewMemoryStore()
	ctx := context.Background()
	for _, seed := range sc.Seed {
		if err := st.WriteCommitted(ctx, seed.User, seed.Date, seed.Tasks); err != nil {
			t.Fatalf("seed %s/%s: %v", seed.User, seed.Date, err)
		}
	}

	committed := eventbus.NewTyped[events.ScheduleCommitted]()
	rejected := eventbus.NewTyped[events.ScheduleRejected]()
	runCtx, cancel := context.WithCancel(ctx)
	done := metrics.StartEventCollector(runCtx, committed, rejected, sink)
	defer func() {
		cancel()
		<-done
		committed.Close()
		rejected.Close()
	}()

	svc := app.NewService(app.Deps{
		Engine:    planner.NewEngine(cfg, costs.NewStaticProvider(sc.Profiles, 0), solver, logger.NopLogger{}),
		Store:     st,
		Committed: committed,
		Rejected:  rejected,
		Logger:    logger.NopLogger{},
		Metrics:   sink,
		Solver:    cfg.Solver.Kind,
	})

	for _, step := range sc.Steps {
		tasks := make([]model.RawTask, len(step.Tasks))
		for i, td := range step.Tasks {
			tasks[i] = td.ToModel(step.Date)
		}
		res := svc.Schedule(ctx, step.User, tasks, false)
		checkStep(t, sc.Name, step, res)

		day, err := st.ReadCommitted(ctx, userOf(step), step.Date)
		if err != nil {
			t.Fatalf("%s/%s: read: %v", sc.Name, step.Name, err)
		}
		n := 0
		if day != nil {
			n = len(day.Tasks)
		}
		if n != step.Expect.Committed {
			t.Errorf("%s/%s: expected %d committed tasks, got %d", sc.Name, step.Name, step.Expect.Committed, n)
		}
	}

	got, err := testutil.GatherAndCount(reg, "dayplan_store_operation_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got == 0 {
		t.Errorf("scenario %s recorded no store operations", sc.Name)
	}
}

func checkStep(t *testing.T, scenario string, step StepDef, res app.Result) {
	t.Helper()
	if res.Success != step.Expect.Success {
		t.Fatalf("%s/%s: expected success=%v, got %v (%s)", scenario, step.Name, step.Expect.Success, res.Success, res.Message)
	}
	if step.Expect.Kind != "" && res.ErrorKind != step.Expect.Kind {
		t.Errorf("%s/%s: expected kind %s, got %s", scenario, step.Name, step.Expect.Kind, res.ErrorKind)
	}
	if !res.Success {
		return
	}
	if len(res.Days) != 1 {
		t.Fatalf("%s/%s: expected one day, got %d", scenario, step.Name, len(res.Days))
	}
	d := res.Days[0]
	if step.Expect.Mode != "" && d.Mode != step.Expect.Mode {
		t.Errorf("%s/%s: expected mode %s, got %s", scenario, step.Name, step.Expect.Mode, d.Mode)
	}
	starts := map[string]string{}
	for _, p := range d.Scheduled {
		starts[p.Desc] = p.StartTime
	}
	for desc, want := range step.Expect.Starts {
		if got := starts[desc]; got != want {
			t.Errorf("%s/%s: %s starts at %q, want %q", scenario, step.Name, desc, got, want)
		}
	}
}

func userOf(step StepDef) string {
	if step.User == "" {
		return app.DefaultUser
	}
	return step.User
}
