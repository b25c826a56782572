package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dayplan/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	requests *prometheus.CounterVec
	solve    *prometheus.HistogramVec
	tasks    *prometheus.CounterVec
	cost     *prometheus.HistogramVec
	problem  *prometheus.HistogramVec
	store    *prometheus.HistogramVec
	busDrops *prometheus.GaugeVec
}

// NewPromSink registers scheduling metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dayplan_schedule_requests_total",
		Help: "Scheduling runs per date by outcome and constraint mode",
	}, []string{"outcome", "mode"})
	solve := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dayplan_solve_duration_seconds",
		Help:    "Wall time of the 0/1 solve",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
	}, []string{"solver", "mode"})
	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dayplan_tasks_scheduled_total",
		Help: "Tasks placed by successful runs",
	}, []string{"mode"})
	cost := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dayplan_schedule_total_cost",
		Help:    "Objective value of successful runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"mode"})
	problem := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dayplan_problem_size",
		Help:    "Decision variables and constraint rows per run",
		Buckets: prometheus.ExponentialBuckets(8, 4, 8),
	}, []string{"dimension"})
	store := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dayplan_store_operation_seconds",
		Help:    "Latency of schedule store calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "failed"})
	busDrops := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dayplan_event_bus_dropped",
		Help: "Events dropped because a subscriber was full",
	}, []string{"topic"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if solve, err = register(reg, solve); err != nil {
		return nil, err
	}
	if tasks, err = register(reg, tasks); err != nil {
		return nil, err
	}
	if cost, err = register(reg, cost); err != nil {
		return nil, err
	}
	if problem, err = register(reg, problem); err != nil {
		return nil, err
	}
	if store, err = register(reg, store); err != nil {
		return nil, err
	}
	if busDrops, err = register(reg, busDrops); err != nil {
		return nil, err
	}

	return &PromSink{
		requests: requests,
		solve:    solve,
		tasks:    tasks,
		cost:     cost,
		problem:  problem,
		store:    store,
		busDrops: busDrops,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSchedule counts the run and, for successful runs, observes solve
// time, problem size and cost.
func (s *PromSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	mode := ev.Mode
	if mode == "" {
		mode = "none"
	}
	s.requests.WithLabelValues(ev.Outcome, mode).Inc()
	if ev.Outcome != coremetrics.OutcomeSuccess {
		return nil
	}
	s.solve.WithLabelValues(ev.Solver, mode).Observe(ev.SolveDuration.Seconds())
	s.tasks.WithLabelValues(mode).Add(float64(ev.Tasks))
	s.cost.WithLabelValues(mode).Observe(ev.TotalCost)
	s.problem.WithLabelValues("vars").Observe(float64(ev.NumVars))
	s.problem.WithLabelValues("constraints").Observe(float64(ev.NumConstraints))
	return nil
}

// RecordStoreOperation observes the latency of a store call.
func (s *PromSink) RecordStoreOperation(ev coremetrics.StoreEvent) error {
	s.store.WithLabelValues(ev.Op, strconv.FormatBool(ev.Failed)).Observe(ev.Latency.Seconds())
	return nil
}

// RecordBusDrops sets the drop gauge of topic.
func (s *PromSink) RecordBusDrops(topic string, total int64) error {
	s.busDrops.WithLabelValues(topic).Set(float64(total))
	return nil
}
