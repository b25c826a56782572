package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/core/events"
	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	coremon "github.com/kilianp07/dayplan/core/monitoring"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/core/store"
	"github.com/kilianp07/dayplan/infra/audit"
	"github.com/kilianp07/dayplan/infra/classifier"
	"github.com/kilianp07/dayplan/infra/costs"
	"github.com/kilianp07/dayplan/infra/logger"
	"github.com/kilianp07/dayplan/infra/metrics"
	"github.com/kilianp07/dayplan/infra/milp"
	inframon "github.com/kilianp07/dayplan/infra/monitoring"
	"github.com/kilianp07/dayplan/infra/mqtt"
	infrastore "github.com/kilianp07/dayplan/infra/store"
	"github.com/kilianp07/dayplan/internal/eventbus"
)

const defaultFlush = 2 * time.Second

// App owns the Service and the infrastructure behind it.
type App struct {
	Service *Service
	Config  *config.Config

	sink      coremetrics.MetricsSink
	committed *eventbus.TypedBus[events.ScheduleCommitted]
	rejected  *eventbus.TypedBus[events.ScheduleRejected]
	mqtt      *mqtt.PahoClient
	closers   []io.Closer
	log       logger.Logger
}

// New builds an App from cfg. Resources opened before a failure are
// released.
func New(cfg *config.Config) (_ *App, err error) {
	logger.SetDefaultLevel(cfg.Logging.Level)
	log := logger.New("service")
	a := &App{Config: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	var st store.ScheduleStore
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore()
	default:
		sq, err := infrastore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("schedule store: %w", err)
		}
		st = sq
	}
	a.closers = append(a.closers, st)

	provider, err := costs.Registry.Create(cfg.Costs)
	if err != nil {
		return nil, fmt.Errorf("cost provider: %w", err)
	}
	if c, ok := provider.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	solver, err := milp.New(cfg.Planner.Solver)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	cls, err := classifier.New(cfg.Classifier, logger.New("classifier"))
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	auditStore, err := audit.Open(audit.Options{
		Backend:    cfg.Logging.Backend,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	if auditStore != nil {
		a.closers = append(a.closers, auditStore)
	}

	a.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	if cfg.MQTT.Enabled {
		a.mqtt, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
	}

	a.committed = eventbus.NewTyped[events.ScheduleCommitted]()
	a.rejected = eventbus.NewTyped[events.ScheduleRejected]()

	engine := planner.NewEngine(cfg.Planner, provider, solver, logger.New("planner"))
	a.Service = NewService(Deps{
		Engine:         engine,
		Store:          st,
		Classifier:     cls,
		Audit:          auditStore,
		Committed:      a.committed,
		Rejected:       a.rejected,
		Logger:         log,
		Metrics:        a.sink,
		Solver:         cfg.Planner.Solver.Kind,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	return a, nil
}

// Start launches the metrics collector, the MQTT notifier when enabled and
// the Prometheus listener when metrics.prometheus_addr is set. Background
// work stops with ctx; the returned channel is closed once it has.
func (a *App) Start(ctx context.Context) <-chan struct{} {
	waits := []<-chan struct{}{metrics.StartEventCollector(ctx, a.committed, a.rejected, a.sink)}
	if a.mqtt != nil {
		n := mqtt.NewNotifier(a.mqtt, a.Config.MQTT.TopicPrefix)
		waits = append(waits, n.Start(ctx, a.committed, a.rejected))
	}
	if addr := a.Config.Metrics.PrometheusAddr; addr != "" {
		promDone := make(chan struct{})
		go func() {
			defer close(promDone)
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				a.log.Errorf("prom server: %v", err)
			}
		}()
		waits = append(waits, promDone)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, w := range waits {
			<-w
		}
	}()
	return done
}

// Close closes the buses and releases stores and connections.
func (a *App) Close() error {
	if a.committed != nil {
		a.committed.Close()
	}
	if a.rejected != nil {
		a.rejected.Close()
	}
	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	if c, ok := a.sink.(interface{ Close() }); ok {
		c.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	coremon.Flush(defaultFlush)
	return errors.Join(errs...)
}
