package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dayplan/api/schedule"
	"github.com/kilianp07/dayplan/app"
	"github.com/kilianp07/dayplan/config"
	"github.com/kilianp07/dayplan/infra/logger"
	"github.com/kilianp07/dayplan/infra/metrics"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "dayplan",
	Short: "Fatigue-aware task scheduling service",
	RunE:  run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scheduling API (default command)",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadApp() (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	log := logger.New("main")
	defer func() {
		if err := a.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	bgCtx, cancelBg := context.WithCancel(ctx)
	bgDone := a.Start(bgCtx)
	defer func() {
		cancelBg()
		<-bgDone
	}()

	srvCfg := a.Config.Server
	opts := schedule.Options{MaxBodyBytes: srvCfg.MaxBodyBytes, Metrics: metrics.Handler()}
	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           schedule.NewMux(a.Service, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srvCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
