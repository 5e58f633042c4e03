// Command fleetmon is the fleet-monitoring agent daemon: it polls the
// OLT fleet on a schedule and serves the control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nanoncore/nano-fleetmon/api"
	"github.com/nanoncore/nano-fleetmon/config"
	"github.com/nanoncore/nano-fleetmon/metrics"
	"github.com/nanoncore/nano-fleetmon/notify"
	"github.com/nanoncore/nano-fleetmon/poller"
	"github.com/nanoncore/nano-fleetmon/reconcile"
	"github.com/nanoncore/nano-fleetmon/store"
)

func main() {
	configPath := flag.String("config", "fleetmon.yml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("agent exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	st, err := store.Open(cfg.DSN)
	if err != nil {
		return err
	}

	settings := store.NewSettingsProvider(st, time.Duration(cfg.Poll.SettingsTTLSec)*time.Second)
	fanout := notify.NewFanout(log, notify.NewLogSink(log.Named("notify")))
	m := metrics.New(prometheus.DefaultRegisterer)

	reconciler := reconcile.New(st, fanout, log.Named("reconcile"))
	orch := poller.NewOrchestrator(st, settings, reconciler, m, log.Named("poll"))
	fleet := poller.NewFleet(orch, st, log.Named("fleet"), cfg.Poll.Workers)

	if err := fleet.Start(cfg.Poll.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Poll.Schedule, err)
	}
	defer fleet.Stop()

	server := api.NewServer(st, orch, fleet, log.Named("api"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Listen)
	}()
	log.Info("agent started",
		zap.String("listen", cfg.Listen),
		zap.String("schedule", cfg.Poll.Schedule),
		zap.Int("workers", cfg.Poll.Workers))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Log.Level); err != nil && cfg.Log.Level != "" {
		return nil, fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
