package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/api"
	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/system"
	"github.com/agentlink/agentlink/internal/ws"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local status dashboard",
		Long: `serve starts a local HTTP server exposing the connection state as a
JSON API, a WebSocket stream of status reports, and Prometheus metrics.
The backend stays monitored while the server runs; edits to the config
file trigger a reconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Dashboard.Port = port
			}

			// The dashboard logs at info by default so startup and
			// reconnects are visible.
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return runDashboard(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "dashboard port (overrides config)")
	return cmd
}

func runDashboard(ctx context.Context, cfg *config.Config) error {
	sys := system.New(cfg)
	defer sys.Stop()

	metrics := api.NewMetrics()
	hub := ws.New()
	go hub.Run(ctx)

	// Every aggregated report fans out to the WebSocket clients.
	unsubscribe := sys.Aggregator().Subscribe(hub.Publish)
	defer unsubscribe()

	// An unreachable backend is not fatal here: the dashboard serves the
	// error state and lets the user restart once the backend is up.
	if err := sys.Initialize(ctx); err != nil {
		slog.Warn("backend not reachable at startup", "err", err)
	}
	wireMetrics(sys, metrics)

	// Config edits reconnect with the new settings. The watcher exits
	// when the file disappears; that only disables hot-reload.
	go func() {
		err := config.Watch(ctx, flagConfig, func(next *config.Config) {
			slog.Info("config changed, reconnecting", "backend", next.Backend.URL)
			if err := sys.Reload(ctx, next); err != nil {
				slog.Warn("reconnect after config change failed", "err", err)
			}
			wireMetrics(sys, metrics)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("config watch stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Dashboard.Port),
		Handler:           api.New(sys, hub, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dashboard listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wireMetrics records the probe outcome and hooks health checks into the
// metric counters. Called after every (re)initialization.
func wireMetrics(sys *system.System, metrics *api.Metrics) {
	metrics.ObserveBattery(sys.Battery())
	if m := sys.Monitor(); m != nil {
		m.Subscribe(metrics.ObserveHealth)
	}
}
