package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/health"
	"github.com/agentlink/agentlink/internal/system"
	"github.com/agentlink/agentlink/internal/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sys := system.New(cfg)
			defer sys.Stop()

			fmt.Fprintf(os.Stderr, "connecting to %s...\n", cfg.Backend.URL)
			if err := sys.Initialize(ctx); err != nil {
				if errors.Is(err, health.ErrNoPath) {
					printFailureReport(os.Stderr, sys)
					return errors.New("no reachable backend")
				}
				return err
			}
			if sys.State() == system.StateDegraded {
				fmt.Fprintln(os.Stderr, "warning: chat endpoint not verified — messages may fail")
			}

			return tui.Run(ctx, sys)
		},
	}
}

// printFailureReport dumps the aggregated diagnostics when no path works,
// so the user sees per-path errors and a suggestion before the exit.
func printFailureReport(w *os.File, sys *system.System) {
	current := sys.Aggregator().Current()
	if current == nil {
		return
	}
	fmt.Fprintf(w, "✗ %s\n", current.Message)
	for k, v := range current.Details {
		fmt.Fprintf(w, "  %s: %s\n", k, v)
	}
	if current.Suggestion != "" {
		fmt.Fprintf(w, "  hint: %s\n", current.Suggestion)
	}
}
