package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/config"
)

var (
	flagConfig     string
	flagBackendURL string
	flagProxyURL   string
	flagVerbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agentlink",
		Short: "Connectivity-aware client for an AI chat backend",
		Long: `agentlink probes the network paths to an AI chat backend (direct,
proxy, CORS preflight), picks the best one, keeps a health monitor running,
and relays chat messages over the verified path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flagVerbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&flagBackendURL, "backend-url", "", "backend base URL (overrides config)")
	root.PersistentFlags().StringVar(&flagProxyURL, "proxy-url", "", "proxy origin (overrides config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newChatCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newServeCmd())
	return root
}

// loadConfig resolves the effective configuration: the config file when it
// exists, built-in defaults otherwise, with flag overrides applied last.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(flagConfig); err == nil {
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else {
		return nil, fmt.Errorf("config: stat %s: %w", flagConfig, err)
	}

	if flagBackendURL != "" {
		cfg.Backend.URL = flagBackendURL
	}
	if flagProxyURL != "" {
		cfg.Backend.ProxyURL = flagProxyURL
	}
	if cfg.Backend.URL == "" {
		return nil, errors.New("no backend URL: set backend.url in the config file or pass --backend-url")
	}
	return cfg, nil
}
