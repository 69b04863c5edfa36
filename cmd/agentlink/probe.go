package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/backend"
	"github.com/agentlink/agentlink/internal/probe"
)

func newProbeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run the connectivity probe battery and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := backend.NewClient(cfg.Backend)
			battery := probe.New(cfg.Backend, client).RunAll(ctx)
			selected := probe.Select(battery, probe.PathConfig{
				BackendURL:  cfg.Backend.URL,
				ProxyURL:    cfg.Backend.ProxyURL,
				ProxyPrefix: cfg.Backend.ProxyPrefix,
			})

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Battery  probe.Battery      `json:"battery"`
					Selected probe.SelectedPath `json:"selected"`
				}{battery, selected})
			}

			fmt.Printf("Probing %s\n\n", cfg.Backend.URL)
			printResult("direct", battery.Direct)
			printResult("proxy", battery.Proxy)
			printResult("cors preflight", battery.CORS)

			fmt.Println()
			switch selected.Method {
			case probe.MethodProxy:
				fmt.Printf("✓ selected: proxy via %s%s\n", selected.BaseURL, selected.Prefix)
			case probe.MethodDirect:
				fmt.Printf("✓ selected: direct to %s\n", selected.BaseURL)
			default:
				fmt.Println("✗ no usable path — all connectivity tests failed")
				return errors.New("backend unreachable")
			}
			if selected.Method == probe.MethodDirect && !battery.CORS.Success {
				fmt.Println("! direct path works but CORS preflight failed — browser clients will be blocked")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw probe results as JSON")
	return cmd
}

func printResult(name string, r probe.Result) {
	mark := "✗"
	if r.Success {
		mark = "✓"
	}
	fmt.Printf("%s %-15s", mark, name)
	if r.Success {
		fmt.Printf(" %d %s (%s)\n", r.HTTPStatus, r.ContentType, r.Latency.Round(time.Millisecond))
		return
	}
	fmt.Printf(" %s", r.Err)
	if r.HTTPStatus != 0 {
		fmt.Printf(" (status %d)", r.HTTPStatus)
	}
	fmt.Println()
}
