package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/system"
)

func newSendCmd() *cobra.Command {
	var (
		conversationID string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a single chat message and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			sys := system.New(cfg)
			defer sys.Stop()
			if err := sys.Initialize(ctx); err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			message := strings.Join(args, " ")
			ex := sys.SendChat(ctx, message, chat.Options{ConversationID: conversationID})

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ex)
			}

			if !ex.Result.Success {
				fmt.Fprintf(os.Stderr, "✗ %s (%s)\n", ex.Result.Err, ex.Result.Kind)
				if current := sys.Aggregator().Current(); current != nil && current.Suggestion != "" {
					fmt.Fprintf(os.Stderr, "  hint: %s\n", current.Suggestion)
				}
				return errors.New("send failed")
			}

			fmt.Println(ex.Result.Data.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation ID (defaults to config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full exchange as JSON")
	return cmd
}
