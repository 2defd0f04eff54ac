package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

func newHistoryCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation the next turn will build on",
		Long: `Print the stored conversation as the next turn sees it: truncated to
assistant.max_history_length and starting with a system message.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFactory(cmd.Context(), func(ctx context.Context, f *harness.Factory) error {
				store, err := f.CreateStore(ctx)
				if err != nil {
					return &harness.TurnError{Kind: harness.KindSetup, Err: err}
				}

				policy := f.CreatePolicy()
				conv, err := store.Load(ctx)
				if errors.Is(err, ports.ErrNotFound) || (err == nil && conv == nil) {
					conv = conversation.New(policy.SystemPrompt)
				} else if err != nil {
					return &harness.TurnError{Kind: harness.KindLoad, Err: err}
				}
				conv.Truncate(policy.MaxHistoryLength, policy.SystemPrompt)

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(conv)
				}

				fmt.Fprintf(out, "conversation %s (%d messages)\n", conv.ID, conv.Len())
				for _, m := range conv.Messages {
					fmt.Fprintf(out, "\n[%s]\n%s\n", m.Role, strings.TrimRight(m.Content, "\n"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the conversation as a JSON document")

	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Back up the conversation and start a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFactory(cmd.Context(), func(ctx context.Context, f *harness.Factory) error {
				store, err := f.CreateStore(ctx)
				if err != nil {
					return &harness.TurnError{Kind: harness.KindSetup, Err: err}
				}

				fresh := conversation.New(a.cfg.Assistant.SystemPrompt)
				if err := store.Clear(ctx, fresh); err != nil {
					return &harness.TurnError{Kind: harness.KindPersist, Err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "history cleared, new conversation %s\n", fresh.ID)
				return nil
			})
		},
	}
}
