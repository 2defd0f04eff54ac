package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/config"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/adapters"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes to the history file until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Backend != config.BackendFile {
				return fmt.Errorf("watch needs the %q storage backend, configured %q", config.BackendFile, a.cfg.Storage.Backend)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return a.withFactory(ctx, func(ctx context.Context, f *harness.Factory) error {
				store, err := f.CreateStore(ctx)
				if err != nil {
					return &harness.TurnError{Kind: harness.KindSetup, Err: err}
				}
				fileStore, ok := store.(*adapters.FileStore)
				if !ok {
					return fmt.Errorf("history store %T cannot be watched", store)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "watching %s\n", fileStore.Path())
				return fileStore.Watch(ctx, func(e fsnotify.Event) {
					fmt.Fprintf(out, "%s %s %s\n", time.Now().Format(time.RFC3339), e.Op, e.Name)
				})
			})
		},
	}
}
