// Package main is the entry point for the coding-assistant CLI.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/config"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/db"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness"
)

// Global flags.
var (
	configPath string
	logLevel   string
	pretty     bool
)

// app is the per-invocation state built before any subcommand runs.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "assistant",
		Short: "Terminal coding assistant backed by a streaming chat completion endpoint",
		Long: `assistant keeps a single conversation history on disk and answers prompts
by streaming completions from an OpenAI-compatible endpoint. Turns are
serialized, can be cancelled with Ctrl-C, and always persist whatever text
arrived before the stream ended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search ., .., /etc/coding-assistant, ~/.config/coding-assistant)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable log output")

	root.AddCommand(newPromptCmd(a))
	root.AddCommand(newChatCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newClearCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = pretty
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger(), nil
}

// factory builds a harness factory for the configured backend. The returned
// cleanup closes any database connection it opened.
func (a *app) factory() (*harness.Factory, func(), error) {
	var conn *sql.DB
	cleanup := func() {}

	if a.cfg.Storage.Backend == config.BackendLibSQL {
		var err error
		conn, err = db.ConnectToDB(a.cfg.Storage.DatabasePath)
		if err != nil {
			return nil, cleanup, &harness.TurnError{Kind: harness.KindSetup, Err: err}
		}
		cleanup = func() { conn.Close() }
	}

	return harness.NewFactory(a.cfg, conn, a.logger), cleanup, nil
}

// withFactory runs fn with a factory whose resources are released afterwards.
func (a *app) withFactory(ctx context.Context, fn func(ctx context.Context, f *harness.Factory) error) error {
	f, cleanup, err := a.factory()
	defer cleanup()
	if err != nil {
		return err
	}
	return fn(ctx, f)
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, displayError(err))
		os.Exit(1)
	}
}

// displayError renders turn errors verbatim and prefixes everything else.
func displayError(err error) string {
	var turnErr *harness.TurnError
	if errors.As(err, &turnErr) {
		return turnErr.Error()
	}
	return "Error: " + err.Error()
}
