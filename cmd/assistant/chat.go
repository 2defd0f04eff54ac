package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/adapters"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		lowCost     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session, one turn per line",
		Long: `Read prompts line by line and stream each reply. Ctrl-C while a reply is
streaming stops it; an empty line or EOF ends the session. With --metrics-addr
turn metrics are served at /metrics for the lifetime of the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFactory(cmd.Context(), func(ctx context.Context, f *harness.Factory) error {
				var metrics *http.Server
				if metricsAddr != "" {
					reg := prometheus.NewRegistry()
					reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
					a.cfg.Harness.EnableMetrics = true
					f.WithRegisterer(reg)

					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
					metrics = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				}

				bus := newConsoleBus(a, cmd.OutOrStdout(), cmd.ErrOrStderr())
				o, err := f.CreateOrchestrator(ctx, bus)
				if err != nil {
					return err
				}

				var wg conc.WaitGroup
				if metrics != nil {
					wg.Go(func() {
						a.logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
						if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							a.logger.Error().Err(err).Msg("metrics server stopped")
						}
					})
				}

				var replErr error
				wg.Go(func() {
					defer func() {
						if metrics != nil {
							shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
							defer cancel()
							_ = metrics.Shutdown(shutdownCtx)
						}
					}()
					replErr = repl(ctx, cmd, a, o, bus, lowCost)
				})
				wg.Wait()
				return replErr
			})
		},
	}

	cmd.Flags().BoolVar(&lowCost, "low-cost", false, "Use the economy model for every turn")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func repl(ctx context.Context, cmd *cobra.Command, a *app, o *harness.PromptOrchestrator, bus *adapters.EventBus, lowCost bool) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}

		err := runInterruptible(ctx, bus, func(ctx context.Context, token *harness.CancelToken) error {
			_, err := o.RunTurn(ctx, line, lowCost, token)
			fmt.Fprintln(out)
			return err
		})
		if err != nil {
			// a failed turn leaves the session usable
			fmt.Fprintln(cmd.ErrOrStderr(), displayError(err))
			a.logger.Debug().Err(err).Msg("turn failed")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
