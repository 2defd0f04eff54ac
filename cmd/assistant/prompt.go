package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/adapters"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

func newPromptCmd(a *app) *cobra.Command {
	var lowCost bool

	cmd := &cobra.Command{
		Use:   "prompt [text...]",
		Short: "Send one prompt and stream the reply",
		Long: `Send one prompt and stream the reply to stdout. The prompt is taken from
the arguments or, when none are given, from stdin. Ctrl-C stops the stream and
keeps the partial reply; a second Ctrl-C aborts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}
			if text == "" {
				return fmt.Errorf("prompt is empty")
			}

			return a.withFactory(cmd.Context(), func(ctx context.Context, f *harness.Factory) error {
				bus := newConsoleBus(a, cmd.OutOrStdout(), cmd.ErrOrStderr())
				o, err := f.CreateOrchestrator(ctx, bus)
				if err != nil {
					return err
				}
				return runInterruptible(ctx, bus, func(ctx context.Context, token *harness.CancelToken) error {
					_, err := o.RunTurn(ctx, text, lowCost, token)
					fmt.Fprintln(cmd.OutOrStdout())
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&lowCost, "low-cost", false, "Use the economy model")

	return cmd
}

// newConsoleBus prints fragments to out and stream errors to errOut.
func newConsoleBus(a *app, out, errOut io.Writer) *adapters.EventBus {
	bus := adapters.NewEventBus(a.logger)
	bus.Subscribe(ports.EventChatMessage, func(fragment string) {
		fmt.Fprint(out, fragment)
	})
	bus.Subscribe(ports.EventStreamError, func(msg string) {
		fmt.Fprintf(errOut, "\n[stream error] %s\n", msg)
	})
	return bus
}

// runInterruptible runs one turn with a fresh token bound to the bus. The
// first SIGINT publishes cancel-stream; a second one cancels ctx.
func runInterruptible(ctx context.Context, bus *adapters.EventBus, turn func(ctx context.Context, token *harness.CancelToken) error) error {
	ctx, abort := context.WithCancel(ctx)
	defer abort()

	token := harness.NewCancelToken()
	unbind := harness.BindCancel(bus, token)
	defer unbind()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	turnDone := make(chan struct{})
	var wg conc.WaitGroup
	wg.Go(func() {
		interrupts := 0
		for {
			select {
			case <-turnDone:
				return
			case <-sigs:
				interrupts++
				if interrupts == 1 {
					bus.Publish(ports.EventCancelStream, "")
					continue
				}
				abort()
				return
			}
		}
	})

	err := turn(ctx, token)
	close(turnDone)
	wg.Wait()
	return err
}
