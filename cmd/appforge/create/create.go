// Package createcmd implements "appforge create": the prompt screen, the
// live progress screen, and the result screen, in that order.
package createcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"appforge"
	"appforge/cmd/appforge/ui"
	"appforge/config"
	"appforge/internal/pipeline"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

// entryView receives log snapshots; satisfied by ui.Checklist and
// ui.LineWriter.
type entryView interface {
	OnEntries(entries []pipeline.LogEntry)
}

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [prompt]",
		Short: "Describe an app and watch it deploy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}

			prompt := ""
			if len(args) == 1 {
				prompt = args[0]
			} else {
				prompt, err = ui.Prompt(
					"What should we build?",
					"a blog with markdown posts and comments",
					"pass the prompt as an argument",
				)
				if err != nil {
					if errors.Is(err, ui.ErrCancelled) {
						return nil
					}
					return err
				}
			}

			result, err := run(ctx, catalog, cfg.ResultPayload(), prompt)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			fmt.Println()
			fmt.Println(ui.ResultView(result))
			return nil
		},
	}
}

// run activates a deployment run and pumps log changes into the progress
// screen until the completion callback fires.
func run(ctx context.Context, catalog pipeline.Catalog, payload appforge.Result, prompt string) (appforge.Result, error) {
	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	store := pipeline.NewLogStore()
	done := make(chan appforge.Result, 1)
	seq := pipeline.New(catalog, store,
		pipeline.WithResultBuilder(pipeline.StaticBuilder{Result: payload}),
		pipeline.WithOnComplete(func(r appforge.Result) { done <- r }),
		pipeline.WithTracer(provider.Tracer("appforge/pipeline")),
	)

	var view entryView
	var closeView func()
	if ui.IsInteractive() {
		checklist := ui.NewChecklist(catalog.Len())
		view = checklist
		closeView = checklist.Close
	} else {
		view = ui.NewLineWriter()
		closeView = func() {}
	}
	defer closeView()

	if trimmed := strings.TrimSpace(prompt); trimmed != "" {
		fmt.Fprintln(os.Stderr, ui.InfoMsg("Deploying %s", ui.Bold(trimmed)))
	} else {
		fmt.Fprintln(os.Stderr, ui.InfoMsg("Deploying"))
	}

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	snapshot, changes := store.Subscribe(pumpCtx)

	g, _ := errgroup.WithContext(pumpCtx)
	g.Go(func() error {
		pump(view, snapshot, changes)
		return nil
	})

	seq.Activate(ctx, prompt)

	select {
	case result := <-done:
		stopPump()
		_ = g.Wait()
		closeView()
		return result, nil
	case <-ctx.Done():
		stopPump()
		_ = g.Wait()
		return appforge.Result{}, ctx.Err()
	}
}

// pump mirrors log changes into a local snapshot and pushes it to the
// view on every change. Returns when the change channel closes.
func pump(view entryView, snapshot []pipeline.LogEntry, changes <-chan pipeline.LogChange) {
	entries := append([]pipeline.LogEntry(nil), snapshot...)
	view.OnEntries(append([]pipeline.LogEntry(nil), entries...))

	for change := range changes {
		switch change.Kind {
		case pipeline.LogReset:
			entries = entries[:0]
		case pipeline.EntryAppended:
			entries = append(entries, change.Entry)
		case pipeline.EntryMarkedCompleted:
			for i := range entries {
				if entries[i].ID == change.Entry.ID {
					entries[i] = change.Entry
					break
				}
			}
		}
		view.OnEntries(append([]pipeline.LogEntry(nil), entries...))
	}
}
