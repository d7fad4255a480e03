package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/kazz187/smartplanner/internal/report"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/filewatch"
	"github.com/kazz187/smartplanner/pkg/panicerr"
)

// renderTimeline reads a task list and lays it out in file order.
func renderTimeline(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	p, err := task.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return report.TimelineText(timeline.Build(p.Tasks, now)), nil
}

func runTimeline(ctx context.Context, printer *report.Printer, path string, watch bool, now func() time.Time) error {
	prev, err := renderTimeline(path, now())
	if err != nil {
		return err
	}
	printer.Printf("%s", prev)
	if !watch {
		return nil
	}

	watcher, err := filewatch.New(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	changed := make(chan struct{}, 1)
	var (
		wg       conc.WaitGroup
		watchErr error
	)
	wg.Go(func() {
		defer cancel()
		watchErr = panicerr.Run(ctx, func(ctx context.Context) error {
			return watcher.Run(ctx, changed)
		})
	})
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return watchErr
		case <-changed:
			cur, err := renderTimeline(path, now())
			if err != nil {
				slog.WarnContext(ctx, "failed to reload task list", "path", path, "error", err)
				continue
			}
			diff, err := report.Diff(prev, cur)
			if err != nil {
				return err
			}
			if diff == "" {
				continue
			}
			printer.Printf("\n%s changed at %s\n", path, now().Format(time.TimeOnly))
			printer.WriteDiff(diff)
			prev = cur
		}
	}
}
