package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kazz187/smartplanner/internal/calendarexport"
	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/pkg/cerr"
)

type exportOptions struct {
	planID      string
	calendarID  string
	credentials string
	concurrency int
	dryRun      bool
}

func runExport(ctx context.Context, env *config.Env, w io.Writer, opts exportOptions) error {
	svc, err := newPlanService(ctx, env)
	if err != nil {
		return err
	}
	p, err := svc.Get(ctx, opts.planID)
	if err != nil {
		return err
	}

	now := time.Now()
	if opts.dryRun {
		return printEvents(w, p, now)
	}
	if opts.credentials == "" {
		return cerr.NewError(cerr.InvalidArgument, "A Google credentials file is required (--credentials or SMARTPLANNER_GOOGLE_CREDENTIALS_FILE).", nil)
	}

	calendarSvc, err := calendarexport.NewService(ctx, opts.credentials)
	if err != nil {
		return err
	}
	exporter := calendarexport.NewExporter(
		calendarexport.NewCalendarInserter(calendarSvc),
		opts.calendarID,
		calendarexport.WithConcurrency(opts.concurrency),
	)
	return exportPlan(ctx, w, exporter, p, now)
}

// exportPlan inserts the events and lists the ones that were created, even
// when some inserts failed.
func exportPlan(ctx context.Context, w io.Writer, exporter *calendarexport.Exporter, p *plan.Plan, now time.Time) error {
	results, err := exporter.Export(ctx, p, now)
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\n", r.TaskID, r.Link)
	}
	if err != nil {
		return fmt.Errorf("exported %d of %d tasks: %w", len(results), len(p.Tasks), err)
	}
	fmt.Fprintf(w, "Exported %d tasks of plan %s\n", len(results), p.ID)
	return nil
}

func printEvents(w io.Writer, p *plan.Plan, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND (EXCLUSIVE)\tSUMMARY")
	for _, ev := range calendarexport.Events(p, now) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ev.Start.Date, ev.End.Date, ev.Summary)
	}
	return tw.Flush()
}
