package calendarexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/panicerr"
)

const DefaultConcurrency = 4

type Inserter interface {
	Insert(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error)
}

// CalendarInserter inserts events through the Calendar API.
type CalendarInserter struct {
	srv *calendar.Service
}

func NewCalendarInserter(srv *calendar.Service) *CalendarInserter {
	return &CalendarInserter{srv: srv}
}

func (c *CalendarInserter) Insert(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(calendarID, ev).Context(ctx).Do()
}

// NewService builds a Calendar client from a service account or authorized
// user credentials file.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*calendar.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}
	opts = append([]option.ClientOption{option.WithTokenSource(creds.TokenSource)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar client: %w", err)
	}
	return srv, nil
}

type Exporter struct {
	ins         Inserter
	calendarID  string
	concurrency int
}

type Option func(*Exporter)

func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewExporter(ins Inserter, calendarID string, opts ...Option) *Exporter {
	e := &Exporter{ins: ins, calendarID: calendarID, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is one inserted event.
type Result struct {
	TaskID  string
	EventID string
	Link    string
}

// Events lays the plan out against now and returns one event per task in
// task id order.
func Events(p *plan.Plan, now time.Time) []*calendar.Event {
	tasks := task.SortByID(p.Tasks)
	table := timeline.Build(tasks, now)
	events := make([]*calendar.Event, len(tasks))
	for i, row := range table.Rows {
		events[i] = EventFor(p, tasks[i], row)
	}
	return events
}

// Export inserts every event of the plan. Inserts run concurrently; results
// keep task id order and failed inserts are left out of them. The returned
// error joins every failure.
func (e *Exporter) Export(ctx context.Context, p *plan.Plan, now time.Time) ([]Result, error) {
	events := Events(p, now)
	inserted := make([]*Result, len(events))

	wp := pool.New().WithMaxGoroutines(e.concurrency).WithContext(ctx)
	for i, ev := range events {
		taskID := ev.ExtendedProperties.Private[TaskIDProperty]
		wp.Go(func(ctx context.Context) error {
			return panicerr.Run(ctx, func(ctx context.Context) error {
				created, err := e.ins.Insert(ctx, e.calendarID, ev)
				if err != nil {
					return fmt.Errorf("failed to insert event for %s: %w", taskID, err)
				}
				slog.DebugContext(ctx, "event inserted", "task_id", taskID, "event_id", created.Id)
				inserted[i] = &Result{TaskID: taskID, EventID: created.Id, Link: created.HtmlLink}
				return nil
			})
		})
	}
	err := wp.Wait()

	results := make([]Result, 0, len(inserted))
	for _, r := range inserted {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, err
}
