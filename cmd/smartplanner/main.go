package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/plan/repositoryimpl"
	"github.com/kazz187/smartplanner/internal/planner"
	"github.com/kazz187/smartplanner/internal/report"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/clog"
	"github.com/kazz187/smartplanner/pkg/color"
	"github.com/kazz187/smartplanner/pkg/storage"
)

var (
	app     = kingpin.New("smartplanner", "Break a goal into tasks and lay them out on a timeline")
	noColor = app.Flag("no-color", "Disable colored output").Bool()

	serveCmd = app.Command("serve", "Run the web UI and the RPC API")

	planCmd     = app.Command("plan", "Generate a plan for a goal and print it")
	planGoal    = planCmd.Arg("goal", "What you want to achieve").Required().String()
	planContext = planCmd.Flag("context", "Extra context for the planner").String()
	planSave    = planCmd.Flag("save", "Archive the plan").Bool()
	planServer  = planCmd.Flag("server", "Create the plan through a running smartplanner server at this URL").String()

	timelineCmd   = app.Command("timeline", "Print the timeline of a JSON or YAML task list")
	timelineFile  = timelineCmd.Arg("file", "Task list file").Required().ExistingFile()
	timelineWatch = timelineCmd.Flag("watch", "Print a diff each time the file changes").Short('w').Bool()

	exportCmd         = app.Command("export-calendar", "Add the tasks of an archived plan to Google Calendar")
	exportPlanID      = exportCmd.Arg("plan-id", "Archived plan id").Required().String()
	exportCalendar    = exportCmd.Flag("calendar", "Calendar id (default SMARTPLANNER_CALENDAR_ID)").String()
	exportCredentials = exportCmd.Flag("credentials", "Google credentials file (default SMARTPLANNER_GOOGLE_CREDENTIALS_FILE)").String()
	exportConcurrency = exportCmd.Flag("concurrency", "Parallel inserts").Default("4").Int()
	exportDryRun      = exportCmd.Flag("dry-run", "Print the events without inserting them").Bool()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	setupLogger(env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	printer := report.NewPrinter(os.Stdout, color.NewPalette(!*noColor && color.Supported()))

	switch command {
	case serveCmd.FullCommand():
		err = runServe(ctx, env)
	case planCmd.FullCommand():
		err = runPlan(ctx, env, printer, planOptions{
			goal:      *planGoal,
			context:   *planContext,
			save:      *planSave,
			serverURL: *planServer,
		})
	case timelineCmd.FullCommand():
		err = runTimeline(ctx, printer, *timelineFile, *timelineWatch, time.Now)
	case exportCmd.FullCommand():
		err = runExport(ctx, env, os.Stdout, exportOptions{
			planID:      *exportPlanID,
			calendarID:  firstNonEmpty(*exportCalendar, env.CalendarID),
			credentials: firstNonEmpty(*exportCredentials, env.CredentialsFile),
			concurrency: *exportConcurrency,
			dryRun:      *exportDryRun,
		})
	}
	stop()

	if err != nil {
		slog.Debug("command failed", "command", command, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func setupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(color.Supported()))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func newStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, error) {
	switch env.Type {
	case "s3":
		var opts []storage.S3Option
		if env.S3Endpoint != "" {
			opts = append(opts, storage.WithS3Endpoint(env.S3Endpoint))
		}
		store, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return store, nil
	case "local", "":
		store, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}

func newPlanService(ctx context.Context, env *config.Env) (*plan.Service, error) {
	store, err := newStorage(ctx, &env.StorageEnv)
	if err != nil {
		return nil, err
	}
	return plan.NewService(repositoryimpl.NewYAMLRepository(store), planner.NewClientFromEnv(&env.PlannerEnv)), nil
}

// errorMessage is the text shown to the user for err.
func errorMessage(err error) string {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return ce.Msg
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
