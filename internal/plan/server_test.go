package plan_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/plan/repositoryimpl"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/clog"
	"github.com/kazz187/smartplanner/pkg/storage"
)

type fakePlanner struct {
	createPlanFunc func(ctx context.Context, req task.GoalRequest) (*task.Plan, error)
}

func (f *fakePlanner) CreatePlan(ctx context.Context, req task.GoalRequest) (*task.Plan, error) {
	return f.createPlanFunc(ctx, req)
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, p plan.Planner) *plan.Service {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return plan.NewService(repositoryimpl.NewYAMLRepository(s), p, plan.WithClock(func() time.Time { return fixedNow }))
}

func samplePlanner(calls *int) *fakePlanner {
	return &fakePlanner{createPlanFunc: func(_ context.Context, req task.GoalRequest) (*task.Plan, error) {
		if calls != nil {
			*calls++
		}
		return &task.Plan{
			Summary: "Plan for " + req.GoalText,
			Tasks: []task.Task{
				{ID: "T2", Description: "Build", EstimatedDurationDays: 1, Dependencies: []string{"T1"}, Priority: "Medium"},
				{ID: "T1", Description: "Design", EstimatedDurationDays: 4, Priority: "High", SuggestedDeadline: "2024-03-12"},
			},
		}, nil
	}}
}

func newTestClient(t *testing.T, svc *plan.Service) *plan.PlanServiceClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(plan.NewPlanServiceHandler(plan.NewServer(svc),
		connect.WithInterceptors(clog.NewSlogConnectInterceptor(), cerr.NewConvertConnectErrorInterceptor()),
	))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return plan.NewPlanServiceClient(srv.Client(), srv.URL)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	calls := 0
	svc := newService(t, samplePlanner(&calls))

	p, err := svc.Create(ctx, "Launch a marketing campaign", "budget 5k")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, p.ID, 26)
	assert.Equal(t, "budget 5k", p.Context)
	assert.Equal(t, fixedNow, p.CreatedAt)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan for Launch a marketing campaign", got.Summary)

	_, err = svc.Create(ctx, "too short", "")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Equal(t, 1, calls, "planner must not be called for an invalid goal")
}

func TestService_PlannerError(t *testing.T) {
	svc := newService(t, &fakePlanner{createPlanFunc: func(context.Context, task.GoalRequest) (*task.Plan, error) {
		return nil, cerr.NewError(cerr.Unavailable, "The planning service is unreachable.", errors.New("dial"))
	}})
	_, err := svc.Create(context.Background(), "Launch a marketing campaign", "")
	assert.True(t, cerr.IsCode(err, cerr.Unavailable))

	plans, total, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, plans)
}

func TestService_Timeline(t *testing.T) {
	svc := newService(t, samplePlanner(nil))
	p, err := svc.Create(context.Background(), "Launch a marketing campaign", "")
	require.NoError(t, err)

	table := svc.Timeline(p)
	require.Len(t, table.Rows, 2)
	// Display order is by task id.
	assert.Equal(t, "T1", table.Rows[0].TaskID)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), table.Rows[0].Start)
	assert.Equal(t, 63, table.Rows[0].PercentComplete)
	assert.Equal(t, "T2", table.Rows[1].TaskID)
	require.NotNil(t, table.Rows[1].Dependencies)
	assert.Equal(t, "T1", *table.Rows[1].Dependencies)

	// Inline lists keep their order.
	inline := svc.TimelineOf(p.Tasks)
	assert.Equal(t, "T2", inline.Rows[0].TaskID)
}

func TestService_InvalidID(t *testing.T) {
	svc := newService(t, samplePlanner(nil))
	_, err := svc.Get(context.Background(), "../../etc/passwd")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.True(t, cerr.IsCode(svc.Delete(context.Background(), "nope"), cerr.InvalidArgument))
}

func TestServer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newService(t, samplePlanner(nil)))

	created, err := client.CreatePlan(ctx, &plan.CreatePlanRequest{GoalText: "Launch a marketing campaign"})
	require.NoError(t, err)
	id := created.Plan.ID
	require.NotEmpty(t, id)

	got, err := client.GetPlan(ctx, &plan.GetPlanRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, created.Plan.Summary, got.Plan.Summary)
	assert.Len(t, got.Plan.Tasks, 2)

	list, err := client.ListPlans(ctx, &plan.ListPlansRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, plan.DefaultListLimit, list.Limit)
	require.Len(t, list.Plans, 1)

	tl, err := client.BuildTimeline(ctx, &plan.BuildTimelineRequest{PlanID: id})
	require.NoError(t, err)
	require.Len(t, tl.Columns, 7)
	assert.Equal(t, "taskId", tl.Columns[0].ID)
	assert.Equal(t, "date", tl.Columns[2].Type)
	assert.Equal(t, 120, tl.ChartHeight)
	require.Len(t, tl.Rows, 2)
	assert.Nil(t, tl.Rows[0].Dependencies)
	assert.Nil(t, tl.Rows[0].Duration)
	assert.True(t, tl.Rows[0].End.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, client.DeletePlan(ctx, &plan.DeletePlanRequest{ID: id}))
	_, err = client.GetPlan(ctx, &plan.GetPlanRequest{ID: id})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestServer_BuildTimelineInline(t *testing.T) {
	client := newTestClient(t, newService(t, samplePlanner(nil)))

	tl, err := client.BuildTimeline(context.Background(), &plan.BuildTimelineRequest{Tasks: []task.Task{
		{ID: "A", EstimatedDurationDays: 3, SuggestedDeadline: "2024-03-31"},
		{ID: "B", EstimatedDurationDays: -1, SuggestedDeadline: "2024-02-30", Dependencies: []string{"A", "C"}},
	}})
	require.NoError(t, err)
	require.Len(t, tl.Rows, 2)
	assert.Equal(t, "A", tl.Rows[0].TaskID)
	assert.Equal(t, 0, tl.Rows[0].PercentComplete)
	assert.True(t, tl.Rows[1].Start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, tl.Rows[1].End.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, tl.Rows[1].Dependencies)
	assert.Equal(t, "A,C", *tl.Rows[1].Dependencies)

	empty, err := client.BuildTimeline(context.Background(), &plan.BuildTimelineRequest{})
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, 60, empty.ChartHeight)
}

func TestServer_Errors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newService(t, samplePlanner(nil)))

	_, err := client.CreatePlan(ctx, &plan.CreatePlanRequest{GoalText: "short"})
	require.Error(t, err)
	var ce *connect.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, connect.CodeInvalidArgument, ce.Code())
	assert.Equal(t, "Please provide a goal with at least 10 characters.", ce.Message())
	assert.Len(t, ce.Details(), 1)

	_, err = client.BuildTimeline(ctx, &plan.BuildTimelineRequest{PlanID: "01HX0000000000000000000001", Tasks: []task.Task{{ID: "A"}}})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.GetPlan(ctx, &plan.GetPlanRequest{ID: "01HX0000000000000000000001"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}
