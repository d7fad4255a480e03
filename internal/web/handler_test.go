package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/planner"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/pkg/cerr"
)

var errMockGet = cerr.NewError(cerr.NotFound, "plan not found", nil)

// MockPlanService implements PlanService for testing.
type MockPlanService struct {
	CreateFunc func(ctx context.Context, goal, goalContext string) (*plan.Plan, error)
	GetFunc    func(ctx context.Context, id string) (*plan.Plan, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*plan.Plan, int, error)
}

func (m *MockPlanService) Create(ctx context.Context, goal, goalContext string) (*plan.Plan, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, goal, goalContext)
	}
	return nil, errors.New("not implemented")
}

func (m *MockPlanService) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, errMockGet
}

func (m *MockPlanService) List(ctx context.Context, limit, offset int) ([]*plan.Plan, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func samplePlan() *plan.Plan {
	return &plan.Plan{
		ID:      "01HX0000000000000000000001",
		Goal:    "Launch a marketing campaign",
		Summary: "Research, then <execute>",
		Tasks: []task.Task{
			{ID: "T2", Description: "Execute", EstimatedDurationDays: 0.5, Dependencies: []string{"T1"}, Priority: "low"},
			{ID: "T1", Description: "Research", EstimatedDurationDays: 2, Priority: "HIGH", SuggestedDeadline: "2024-03-12"},
		},
		CreatedAt: testNow,
	}
}

func newTestHandler(t *testing.T, mock *MockPlanService) http.Handler {
	t.Helper()
	h, err := NewHandler(mock, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return h.Routes()
}

func do(h http.Handler, method, target string, body url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleIndex(t *testing.T) {
	rec := do(newTestHandler(t, &MockPlanService{}), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Define Your Goal")
	assert.Contains(t, rec.Body.String(), "Submit a goal above to generate your smart task plan.")
}

func TestHandleCreatePlan(t *testing.T) {
	var gotGoal, gotContext string
	mock := &MockPlanService{CreateFunc: func(_ context.Context, goal, goalContext string) (*plan.Plan, error) {
		gotGoal, gotContext = goal, goalContext
		return samplePlan(), nil
	}}

	rec := do(newTestHandler(t, mock), http.MethodPost, "/plans", url.Values{
		"goal":    {"Launch a marketing campaign"},
		"context": {"budget 5k"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/plans/01HX0000000000000000000001", rec.Header().Get("Location"))
	assert.Equal(t, "Launch a marketing campaign", gotGoal)
	assert.Equal(t, "budget 5k", gotContext)
}

func TestHandleCreatePlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", planner.ValidateGoal("short"), http.StatusBadRequest, "Please provide a goal with at least 10 characters."},
		{"upstream detail", cerr.WrapUpstreamStatus(http.StatusBadGateway, "model overloaded"), http.StatusServiceUnavailable, "model overloaded"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "An unexpected error occurred while creating the plan."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockPlanService{CreateFunc: func(context.Context, string, string) (*plan.Plan, error) {
				return nil, tt.err
			}}
			rec := do(newTestHandler(t, mock), http.MethodPost, "/plans", url.Values{"goal": {"short"}})

			assert.Equal(t, tt.status, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Error:")
			assert.Contains(t, body, tt.message)
			// The submitted goal is kept in the form.
			assert.Contains(t, body, ">short</textarea>")
		})
	}
}

func TestHandleShowPlan(t *testing.T) {
	mock := &MockPlanService{GetFunc: func(_ context.Context, id string) (*plan.Plan, error) {
		assert.Equal(t, "01HX0000000000000000000001", id)
		return samplePlan(), nil
	}}
	rec := do(newTestHandler(t, mock), http.MethodGet, "/plans/01HX0000000000000000000001", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Research, then &lt;execute&gt;")
	assert.Contains(t, body, "gstatic.com/charts/loader.js")
	assert.Contains(t, body, "height: 120px")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "priority-high")
	assert.Contains(t, body, "priority-low")
	assert.Contains(t, body, "Waiting on: T1")
	assert.Contains(t, body, "No Dependencies (Can start immediately)")
	assert.Contains(t, body, "0.5 Days")
	assert.Contains(t, body, "2 Days")
	// Cards are ordered by task id.
	assert.Less(t, strings.Index(body, `<span class="task-id">T1</span>`), strings.Index(body, `<span class="task-id">T2</span>`))
}

func TestHandleShowPlan_NoTasks(t *testing.T) {
	mock := &MockPlanService{GetFunc: func(context.Context, string) (*plan.Plan, error) {
		p := samplePlan()
		p.Tasks = nil
		return p, nil
	}}
	rec := do(newTestHandler(t, mock), http.MethodGet, "/plans/01HX0000000000000000000001", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No tasks to display in the timeline.")
	assert.NotContains(t, rec.Body.String(), "loader.js")
}

func TestHandleShowPlan_NotFound(t *testing.T) {
	rec := do(newTestHandler(t, &MockPlanService{}), http.MethodGet, "/plans/01HX0000000000000000000009", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "plan not found")
}

func TestHandleListPlans(t *testing.T) {
	mock := &MockPlanService{ListFunc: func(_ context.Context, limit, offset int) ([]*plan.Plan, int, error) {
		assert.Equal(t, plansPerPage, limit)
		assert.Equal(t, 0, offset)
		return []*plan.Plan{samplePlan()}, 1, nil
	}}
	rec := do(newTestHandler(t, mock), http.MethodGet, "/plans", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/plans/01HX0000000000000000000001">Launch a marketing campaign</a>`)
	assert.Contains(t, rec.Body.String(), "2024-03-10 12:00")
}

func TestHandleTimelineJSON(t *testing.T) {
	mock := &MockPlanService{GetFunc: func(context.Context, string) (*plan.Plan, error) {
		return samplePlan(), nil
	}}
	rec := do(newTestHandler(t, mock), http.MethodGet, "/plans/01HX0000000000000000000001/timeline.json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var dt struct {
		Cols []map[string]string `json:"cols"`
		Rows []struct {
			C []struct {
				V any `json:"v"`
			} `json:"c"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dt))
	require.Len(t, dt.Cols, 7)
	assert.Equal(t, map[string]string{"id": "start", "label": "Start Date", "type": "date"}, dt.Cols[2])
	require.Len(t, dt.Rows, 2)

	t1 := dt.Rows[0].C
	assert.Equal(t, "T1", t1[0].V)
	assert.Equal(t, "T1", t1[1].V)
	assert.Equal(t, "Date(2024,2,10)", t1[2].V)
	assert.Equal(t, "Date(2024,2,12)", t1[3].V)
	assert.Nil(t, t1[4].V)
	assert.Equal(t, 25.0, t1[5].V)
	assert.Nil(t, t1[6].V)

	t2 := dt.Rows[1].C
	assert.Equal(t, "Date(2024,2,10)", t2[2].V)
	assert.Equal(t, "Date(2024,2,10,12,0,0,0)", t2[3].V)
	assert.Equal(t, 100.0, t2[5].V)
	assert.Equal(t, "T1", t2[6].V)
}

func TestHandleTimelineJSON_NotFound(t *testing.T) {
	rec := do(newTestHandler(t, &MockPlanService{}), http.MethodGet, "/plans/01HX0000000000000000000009/timeline.json", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"plan not found"}`, rec.Body.String())
}

func TestHandleTimelineSVG(t *testing.T) {
	mock := &MockPlanService{GetFunc: func(context.Context, string) (*plan.Plan, error) {
		return samplePlan(), nil
	}}
	rec := do(newTestHandler(t, mock), http.MethodGet, "/plans/01HX0000000000000000000001/timeline.svg", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<svg width="960" height="120"`))
	assert.Contains(t, rec.Body.String(), "T2 Execute: 2024-03-10 - 2024-03-10 (100%) after T1")
}
