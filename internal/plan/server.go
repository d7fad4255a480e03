package plan

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/rpcjson"
)

const (
	PlanServiceName = "smartplanner.v1.PlanService"

	PlanServiceCreatePlanProcedure    = "/" + PlanServiceName + "/CreatePlan"
	PlanServiceGetPlanProcedure       = "/" + PlanServiceName + "/GetPlan"
	PlanServiceListPlansProcedure     = "/" + PlanServiceName + "/ListPlans"
	PlanServiceDeletePlanProcedure    = "/" + PlanServiceName + "/DeletePlan"
	PlanServiceBuildTimelineProcedure = "/" + PlanServiceName + "/BuildTimeline"
)

type CreatePlanRequest struct {
	GoalText string `json:"goal_text"`
	Context  string `json:"context,omitempty"`
}

type CreatePlanResponse struct {
	Plan *Plan `json:"plan"`
}

type GetPlanRequest struct {
	ID string `json:"id"`
}

type GetPlanResponse struct {
	Plan *Plan `json:"plan"`
}

type ListPlansRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListPlansResponse struct {
	Plans  []*Plan `json:"plans"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type DeletePlanRequest struct {
	ID string `json:"id"`
}

type DeletePlanResponse struct{}

// BuildTimelineRequest names either an archived plan or an inline task list.
type BuildTimelineRequest struct {
	PlanID string      `json:"plan_id,omitempty"`
	Tasks  []task.Task `json:"tasks,omitempty"`
}

type TimelineColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type TimelineRow struct {
	TaskID          string    `json:"task_id"`
	TaskLabel       string    `json:"task_label"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Duration        *float64  `json:"duration"`
	PercentComplete int       `json:"percent_complete"`
	Dependencies    *string   `json:"dependencies"`
}

type BuildTimelineResponse struct {
	Columns     []TimelineColumn `json:"columns"`
	Rows        []TimelineRow    `json:"rows"`
	ChartHeight int              `json:"chart_height"`
}

type Server struct {
	svc *Service
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) CreatePlan(ctx context.Context, req *connect.Request[CreatePlanRequest]) (*connect.Response[CreatePlanResponse], error) {
	p, err := s.svc.Create(ctx, req.Msg.GoalText, req.Msg.Context)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&CreatePlanResponse{Plan: p}), nil
}

func (s *Server) GetPlan(ctx context.Context, req *connect.Request[GetPlanRequest]) (*connect.Response[GetPlanResponse], error) {
	p, err := s.svc.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetPlanResponse{Plan: p}), nil
}

func (s *Server) ListPlans(ctx context.Context, req *connect.Request[ListPlansRequest]) (*connect.Response[ListPlansResponse], error) {
	plans, total, err := s.svc.List(ctx, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []*Plan{}
	}
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return connect.NewResponse(&ListPlansResponse{
		Plans:  plans,
		Total:  total,
		Limit:  min(limit, MaxListLimit),
		Offset: max(req.Msg.Offset, 0),
	}), nil
}

func (s *Server) DeletePlan(ctx context.Context, req *connect.Request[DeletePlanRequest]) (*connect.Response[DeletePlanResponse], error) {
	if err := s.svc.Delete(ctx, req.Msg.ID); err != nil {
		return nil, err
	}
	return connect.NewResponse(&DeletePlanResponse{}), nil
}

func (s *Server) BuildTimeline(ctx context.Context, req *connect.Request[BuildTimelineRequest]) (*connect.Response[BuildTimelineResponse], error) {
	var table timeline.Table
	switch {
	case req.Msg.PlanID != "" && len(req.Msg.Tasks) > 0:
		return nil, cerr.NewError(cerr.InvalidArgument, "specify either plan_id or tasks, not both", nil)
	case req.Msg.PlanID != "":
		p, err := s.svc.Get(ctx, req.Msg.PlanID)
		if err != nil {
			return nil, err
		}
		table = s.svc.Timeline(p)
	default:
		table = s.svc.TimelineOf(req.Msg.Tasks)
	}
	return connect.NewResponse(toTimelineResponse(table)), nil
}

func toTimelineResponse(table timeline.Table) *BuildTimelineResponse {
	resp := &BuildTimelineResponse{
		Columns:     make([]TimelineColumn, len(table.Columns)),
		Rows:        make([]TimelineRow, len(table.Rows)),
		ChartHeight: timeline.ChartHeight(len(table.Rows)),
	}
	for i, c := range table.Columns {
		resp.Columns[i] = TimelineColumn{ID: c.ID, Label: c.Label, Type: c.Kind.String()}
	}
	for i, r := range table.Rows {
		resp.Rows[i] = TimelineRow{
			TaskID:          r.TaskID,
			TaskLabel:       r.TaskLabel,
			Start:           r.Start,
			End:             r.End,
			PercentComplete: r.PercentComplete,
			Dependencies:    r.Dependencies,
		}
	}
	return resp
}

// NewPlanServiceHandler routes the PlanService procedures. The returned path
// is the mount point for an http.ServeMux.
func NewPlanServiceHandler(s *Server, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.HandlerOption()}, opts...)
	handlers := map[string]http.Handler{
		PlanServiceCreatePlanProcedure:    connect.NewUnaryHandler(PlanServiceCreatePlanProcedure, s.CreatePlan, opts...),
		PlanServiceGetPlanProcedure:       connect.NewUnaryHandler(PlanServiceGetPlanProcedure, s.GetPlan, opts...),
		PlanServiceListPlansProcedure:     connect.NewUnaryHandler(PlanServiceListPlansProcedure, s.ListPlans, opts...),
		PlanServiceDeletePlanProcedure:    connect.NewUnaryHandler(PlanServiceDeletePlanProcedure, s.DeletePlan, opts...),
		PlanServiceBuildTimelineProcedure: connect.NewUnaryHandler(PlanServiceBuildTimelineProcedure, s.BuildTimeline, opts...),
	}
	return "/" + PlanServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
