package plan

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/kazz187/smartplanner/pkg/rpcjson"
)

// PlanServiceClient calls a running smartplanner server.
type PlanServiceClient struct {
	createPlan    *connect.Client[CreatePlanRequest, CreatePlanResponse]
	getPlan       *connect.Client[GetPlanRequest, GetPlanResponse]
	listPlans     *connect.Client[ListPlansRequest, ListPlansResponse]
	deletePlan    *connect.Client[DeletePlanRequest, DeletePlanResponse]
	buildTimeline *connect.Client[BuildTimelineRequest, BuildTimelineResponse]
}

func NewPlanServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlanServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(rpcjson.ClientOptions(), opts...)
	return &PlanServiceClient{
		createPlan:    connect.NewClient[CreatePlanRequest, CreatePlanResponse](httpClient, baseURL+PlanServiceCreatePlanProcedure, opts...),
		getPlan:       connect.NewClient[GetPlanRequest, GetPlanResponse](httpClient, baseURL+PlanServiceGetPlanProcedure, opts...),
		listPlans:     connect.NewClient[ListPlansRequest, ListPlansResponse](httpClient, baseURL+PlanServiceListPlansProcedure, opts...),
		deletePlan:    connect.NewClient[DeletePlanRequest, DeletePlanResponse](httpClient, baseURL+PlanServiceDeletePlanProcedure, opts...),
		buildTimeline: connect.NewClient[BuildTimelineRequest, BuildTimelineResponse](httpClient, baseURL+PlanServiceBuildTimelineProcedure, opts...),
	}
}

func (c *PlanServiceClient) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*CreatePlanResponse, error) {
	resp, err := c.createPlan.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *PlanServiceClient) GetPlan(ctx context.Context, req *GetPlanRequest) (*GetPlanResponse, error) {
	resp, err := c.getPlan.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *PlanServiceClient) ListPlans(ctx context.Context, req *ListPlansRequest) (*ListPlansResponse, error) {
	resp, err := c.listPlans.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *PlanServiceClient) DeletePlan(ctx context.Context, req *DeletePlanRequest) error {
	_, err := c.deletePlan.CallUnary(ctx, connect.NewRequest(req))
	return err
}

func (c *PlanServiceClient) BuildTimeline(ctx context.Context, req *BuildTimelineRequest) (*BuildTimelineResponse, error) {
	resp, err := c.buildTimeline.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
