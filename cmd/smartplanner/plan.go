package main

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/planner"
	"github.com/kazz187/smartplanner/internal/report"
	"github.com/kazz187/smartplanner/internal/task"
)

type planOptions struct {
	goal      string
	context   string
	save      bool
	serverURL string
}

func runPlan(ctx context.Context, env *config.Env, printer *report.Printer, opts planOptions) error {
	if opts.serverURL != "" {
		client := newPlanServiceClient(opts.serverURL, env.APIKey)
		return planViaServer(ctx, client, printer, opts)
	}

	if opts.save {
		svc, err := newPlanService(ctx, env)
		if err != nil {
			return err
		}
		p, err := svc.Create(ctx, opts.goal, opts.context)
		if err != nil {
			return err
		}
		if err := printer.Plan(&task.Plan{Summary: p.Summary, Tasks: p.Tasks}, time.Now()); err != nil {
			return err
		}
		printer.Printf("\nSaved plan %s\n", p.ID)
		return nil
	}

	if err := planner.ValidateGoal(opts.goal); err != nil {
		return err
	}
	generated, err := planner.NewClientFromEnv(&env.PlannerEnv).CreatePlan(ctx, task.GoalRequest{
		GoalText: opts.goal,
		Context:  opts.context,
	})
	if err != nil {
		return err
	}
	return printer.Plan(generated, time.Now())
}

// planViaServer creates the plan on a running server, which always archives it.
func planViaServer(ctx context.Context, client *plan.PlanServiceClient, printer *report.Printer, opts planOptions) error {
	resp, err := client.CreatePlan(ctx, &plan.CreatePlanRequest{GoalText: opts.goal, Context: opts.context})
	if err != nil {
		return err
	}
	if err := printer.Plan(&task.Plan{Summary: resp.Plan.Summary, Tasks: resp.Plan.Tasks}, time.Now()); err != nil {
		return err
	}
	printer.Printf("\nSaved plan %s\n", resp.Plan.ID)
	return nil
}

func newPlanServiceClient(baseURL, apiKey string) *plan.PlanServiceClient {
	var opts []connect.ClientOption
	if apiKey != "" {
		opts = append(opts, connect.WithInterceptors(newAuthInterceptor(apiKey)))
	}
	return plan.NewPlanServiceClient(http.DefaultClient, baseURL, opts...)
}

// authInterceptor adds the API key to outgoing requests.
type authInterceptor struct {
	apiKey string
}

func newAuthInterceptor(apiKey string) *authInterceptor {
	return &authInterceptor{apiKey: apiKey}
}

func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		req.Header().Set("Authorization", "Bearer "+i.apiKey)
		return next(ctx, req)
	}
}

func (i *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set("Authorization", "Bearer "+i.apiKey)
		return conn
	}
}

func (i *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

var _ connect.Interceptor = (*authInterceptor)(nil)
