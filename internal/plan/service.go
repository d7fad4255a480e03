// Package plan archives the plans fetched from the planning service and
// serves them, with freshly computed timelines, over connect RPC.
package plan

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/smartplanner/internal/planner"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/clog"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Planner produces a task breakdown for a goal.
type Planner interface {
	CreatePlan(ctx context.Context, req task.GoalRequest) (*task.Plan, error)
}

type Service struct {
	repo    Repository
	planner Planner
	now     func() time.Time
}

type ServiceOption func(*Service)

// WithClock replaces time.Now as the source of creation times and of the
// reference instant used for timelines.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, p Planner, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, planner: p, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate validates the goal and asks the planning service for a plan
// without archiving it.
func (s *Service) Generate(ctx context.Context, goal, goalContext string) (*task.Plan, error) {
	if err := planner.ValidateGoal(goal); err != nil {
		return nil, err
	}
	return s.planner.CreatePlan(ctx, task.GoalRequest{GoalText: goal, Context: goalContext})
}

// Create generates a plan and archives it.
func (s *Service) Create(ctx context.Context, goal, goalContext string) (*Plan, error) {
	generated, err := s.Generate(ctx, goal, goalContext)
	if err != nil {
		return nil, err
	}
	return s.Archive(ctx, goal, goalContext, generated)
}

// Archive stores an already generated plan under a new id.
func (s *Service) Archive(ctx context.Context, goal, goalContext string, generated *task.Plan) (*Plan, error) {
	now := s.now()
	p := &Plan{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Goal:      goal,
		Context:   goalContext,
		Summary:   generated.Summary,
		Tasks:     generated.Tasks,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	clog.AddAttribute(ctx, "plan_id", p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// List clamps limit to (0, MaxListLimit]; zero means DefaultListLimit.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Plan, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Timeline lays out the plan's tasks in display order (sorted by id)
// against the current time.
func (s *Service) Timeline(p *Plan) timeline.Table {
	return timeline.Build(task.SortByID(p.Tasks), s.now())
}

// TimelineOf lays out tasks in the given order against the current time.
func (s *Service) TimelineOf(tasks []task.Task) timeline.Table {
	return timeline.Build(tasks, s.now())
}

func validateID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid plan id", err).
			AddViolation("id", "id.ulid", "id must be a ULID")
	}
	return nil
}
