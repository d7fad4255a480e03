// Package planner talks to the remote planning service that breaks a goal
// down into tasks.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"github.com/kazz187/smartplanner/internal/config"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/pkg/cerr"
)

const (
	MinGoalLength = 10

	goalTooShortMessage = "Please provide a goal with at least 10 characters."
	createFailedMessage = "Failed to create plan"
	maxErrorBodyBytes   = 64 << 10
)

// ValidateGoal rejects goals shorter than MinGoalLength characters.
func ValidateGoal(goal string) error {
	if utf8.RuneCountInString(goal) < MinGoalLength {
		return cerr.NewError(cerr.InvalidArgument, goalTooShortMessage, nil).
			AddViolation("goal_text", "goal_text.min_len", fmt.Sprintf("goal_text must be at least %d characters", MinGoalLength))
	}
	return nil
}

type Client struct {
	url        string
	userID     string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithUserID(userID string) Option {
	return func(c *Client) {
		c.userID = userID
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		base := c.httpClient
		c.httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"}),
				Base:   base.Transport,
			},
			Timeout:       base.Timeout,
			CheckRedirect: base.CheckRedirect,
			Jar:           base.Jar,
		}
	}
	return c
}

func NewClientFromEnv(env *config.PlannerEnv) *Client {
	return NewClient(env.URL,
		WithHTTPClient(&http.Client{Timeout: env.Timeout}),
		WithToken(env.Token),
		WithUserID(env.UserID),
	)
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// CreatePlan posts the goal and decodes the returned plan. An empty UserID
// is filled with the client's configured user.
func (c *Client) CreatePlan(ctx context.Context, req task.GoalRequest) (*task.Plan, error) {
	if req.UserID == "" {
		req.UserID = c.userID
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to encode goal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to build planner request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cerr.NewError(cerr.Canceled, "request canceled", err)
		}
		return nil, cerr.NewError(cerr.Unavailable, "The planning service is unreachable.", err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "planner responded",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, cerr.WrapUpstreamStatus(resp.StatusCode, errorDetail(resp.Body))
	}

	var plan task.Plan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, cerr.NewError(cerr.Internal, "malformed plan response", err)
	}
	return &plan, nil
}

// errorDetail extracts the message of a {"detail": ...} error body. Only a
// non-empty string detail is shown; anything else yields the generic message.
func errorDetail(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBodyBytes)).Decode(&er); err != nil {
		return createFailedMessage
	}
	if s, ok := er.Detail.(string); ok && s != "" {
		return s
	}
	return createFailedMessage
}
