// Package web serves the HTML pages of the planner: the goal form, archived
// plans with their Gantt timeline, and the chart data behind them.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/planner"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/clog"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	maxFormBytes    = 1 << 20
	plansPerPage    = 50
	unexpectedError = "An unexpected error occurred while creating the plan."
)

// PlanService is the part of plan.Service the pages use.
type PlanService interface {
	Create(ctx context.Context, goal, goalContext string) (*plan.Plan, error)
	Get(ctx context.Context, id string) (*plan.Plan, error)
	List(ctx context.Context, limit, offset int) ([]*plan.Plan, int, error)
}

type Handler struct {
	svc   PlanService
	pages map[string]*template.Template
	now   func() time.Time
}

type Option func(*Handler)

// WithClock sets the reference instant used for timelines.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

func NewHandler(svc PlanService, opts ...Option) (*Handler, error) {
	h := &Handler{svc: svc, pages: map[string]*template.Template{}, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	for _, name := range []string{"index", "plan", "plans", "error"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

// Routes returns the page router. JSON endpoints report errors through the
// cerr JSON middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.index)
	r.Post("/plans", h.createPlan)
	r.Get("/plans", h.listPlans)
	r.Get("/plans/{id}", h.showPlan)
	r.Get("/plans/{id}/timeline.svg", h.timelineSVG)
	r.Group(func(r chi.Router) {
		r.Use(cerr.NewJSONChiMiddleware())
		r.Get("/plans/{id}/timeline.json", h.timelineJSON)
	})
	return r
}

type indexView struct {
	Goal          string
	Context       string
	Error         string
	MinGoalLength int
}

type taskCard struct {
	task.Task
	PriorityClass   task.PriorityLevel
	DurationLabel   string
	Badges          []string
	HasDependencies bool
}

type planView struct {
	Plan        *plan.Plan
	Tasks       []taskCard
	HasTasks    bool
	ChartHeight int
	TrackHeight int
	TimelineURL string
	SVG         template.HTML
}

type plansView struct {
	Plans []*plan.Plan
	Total int
}

type errorView struct {
	Message string
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", indexView{MinGoalLength: planner.MinGoalLength})
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, cerr.NewError(cerr.InvalidArgument, "invalid form", err))
		return
	}
	goal := r.PostFormValue("goal")
	goalContext := r.PostFormValue("context")

	p, err := h.svc.Create(ctx, goal, goalContext)
	if err != nil {
		clog.AddError(ctx, err)
		h.render(w, r, statusOf(err), "index", indexView{
			Goal:          goal,
			Context:       goalContext,
			Error:         cerr.Message(err, unexpectedError),
			MinGoalLength: planner.MinGoalLength,
		})
		return
	}
	http.Redirect(w, r, "/plans/"+p.ID, http.StatusSeeOther)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	plans, total, err := h.svc.List(r.Context(), plansPerPage, offset)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "plans", plansView{Plans: plans, Total: total})
}

func (h *Handler) showPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	clog.AddAttribute(r.Context(), "plan_id", p.ID)

	sorted := task.SortByID(p.Tasks)
	now := h.now()
	table := timeline.Build(sorted, now)

	cards := make([]taskCard, len(sorted))
	for i, t := range sorted {
		cards[i] = taskCard{
			Task:            t,
			PriorityClass:   task.PriorityClass(t.Priority),
			DurationLabel:   task.DurationLabel(t.EstimatedDurationDays),
			Badges:          task.DependencyBadges(t.Dependencies),
			HasDependencies: len(t.Dependencies) > 0,
		}
	}
	h.render(w, r, http.StatusOK, "plan", planView{
		Plan:        p,
		Tasks:       cards,
		HasTasks:    len(sorted) > 0,
		ChartHeight: timeline.ChartHeight(len(sorted)),
		TrackHeight: timeline.TrackHeight,
		TimelineURL: "/plans/" + p.ID + "/timeline.json",
		// RenderSVG escapes every piece of task text it writes.
		SVG: template.HTML(RenderSVG(table, now, Descriptions(sorted))),
	})
}

func (h *Handler) timelineJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	table, _, _, err := h.planTimeline(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, NewDataTable(table))
}

func (h *Handler) timelineSVG(w http.ResponseWriter, r *http.Request) {
	table, tasks, now, err := h.planTimeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		cerr.WriteJSONError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(RenderSVG(table, now, Descriptions(tasks)))); err != nil {
		clog.AddError(r.Context(), err)
	}
}

// planTimeline lays out an archived plan in display order against a fresh now.
// The sorted tasks are returned alongside the table.
func (h *Handler) planTimeline(ctx context.Context, id string) (timeline.Table, []task.Task, time.Time, error) {
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return timeline.Table{}, nil, time.Time{}, err
	}
	now := h.now()
	sorted := task.SortByID(p.Tasks)
	return timeline.Build(sorted, now), sorted, now, nil
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	clog.AddError(r.Context(), err)
	h.render(w, r, statusOf(err), "error", errorView{Message: cerr.Message(err, "Something went wrong.")})
}

func statusOf(err error) int {
	var e *cerr.Error
	if errors.As(err, &e) {
		return e.Code.HTTPCode()
	}
	return http.StatusInternalServerError
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	buf := &bytes.Buffer{}
	if err := h.pages[page].ExecuteTemplate(buf, "layout", data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		clog.AddError(r.Context(), err)
	}
}
