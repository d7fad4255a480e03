// Package report prints plans and timelines for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
	"github.com/kazz187/smartplanner/pkg/color"
)

type Printer struct {
	w       io.Writer
	palette color.Palette
}

func NewPrinter(w io.Writer, palette color.Palette) *Printer {
	return &Printer{w: w, palette: palette}
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Plan prints the summary, the timeline table and one card per task.
// Cards and the table are ordered by task id.
func (p *Printer) Plan(plan *task.Plan, now time.Time) error {
	sorted := task.SortByID(plan.Tasks)
	if plan.Summary != "" {
		p.palette.New(fcolor.Bold).Fprintln(p.w, "Summary")
		fmt.Fprintf(p.w, "%s\n\n", plan.Summary)
	}

	p.palette.New(fcolor.Bold).Fprintln(p.w, "Timeline")
	if err := p.Timeline(timeline.Build(sorted, now)); err != nil {
		return err
	}
	fmt.Fprintln(p.w)

	p.palette.New(fcolor.Bold).Fprintln(p.w, "Tasks")
	for _, t := range sorted {
		p.Card(t)
	}
	return nil
}

const EmptyTimeline = "No tasks to display in the timeline."

// Timeline prints the table, or a notice when there are no rows.
func (p *Printer) Timeline(table timeline.Table) error {
	_, err := io.WriteString(p.w, TimelineText(table))
	return err
}

// TimelineText is what Timeline prints.
func TimelineText(table timeline.Table) string {
	if len(table.Rows) == 0 {
		return EmptyTimeline + "\n"
	}
	return timeline.Text(table)
}

func (p *Printer) Card(t task.Task) {
	p.palette.ForID(t.ID).Fprintf(p.w, "[%s]", t.ID)
	fmt.Fprintf(p.w, " %s\n", t.Description)

	fmt.Fprint(p.w, "    ")
	if t.Priority != "" {
		p.palette.ForPriority(t.Priority).Fprint(p.w, t.Priority)
		fmt.Fprint(p.w, " | ")
	}
	fmt.Fprint(p.w, task.DurationLabel(t.EstimatedDurationDays))
	if t.SuggestedDeadline != "" {
		fmt.Fprintf(p.w, " | due %s", t.SuggestedDeadline)
	}
	fmt.Fprintln(p.w)

	badge := p.palette.New(fcolor.Faint)
	if len(t.Dependencies) == 0 {
		badge = p.palette.New(fcolor.FgGreen)
	}
	badge.Fprintf(p.w, "    %s\n", strings.Join(task.DependencyBadges(t.Dependencies), ", "))
}

// Diff returns a unified diff between two renderings. It is empty when they
// are equal.
func Diff(prev, cur string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev),
		B:        difflib.SplitLines(cur),
		FromFile: "previous",
		ToFile:   "current",
		Context:  1,
	})
}

// WriteDiff prints a diff with added lines green and removed lines red.
func (p *Printer) WriteDiff(diff string) {
	add := p.palette.New(fcolor.FgGreen)
	del := p.palette.New(fcolor.FgRed)
	hunk := p.palette.New(fcolor.FgCyan)
	for _, line := range difflib.SplitLines(diff) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			p.palette.New(fcolor.Bold).Fprint(p.w, line)
		case strings.HasPrefix(line, "@@"):
			hunk.Fprint(p.w, line)
		case strings.HasPrefix(line, "+"):
			add.Fprint(p.w, line)
		case strings.HasPrefix(line, "-"):
			del.Fprint(p.w, line)
		default:
			fmt.Fprint(p.w, line)
		}
	}
}
