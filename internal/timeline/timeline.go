// Package timeline turns a task list into a chart-ready table of start and
// end dates with a completion ratio per task.
//
// Build never fails: every malformed field falls back to a documented
// default so that one bad task cannot block rendering of the whole list.
package timeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kazz187/smartplanner/internal/task"
)

const (
	// DefaultDurationDays is used for tasks without a usable estimate.
	DefaultDurationDays = 1.0

	day = 24 * time.Hour

	// Layout constants for chart surfaces.
	chartBaseHeight = 60
	TrackHeight     = 30
)

// Kind tags the type of values found in a column.
type Kind int

const (
	KindString Kind = iota + 1
	KindDate
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

type Column struct {
	ID    string
	Label string
	Kind  Kind
}

var schema = []Column{
	{ID: "taskId", Label: "Task ID", Kind: KindString},
	{ID: "taskName", Label: "Task Name", Kind: KindString},
	{ID: "start", Label: "Start Date", Kind: KindDate},
	{ID: "end", Label: "End Date", Kind: KindDate},
	{ID: "duration", Label: "Duration", Kind: KindNumber},
	{ID: "percent", Label: "Percent Complete", Kind: KindNumber},
	{ID: "deps", Label: "Dependencies", Kind: KindString},
}

// Columns returns the fixed column schema in display order.
func Columns() []Column {
	cols := make([]Column, len(schema))
	copy(cols, schema)
	return cols
}

// Row is the placement of one task. Dependencies is nil when the task has none.
type Row struct {
	TaskID          string
	TaskLabel       string
	Start           time.Time
	End             time.Time
	PercentComplete int
	Dependencies    *string
}

// Cells returns the row values in column order. The duration cell is always
// nil because chart surfaces derive it from start and end.
func (r Row) Cells() []any {
	var deps any
	if r.Dependencies != nil {
		deps = *r.Dependencies
	}
	return []any{r.TaskID, r.TaskLabel, r.Start, r.End, nil, r.PercentComplete, deps}
}

type Table struct {
	Columns []Column
	Rows    []Row
}

// Build lays out tasks against now. Rows keep the input order and the input
// slice is not modified. All rows share the same now, so callers sample it
// once per render.
func Build(tasks []task.Task, now time.Time) Table {
	today := midnight(now.Year(), now.Month(), now.Day(), now.Location())

	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		offset := durationOffset(normalizeDuration(t.EstimatedDurationDays))

		var start, end time.Time
		if deadline, ok := parseDeadline(t.SuggestedDeadline, now.Location()); ok {
			end = deadline
			start = end.Add(-offset)
		} else {
			start = today
			end = start.Add(offset)
		}

		rows = append(rows, Row{
			TaskID:          t.ID,
			TaskLabel:       t.ID,
			Start:           start,
			End:             end,
			PercentComplete: percentComplete(start, end, now),
			Dependencies:    dependencyLabel(t.Dependencies),
		})
	}
	return Table{Columns: Columns(), Rows: rows}
}

// ChartHeight is the vertical space a Gantt chart of n tasks needs.
func ChartHeight(n int) int {
	return chartBaseHeight + n*TrackHeight
}

func normalizeDuration(days float64) float64 {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return DefaultDurationDays
	}
	return days
}

// durationOffset converts days to a whole-millisecond offset, saturating at
// the largest representable time.Duration.
func durationOffset(days float64) time.Duration {
	ms := math.Round(days * float64(day/time.Millisecond))
	if ms >= float64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64/int64(time.Millisecond)) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// parseDeadline accepts "year-month-day" with three numeric components that
// name a real calendar day. The result is midnight of that day in loc.
func parseDeadline(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	var nums [3]int
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return time.Time{}, false
		}
		if math.Abs(f) > 1e6 {
			return time.Time{}, false
		}
		nums[i] = int(f)
	}
	year, month, dom := nums[0], time.Month(nums[1]), nums[2]
	if month < time.January || month > time.December || dom < 1 {
		return time.Time{}, false
	}
	t := midnight(year, month, dom, loc)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); such dates do not exist.
	if t.Year() != year || t.Month() != month || t.Day() != dom {
		return time.Time{}, false
	}
	return t, true
}

func midnight(year int, month time.Month, dom int, loc *time.Location) time.Time {
	return time.Date(year, month, dom, 0, 0, 0, 0, loc)
}

func percentComplete(start, end, now time.Time) int {
	if !end.After(start) {
		return 0
	}
	total := end.Sub(start)
	elapsed := now.Sub(start)
	ratio := math.Round(float64(elapsed) / float64(total) * 100)
	return int(math.Max(0, math.Min(100, ratio)))
}

func dependencyLabel(deps []string) *string {
	if len(deps) == 0 {
		return nil
	}
	label := strings.Join(deps, ",")
	return &label
}
