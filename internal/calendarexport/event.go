// Package calendarexport pushes plan timelines to Google Calendar as all-day
// events.
package calendarexport

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
)

const (
	TaskIDProperty = "smartplanner_task_id"
	PlanIDProperty = "smartplanner_plan_id"

	dateLayout = "2006-01-02"
)

// EventFor converts one timeline row into an all-day event. Calendar end
// dates are exclusive, so a row ending during a day covers that whole day.
func EventFor(p *plan.Plan, t task.Task, row timeline.Row) *calendar.Event {
	startDay := day(row.Start)
	endDay := day(row.End)
	if !row.End.Equal(endDay) {
		endDay = endDay.AddDate(0, 0, 1)
	}
	if !endDay.After(startDay) {
		endDay = startDay.AddDate(0, 0, 1)
	}

	return &calendar.Event{
		Summary:     fmt.Sprintf("[%s] %s", t.ID, t.Description),
		Description: describe(p, t, row),
		Start:       &calendar.EventDateTime{Date: startDay.Format(dateLayout)},
		End:         &calendar.EventDateTime{Date: endDay.Format(dateLayout)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: t.ID,
				PlanIDProperty: p.ID,
			},
		},
	}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func describe(p *plan.Plan, t task.Task, row timeline.Row) string {
	var sb strings.Builder
	if t.Priority != "" {
		fmt.Fprintf(&sb, "Priority: %s\n", t.Priority)
	}
	fmt.Fprintf(&sb, "Estimated: %s\n", task.DurationLabel(t.EstimatedDurationDays))
	fmt.Fprintf(&sb, "Progress: %d%%\n", row.PercentComplete)
	sb.WriteString(strings.Join(task.DependencyBadges(t.Dependencies), "\n"))
	if p.Goal != "" {
		fmt.Fprintf(&sb, "\n\nGoal: %s", p.Goal)
	}
	return sb.String()
}
