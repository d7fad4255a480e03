package task

import (
	"fmt"
	"sort"
	"strings"
)

// Task is one unit of work as returned by the planning service.
type Task struct {
	ID                    string   `json:"task_id" yaml:"task_id"`
	Description           string   `json:"description" yaml:"description"`
	EstimatedDurationDays float64  `json:"estimated_duration_days" yaml:"estimated_duration_days"`
	Dependencies          []string `json:"dependencies" yaml:"dependencies,omitempty"`
	Priority              string   `json:"priority" yaml:"priority"`
	SuggestedDeadline     string   `json:"suggested_deadline" yaml:"suggested_deadline"`
}

// Plan is the task breakdown the planning service returns for a goal.
type Plan struct {
	Summary string `json:"summary" yaml:"summary"`
	Tasks   []Task `json:"tasks" yaml:"tasks"`
}

// SortByID returns a copy of tasks ordered by task id. The input is left untouched.
func SortByID(tasks []Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// DurationLabel renders an estimated duration the way task cards show it.
func DurationLabel(days float64) string {
	if days == 1 {
		return "1 Day"
	}
	return fmt.Sprintf("%s Days", strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", days), "0"), "."))
}

const NoDependenciesBadge = "No Dependencies (Can start immediately)"

// DependencyBadges returns the badge texts shown under a task card.
func DependencyBadges(deps []string) []string {
	if len(deps) == 0 {
		return []string{NoDependenciesBadge}
	}
	badges := make([]string, 0, len(deps))
	for _, id := range deps {
		badges = append(badges, "Waiting on: "+id)
	}
	return badges
}
