package task

import "strings"

// GoalRequest is the body sent to the planning service.
type GoalRequest struct {
	GoalText string `json:"goal_text"`
	UserID   string `json:"user_id"`
	Context  string `json:"context,omitempty"`
}

// PriorityLevel classifies the free-form priority label for styling.
// The label itself is never validated.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
	PriorityOther  PriorityLevel = "other"
)

func PriorityClass(priority string) PriorityLevel {
	switch strings.ToLower(priority) {
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	default:
		return PriorityOther
	}
}
