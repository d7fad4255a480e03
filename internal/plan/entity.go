package plan

import (
	"time"

	"github.com/kazz187/smartplanner/internal/task"
)

// Plan is an archived response of the planning service together with the
// goal it was generated for. Timelines are never stored; they are rebuilt
// from Tasks whenever a plan is shown.
type Plan struct {
	ID        string      `json:"id" yaml:"id"`
	Goal      string      `json:"goal" yaml:"goal"`
	Context   string      `json:"context,omitempty" yaml:"context,omitempty"`
	Summary   string      `json:"summary" yaml:"summary"`
	Tasks     []task.Task `json:"tasks" yaml:"tasks"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
}
