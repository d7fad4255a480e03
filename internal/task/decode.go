package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Decode reads a task list written as JSON or YAML. The document is either a
// bare list of tasks or a plan object with summary and tasks.
func Decode(data []byte) (*Plan, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("task list is empty")
	}

	root := doc.Content[0]
	var p Plan
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&p.Tasks); err != nil {
			return nil, fmt.Errorf("failed to decode tasks: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("expected a list of tasks or a plan, got %s", kindName(root.Kind))
	}
	return &p, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}

// UnmarshalJSON decodes a task record without failing on mistyped fields, so
// one bad record does not discard the rest of a task list. A duration that is
// not a finite number decodes as 0, which lays out as one day. Other
// non-string scalars keep their printed form and nested values are dropped.
func (t *Task) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.fill(v)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (t *Task) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return err
	}
	t.fill(v)
	return nil
}

func (t *Task) fill(v any) {
	*t = Task{}
	fields, ok := v.(map[string]any)
	if !ok {
		return
	}
	t.ID = text(fields["task_id"])
	t.Description = text(fields["description"])
	t.EstimatedDurationDays = days(fields["estimated_duration_days"])
	t.Dependencies = ids(fields["dependencies"])
	t.Priority = text(fields["priority"])
	t.SuggestedDeadline = text(fields["suggested_deadline"])
}

func text(v any) string {
	switch x := v.(type) {
	case nil, map[string]any, map[any]any, []any:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}

func days(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func ids(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := text(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
