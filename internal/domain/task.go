package domain

import (
	"fmt"
	"time"
)

// TaskKind classifies a task. Handlers dispatch on it instead of parsing
// the free-form description.
type TaskKind int

const (
	TaskGeneric TaskKind = iota
	TaskAnalysis
	TaskReview
	TaskImplementation
	TaskResearch
	TaskPlanning
)

var taskKindNames = map[TaskKind]string{
	TaskGeneric:        "generic",
	TaskAnalysis:       "analysis",
	TaskReview:         "review",
	TaskImplementation: "implementation",
	TaskResearch:       "research",
	TaskPlanning:       "planning",
}

// String returns the kind's wire name.
func (k TaskKind) String() string {
	if n, ok := taskKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseTaskKind maps a wire name to a TaskKind. The empty string is generic.
func ParseTaskKind(s string) (TaskKind, error) {
	if s == "" {
		return TaskGeneric, nil
	}
	for k, n := range taskKindNames {
		if n == s {
			return k, nil
		}
	}
	return TaskGeneric, fmt.Errorf("unknown task kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k TaskKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TaskKind) UnmarshalText(b []byte) error {
	parsed, err := ParseTaskKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Task is a unit of work handed to a worker.
type Task struct {
	ID          string            `json:"id"`
	Kind        TaskKind          `json:"kind"`
	Description string            `json:"description"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// TaskResult is what a handler returns. Its content is handler-defined.
type TaskResult struct {
	TaskID      string            `json:"task_id"`
	WorkerID    string            `json:"worker_id"`
	Summary     string            `json:"summary"`
	Details     map[string]string `json:"details,omitempty"`
	Placeholder bool              `json:"placeholder,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}
