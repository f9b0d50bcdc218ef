package ports

import (
	"context"

	"github.com/bft-labs/specialists/internal/domain"
)

// TaskHandler performs a worker's domain work.
type TaskHandler interface {
	// ProcessTask executes a single task.
	ProcessTask(ctx context.Context, task domain.Task) (domain.TaskResult, error)

	// Knowledge returns the scratch fields accumulated so far.
	// It is read once, when the worker dissolves.
	Knowledge() domain.Scratch
}

// Releaser is implemented by handlers that hold resources (tool bindings,
// temporary artifacts) which must be freed when the worker dissolves.
type Releaser interface {
	Release(ctx context.Context) error
}

// SpawnRequest is what a factory receives when a worker is created.
type SpawnRequest struct {
	Category string
	Subtype  string
	Context  map[string]string
}

// HandlerFactory builds the task handler for a new worker.
type HandlerFactory func(ctx context.Context, req SpawnRequest) (TaskHandler, error)
