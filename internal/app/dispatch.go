package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// TaskFunc handles one kind of task. It may add to scratch, which is
// guarded by the DispatchHandler.
type TaskFunc func(ctx context.Context, task domain.Task, scratch *domain.Scratch) (domain.TaskResult, error)

// DispatchHandler routes tasks by domain.TaskKind through a fixed table.
// Kinds without a route go to the default func, or fail if there is none.
type DispatchHandler struct {
	mu       sync.Mutex
	routes   map[domain.TaskKind]TaskFunc
	fallback TaskFunc
	scratch  domain.Scratch
}

// NewDispatchHandler creates a handler with the given routes. fallback may be nil.
func NewDispatchHandler(routes map[domain.TaskKind]TaskFunc, fallback TaskFunc) *DispatchHandler {
	r := make(map[domain.TaskKind]TaskFunc, len(routes))
	for k, fn := range routes {
		r[k] = fn
	}
	return &DispatchHandler{routes: r, fallback: fallback}
}

// ProcessTask runs the route for task.Kind.
func (h *DispatchHandler) ProcessTask(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	fn, ok := h.routes[task.Kind]
	if !ok {
		fn = h.fallback
	}
	if fn == nil {
		return domain.TaskResult{}, fmt.Errorf("no route for %s task", task.Kind)
	}

	var scratch domain.Scratch
	res, err := fn(ctx, task, &scratch)

	h.mu.Lock()
	h.scratch = merge(h.scratch, scratch)
	h.mu.Unlock()
	return res, err
}

// Knowledge returns a copy of everything the routes have recorded.
func (h *DispatchHandler) Knowledge() domain.Scratch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scratch.Clone()
}

func merge(dst, src domain.Scratch) domain.Scratch {
	dst.Expertise = append(dst.Expertise, src.Expertise...)
	dst.Insights = append(dst.Insights, src.Insights...)
	dst.Patterns = append(dst.Patterns, src.Patterns...)
	dst.BestPractices = append(dst.BestPractices, src.BestPractices...)
	if len(src.DomainInsights) > 0 && dst.DomainInsights == nil {
		dst.DomainInsights = make(map[string]string, len(src.DomainInsights))
	}
	for k, v := range src.DomainInsights {
		dst.DomainInsights[k] = v
	}
	return dst
}

// DispatchFactory returns a HandlerFactory building a DispatchHandler per worker.
func DispatchFactory(routes map[domain.TaskKind]TaskFunc, fallback TaskFunc) ports.HandlerFactory {
	return func(ctx context.Context, req ports.SpawnRequest) (ports.TaskHandler, error) {
		return NewDispatchHandler(routes, fallback), nil
	}
}

var _ ports.TaskHandler = (*DispatchHandler)(nil)
