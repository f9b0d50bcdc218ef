package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkerState represents the lifecycle state of a worker.
type WorkerState int

const (
	WorkerSpawned WorkerState = iota
	WorkerActive
	WorkerDissolving
	WorkerDissolved
)

// String returns a human-readable representation of the state.
func (s WorkerState) String() string {
	switch s {
	case WorkerSpawned:
		return "spawned"
	case WorkerActive:
		return "active"
	case WorkerDissolving:
		return "dissolving"
	case WorkerDissolved:
		return "dissolved"
	default:
		return "unknown"
	}
}

// Live reports whether a worker in this state still belongs in the active table.
func (s WorkerState) Live() bool {
	return s == WorkerSpawned || s == WorkerActive
}

// Worker is an ephemeral specialist bound to a category and subtype.
// Identity fields are immutable; state and activity are guarded by mu.
type Worker struct {
	id        string
	category  string
	subtype   string
	spawnedAt time.Time

	mu           sync.RWMutex
	state        WorkerState
	lastActivity time.Time
	inFlight     int
}

// NewWorker creates a worker in WorkerSpawned with spawnedAt and
// lastActivityAt both set to now.
func NewWorker(id, category, subtype string, now time.Time) *Worker {
	return &Worker{
		id:           id,
		category:     category,
		subtype:      subtype,
		spawnedAt:    now,
		state:        WorkerSpawned,
		lastActivity: now,
	}
}

// NewWorkerID builds an id of the form category-subtype-<unixmillis>-<suffix>.
// The suffix is the first 8 hex characters of a random UUID.
func NewWorkerID(category, subtype string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%d-%s", category, subtype, now.UnixMilli(), suffix)
}

func (w *Worker) ID() string           { return w.id }
func (w *Worker) Category() string     { return w.category }
func (w *Worker) Subtype() string      { return w.subtype }
func (w *Worker) SpawnedAt() time.Time { return w.spawnedAt }

// State returns the current lifecycle state.
func (w *Worker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastActivityAt returns the time of the most recent recorded activity.
func (w *Worker) LastActivityAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastActivity
}

// InFlight returns the number of tasks currently executing on the worker.
func (w *Worker) InFlight() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.inFlight
}

// Touch records activity at t. Older timestamps are ignored.
func (w *Worker) Touch(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.After(w.lastActivity) {
		w.lastActivity = t
	}
}

// BeginTask marks a task in flight and promotes a spawned worker to active.
func (w *Worker) BeginTask() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Live() {
		return fmt.Errorf("%w: %s is %s", ErrWorkerNotActive, w.id, w.state)
	}
	w.state = WorkerActive
	w.inFlight++
	return nil
}

// EndTask marks a task as finished.
func (w *Worker) EndTask() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight > 0 {
		w.inFlight--
	}
}

// TransitionTo attempts to move the worker to a new state.
// Returns ErrInvalidTransition if the transition is not valid.
func (w *Worker) TransitionTo(next WorkerState) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.state
	switch prev {
	case WorkerSpawned:
		if next != WorkerActive && next != WorkerDissolving {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
		}
	case WorkerActive:
		if next != WorkerDissolving {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
		}
	case WorkerDissolving:
		if next != WorkerDissolved {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
		}
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
	}

	w.state = next
	return nil
}

// Info returns a point-in-time copy of the worker suitable for display or encoding.
func (w *Worker) Info() WorkerInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerInfo{
		ID:             w.id,
		Category:       w.category,
		Subtype:        w.subtype,
		State:          w.state.String(),
		SpawnedAt:      w.spawnedAt,
		LastActivityAt: w.lastActivity,
		InFlight:       w.inFlight,
	}
}

// WorkerInfo is a read-only view of a worker.
type WorkerInfo struct {
	ID             string    `json:"id" yaml:"id"`
	Category       string    `json:"category" yaml:"category"`
	Subtype        string    `json:"subtype" yaml:"subtype"`
	State          string    `json:"state" yaml:"state"`
	SpawnedAt      time.Time `json:"spawned_at" yaml:"spawned_at"`
	LastActivityAt time.Time `json:"last_activity_at" yaml:"last_activity_at"`
	InFlight       int       `json:"in_flight" yaml:"in_flight"`
}
