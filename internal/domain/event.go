package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	EventSpawn    EventType = "spawn"
	EventDissolve EventType = "dissolve"
)

// Dissolve reasons used by the coordinator itself. Callers may pass any string.
const (
	ReasonCompleted   = "completed"
	ReasonIdleTimeout = "idle_timeout"
	ReasonShutdown    = "shutdown"
)

// LifecycleEvent is an immutable audit record of a spawn or dissolve.
type LifecycleEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	WorkerID  string    `json:"worker_id"`
	Category  string    `json:"category"`
	Subtype   string    `json:"subtype"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// NewLifecycleEvent stamps a new event for w with a random id.
func NewLifecycleEvent(typ EventType, w *Worker, at time.Time, reason string) LifecycleEvent {
	return LifecycleEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		WorkerID:  w.ID(),
		Category:  w.Category(),
		Subtype:   w.Subtype(),
		Timestamp: at,
		Reason:    reason,
	}
}
