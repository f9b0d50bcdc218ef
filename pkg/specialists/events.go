package specialists

import "github.com/bft-labs/specialists/internal/app"

// State is the lifecycle state of a Specialists instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns the state name.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a lifecycle state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives notifications from a running coordinator.
// Methods are called synchronously and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSpawn(event LifecycleEvent)
	OnDissolve(event LifecycleEvent)
}

// NoopEventHandler implements EventHandler with empty methods. Embed it to
// handle only some events.
type NoopEventHandler struct{}

func (NoopEventHandler) OnStateChange(StateChangeEvent) {}
func (NoopEventHandler) OnSpawn(LifecycleEvent)         {}
func (NoopEventHandler) OnDissolve(LifecycleEvent)      {}

// eventEmitterWrapper adapts EventHandler to the internal emitter and callbacks.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) onSpawn(ev LifecycleEvent) {
	if e.handler != nil {
		e.handler.OnSpawn(ev)
	}
}

func (e *eventEmitterWrapper) onDissolve(ev LifecycleEvent) {
	if e.handler != nil {
		e.handler.OnDissolve(ev)
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
