package specialists

import "context"

// Plugin extends a coordinator with optional behavior.
// Plugins are initialized in registration order when Start is called and
// shut down in reverse order by Stop. A plugin that also implements
// IntentValidator is consulted on every spawn and dissolve.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize is called from Start after the coordinator is running.
	// ctx is canceled when the coordinator stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases the plugin's resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to each plugin at initialization.
type PluginConfig struct {
	Logger       Logger
	Coordinator  Coordinator
	KnowledgeDir string
}

// Coordinator is the part of Specialists that plugins drive.
type Coordinator interface {
	Spawn(ctx context.Context, category, subtype string, spawnCtx map[string]string, owner Owner) (*Worker, error)
	Dissolve(ctx context.Context, w *Worker, reason string) (bool, error)
	DissolveByID(ctx context.Context, id, reason string) (bool, error)
	Execute(ctx context.Context, w *Worker, task Task) (TaskResult, error)
	UpdateActivity(w *Worker) error
	IsFallback(id string) bool
	Active() []*Worker
	Metrics() Metrics
	Knowledge(category, subtype string) []KnowledgeSnapshot
	Checkpoint(ctx context.Context) error
	Status() State
}
