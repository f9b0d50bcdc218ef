package specialists

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/bft-labs/specialists/internal/adapters/audit"
	"github.com/bft-labs/specialists/internal/adapters/clock"
	"github.com/bft-labs/specialists/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/specialists/internal/adapters/http"
	"github.com/bft-labs/specialists/internal/adapters/policy"
	"github.com/bft-labs/specialists/internal/app"
	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
	"github.com/bft-labs/specialists/pkg/log"
)

// Specialists coordinates short-lived workers. Use New() to create an
// instance, then Start() before spawning.
type Specialists struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	manager   *app.Manager
	registry  *app.Registry
	logger    ports.Logger
	owner     ports.Owner
	audit     *auditFanout

	plugins []Plugin

	mu     sync.RWMutex
	cancel context.CancelFunc
}

// New creates a new Specialists instance with the given configuration.
// The instance is created in StateStopped; call Start() to accept work.
// Returns an error if configuration is invalid or a handler cannot be bound.
func New(cfg Config, opts ...Option) (*Specialists, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger = log.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	lifecycle := app.NewLifecycle(logger, emitter)

	regOpts := []app.RegistryOption{app.WithRegistryLogger(logger)}
	if o.fallback != nil {
		regOpts = append(regOpts, app.WithFallback(o.fallback))
	}
	registry := app.NewRegistry(o.catalog, regOpts...)
	for _, b := range o.handlers {
		if err := registry.Register(b.category, b.subtype, b.factory); err != nil {
			return nil, err
		}
	}

	validators := policy.Chain{policy.NewStructValidator()}
	if len(cfg.Deny) > 0 {
		validators = append(validators, policy.NewDenyList(cfg.Deny...))
	}
	validators = append(validators, o.validators...)
	for _, p := range o.plugins {
		if v, ok := p.(ports.IntentValidator); ok {
			validators = append(validators, v)
		}
	}

	repo := o.repo
	if repo == nil && cfg.KnowledgeDir != "" {
		repo = fs.NewKnowledgeFileRepository(cfg.KnowledgeDir)
	}

	var clk ports.Clock = clock.Real{}
	if o.clock != nil {
		clk = o.clock
	}

	owner := o.owner
	if owner == nil {
		owner = app.NewRoster("default")
	}

	sinks := &auditFanout{static: audit.Multi(o.auditSinks)}

	manager := app.NewManager(app.ManagerConfig{
		MaxConcurrent:     cfg.MaxConcurrent,
		MaxPerCategory:    cfg.MaxPerCategory,
		IdleTimeout:       cfg.IdleTimeout,
		KnowledgeTransfer: cfg.KnowledgeTransferEnabled,
		KnowledgeCap:      cfg.KnowledgeCap,
		MaxTaskDuration:   cfg.MaxTaskDuration,
	}, app.ManagerDeps{
		Registry:  registry,
		Validator: validators,
		Audit:     sinks,
		Knowledge: repo,
		Clock:     clk,
		Logger:    logger,
		Callbacks: app.Callbacks{
			OnSpawn:    emitter.onSpawn,
			OnDissolve: emitter.onDissolve,
		},
	})

	return &Specialists{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		manager:   manager,
		registry:  registry,
		logger:    logger,
		owner:     owner,
		audit:     sinks,
		plugins:   o.plugins,
	}, nil
}

// Start loads persisted knowledge, starts idle eviction and initializes
// plugins. Returns an error if already running or if startup fails.
// The provided context bounds the lifetime of the coordinator.
func (s *Specialists) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	if err := s.openSinks(); err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "audit sink: "+err.Error())
		return err
	}

	if err := s.manager.LoadKnowledge(ctx); err != nil {
		s.logger.Warn("knowledge load failed, starting empty", ports.Err(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)

	s.lifecycle.Go(func() {
		if err := s.manager.Serve(runCtx); err != nil {
			s.logger.Error("eviction loop error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	if err := s.lifecycle.TransitionTo(app.StateRunning, "eviction loop started"); err != nil {
		return err
	}

	pluginCfg := PluginConfig{
		Logger:       s.logger,
		Coordinator:  s,
		KnowledgeDir: s.config.KnowledgeDir,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			s.shutdownPlugins(s.plugins[:i])
			cancel()
			_ = s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
			s.closeSinks()
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	return nil
}

// Stop shuts down plugins, dissolves every remaining worker with reason
// "shutdown" and saves knowledge.
// Waits up to 30 seconds before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Specialists) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}

	s.mu.Unlock()

	// Plugins go first so none of them spawns into a draining coordinator.
	s.shutdownPlugins(s.plugins)

	if s.cancel != nil {
		s.cancel()
	}

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	s.closeSinks()

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Specialists) Status() State {
	return convertState(s.lifecycle.State())
}

// Spawn creates a worker for category/subtype. owner may be nil, in which
// case the default owner is used. Returns ErrNotRunning unless running.
func (s *Specialists) Spawn(ctx context.Context, category, subtype string, spawnCtx map[string]string, owner Owner) (*Worker, error) {
	if !s.lifecycle.Running() {
		return nil, domain.ErrNotRunning
	}
	if owner == nil {
		owner = s.owner
	}
	return s.manager.Spawn(ctx, category, subtype, spawnCtx, owner)
}

// Dissolve tears w down. It reports false with a nil error if w was
// already dissolved or is not managed here.
func (s *Specialists) Dissolve(ctx context.Context, w *Worker, reason string) (bool, error) {
	return s.manager.Dissolve(ctx, w, reason)
}

// DissolveByID is Dissolve for a worker id.
func (s *Specialists) DissolveByID(ctx context.Context, id, reason string) (bool, error) {
	return s.manager.DissolveByID(ctx, id, reason)
}

// Execute runs task on w.
func (s *Specialists) Execute(ctx context.Context, w *Worker, task Task) (TaskResult, error) {
	return s.manager.Execute(ctx, w, task)
}

// UpdateActivity marks w as active now, pushing back its idle eviction.
func (s *Specialists) UpdateActivity(w *Worker) error {
	return s.manager.UpdateActivity(w)
}

// Get returns the live worker with the given id.
func (s *Specialists) Get(id string) (*Worker, bool) { return s.manager.Get(id) }

// IsFallback reports whether the worker runs on the fallback handler.
func (s *Specialists) IsFallback(id string) bool { return s.manager.IsFallback(id) }

// Active returns every live worker.
func (s *Specialists) Active() []*Worker { return s.manager.Active() }

// ActiveByCategory returns the live workers of one category.
func (s *Specialists) ActiveByCategory(category string) []*Worker {
	return s.manager.ActiveByCategory(category)
}

// Events returns the audit log in emission order.
func (s *Specialists) Events() []LifecycleEvent { return s.manager.Events() }

// Metrics summarizes the audit log and the live table.
func (s *Specialists) Metrics() Metrics { return s.manager.Metrics() }

// Knowledge returns the stored snapshots for category/subtype, oldest first.
func (s *Specialists) Knowledge(category, subtype string) []KnowledgeSnapshot {
	return s.manager.Knowledge(category, subtype)
}

// Performance returns the performance record of a worker, live or dissolved.
func (s *Specialists) Performance(workerID string) (PerformanceRecord, bool) {
	return s.manager.Performance(workerID)
}

// PerformanceRecords returns every performance record.
func (s *Specialists) PerformanceRecords() []PerformanceRecord {
	return s.manager.PerformanceRecords()
}

// Catalog returns the categories and subtypes workers can be spawned for.
func (s *Specialists) Catalog() Catalog {
	c := make(Catalog)
	for _, cat := range s.registry.Categories() {
		c[cat] = s.registry.Subtypes(cat)
	}
	return c
}

// Checkpoint saves knowledge now. It is a no-op without a repository.
func (s *Specialists) Checkpoint(ctx context.Context) error {
	return s.manager.SaveKnowledge(ctx)
}

func (s *Specialists) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			s.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// openSinks opens the file and webhook sinks named in the config.
func (s *Specialists) openSinks() error {
	var dynamic []closableSink
	if s.config.AuditLog != "" {
		f, err := fs.OpenAuditFile(s.config.AuditLog)
		if err != nil {
			return err
		}
		dynamic = append(dynamic, closableSink{f, func(context.Context) error { return f.Close() }})
	}
	if s.config.AuditWebhookURL != "" {
		wh := httpAdapter.NewWebhookSink(httpAdapter.WebhookConfig{
			URL:         s.config.AuditWebhookURL,
			AuthKey:     s.config.AuthKey,
			PostTimeout: s.config.HTTPTimeout,
		}, s.opts.httpClient, s.logger)
		dynamic = append(dynamic, closableSink{wh, wh.Close})
	}
	s.audit.set(dynamic)
	return nil
}

func (s *Specialists) closeSinks() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTPTimeout)
	defer cancel()
	for _, c := range s.audit.set(nil) {
		if err := c.close(ctx); err != nil {
			s.logger.Warn("audit sink close failed", ports.Err(err))
		}
	}
}

var _ Coordinator = (*Specialists)(nil)
