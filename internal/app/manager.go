package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// ManagerConfig holds the capacity and eviction settings of a Manager.
type ManagerConfig struct {
	MaxConcurrent     int
	MaxPerCategory    int
	IdleTimeout       time.Duration
	KnowledgeTransfer bool
	KnowledgeCap      int

	// MaxTaskDuration is carried for callers and reporting. Nothing enforces it.
	MaxTaskDuration time.Duration
}

// DefaultManagerConfig returns the stock limits: 20 workers, 8 per category,
// 30 minutes idle timeout, knowledge transfer on.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxConcurrent:     20,
		MaxPerCategory:    8,
		IdleTimeout:       30 * time.Minute,
		KnowledgeTransfer: true,
		KnowledgeCap:      DefaultKnowledgeCap,
		MaxTaskDuration:   2 * time.Hour,
	}
}

// Callbacks are invoked synchronously after the corresponding operation
// completes. They must not call back into the Manager's mutating methods.
type Callbacks struct {
	OnSpawn    func(event domain.LifecycleEvent)
	OnDissolve func(event domain.LifecycleEvent)

	// OnIdleCheck runs after every eviction deadline fires. evicted reports
	// whether the worker was dissolved.
	OnIdleCheck func(workerID string, evicted bool)
}

// ManagerDeps are the collaborators of a Manager. Only Registry is required.
type ManagerDeps struct {
	Registry  *Registry
	Validator ports.IntentValidator
	Audit     ports.AuditSink
	Knowledge ports.KnowledgeRepository
	Clock     ports.Clock
	Logger    ports.Logger
	Callbacks Callbacks
}

type entry struct {
	worker   *domain.Worker
	handler  ports.TaskHandler
	owner    ports.Owner
	fallback bool
}

// Manager owns the active-worker table. It enforces quotas, sequences spawn
// and dissolve, evicts idle workers, and keeps the audit log.
type Manager struct {
	cfg       ManagerConfig
	registry  *Registry
	validator ports.IntentValidator
	audit     ports.AuditSink
	repo      ports.KnowledgeRepository
	clock     ports.Clock
	logger    ports.Logger
	callbacks Callbacks

	monitor   *Monitor
	knowledge *KnowledgeStore
	scheduler *Scheduler

	mu                sync.Mutex
	workers           map[string]*entry
	activeByCategory  map[string]int
	pending           int
	pendingByCategory map[string]int

	// spawning holds ids that are assigned but not yet in workers.
	spawning map[string]struct{}

	// auditMu serializes the in-memory log and the sink so both see events
	// in the same order.
	auditMu sync.Mutex
	events  []domain.LifecycleEvent
}

// NewManager creates a manager. Zero-valued limits in cfg fall back to
// DefaultManagerConfig.
func NewManager(cfg ManagerConfig, deps ManagerDeps) *Manager {
	def := DefaultManagerConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxPerCategory <= 0 {
		cfg.MaxPerCategory = def.MaxPerCategory
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.KnowledgeCap <= 0 {
		cfg.KnowledgeCap = def.KnowledgeCap
	}

	clk := deps.Clock
	if clk == nil {
		clk = wallClock{}
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewRegistry(nil, WithRegistryLogger(deps.Logger))
	}

	m := &Manager{
		cfg:               cfg,
		registry:          registry,
		validator:         deps.Validator,
		audit:             deps.Audit,
		repo:              deps.Knowledge,
		clock:             clk,
		logger:            loggerOrNoop(deps.Logger),
		callbacks:         deps.Callbacks,
		monitor:           NewMonitor(clk),
		knowledge:         NewKnowledgeStore(cfg.KnowledgeCap),
		workers:           make(map[string]*entry),
		activeByCategory:  make(map[string]int),
		pendingByCategory: make(map[string]int),
		spawning:          make(map[string]struct{}),
	}
	m.scheduler = NewScheduler(clk, m.logger, m.checkIdle)
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() ManagerConfig { return m.cfg }

// Spawn creates a worker for (category, subtype) on behalf of owner.
// owner may be nil.
func (m *Manager) Spawn(ctx context.Context, category, subtype string, spawnCtx map[string]string, owner ports.Owner) (*domain.Worker, error) {
	res, err := m.registry.Resolve(category, subtype)
	if err != nil {
		return nil, err
	}

	if err := m.reserve(category); err != nil {
		m.logger.Warn("spawn refused",
			ports.String("category", category),
			ports.String("subtype", subtype),
			ports.Err(err),
		)
		return nil, err
	}
	reserved := true
	defer func() {
		if reserved {
			m.mu.Lock()
			m.releaseLocked(category)
			m.mu.Unlock()
		}
	}()

	intent := domain.Intent{
		Action:   domain.ActionSpawn,
		Category: category,
		Subtype:  subtype,
		Context:  spawnCtx,
	}
	if err := m.validate(ctx, intent); err != nil {
		return nil, err
	}

	handler, err := m.build(ctx, res.Factory, ports.SpawnRequest{Category: category, Subtype: subtype, Context: spawnCtx})
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", domain.ErrFactoryFailed, category, subtype, err)
	}

	now := m.clock.Now()
	m.mu.Lock()
	w := domain.NewWorker(domain.NewWorkerID(category, subtype, now), category, subtype, now)
	for m.idTakenLocked(w.ID()) {
		w = domain.NewWorker(domain.NewWorkerID(category, subtype, now), category, subtype, now)
	}
	m.spawning[w.ID()] = struct{}{}
	m.mu.Unlock()

	// The worker is tracked, monitored and audited before it is published,
	// so a dissolve can never run ahead of these steps.
	if owner != nil {
		m.phase("owner track", w, func() error { owner.Track(w); return nil })
	}
	m.monitor.Start(w)
	ev := domain.NewLifecycleEvent(domain.EventSpawn, w, now, "")
	m.record(ctx, ev)

	m.mu.Lock()
	delete(m.spawning, w.ID())
	m.releaseLocked(category)
	reserved = false
	m.workers[w.ID()] = &entry{worker: w, handler: handler, owner: owner, fallback: res.Fallback}
	m.activeByCategory[category]++
	m.scheduler.Schedule(w.ID(), now.Add(m.cfg.IdleTimeout))
	active := len(m.workers)
	m.mu.Unlock()

	if m.callbacks.OnSpawn != nil {
		m.callbacks.OnSpawn(ev)
	}

	m.logger.Info("worker spawned",
		ports.Worker(w.ID()),
		ports.String("category", category),
		ports.String("subtype", subtype),
		ports.Bool("fallback", res.Fallback),
		ports.Int("active", active),
	)
	return w, nil
}

// Dissolve tears a worker down. It returns false, nil when the worker is
// already gone or being dissolved by another caller. An empty reason means
// domain.ReasonCompleted.
func (m *Manager) Dissolve(ctx context.Context, w *domain.Worker, reason string) (bool, error) {
	if w == nil {
		return false, nil
	}
	return m.DissolveByID(ctx, w.ID(), reason)
}

// DissolveByID is Dissolve for callers that only hold the worker id.
func (m *Manager) DissolveByID(ctx context.Context, id, reason string) (bool, error) {
	if reason == "" {
		reason = domain.ReasonCompleted
	}

	m.mu.Lock()
	e, ok := m.workers[id]
	m.mu.Unlock()
	if !ok || !e.worker.State().Live() {
		return false, nil
	}
	w := e.worker

	if reason == domain.ReasonCompleted && w.InFlight() > 0 {
		m.logger.Warn("dissolving worker with task in flight",
			ports.Worker(id),
			ports.Int("in_flight", w.InFlight()),
		)
	}

	intent := domain.Intent{
		Action:   domain.ActionDissolve,
		Category: w.Category(),
		Subtype:  w.Subtype(),
		WorkerID: id,
		Reason:   reason,
	}
	if err := m.validate(ctx, intent); err != nil {
		return false, err
	}

	// Claim the worker. Only one caller gets past this point.
	m.mu.Lock()
	e, ok = m.workers[id]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	if reason == domain.ReasonIdleTimeout {
		// Activity may have landed while the intent was being validated.
		last := e.worker.LastActivityAt()
		if m.clock.Now().Sub(last) < m.cfg.IdleTimeout {
			if _, armed := m.scheduler.Deadline(id); !armed {
				m.scheduler.Schedule(id, last.Add(m.cfg.IdleTimeout))
			}
			m.mu.Unlock()
			m.logger.Debug("idle eviction dropped, worker active again", ports.Worker(id))
			return false, nil
		}
	}
	if e.worker.TransitionTo(domain.WorkerDissolving) != nil {
		m.mu.Unlock()
		return false, nil
	}
	handler, owner := e.handler, e.owner
	m.mu.Unlock()

	if m.cfg.KnowledgeTransfer {
		m.transferKnowledge(ctx, w, handler, owner)
	}

	m.monitor.Stop(w)

	if r, ok := handler.(ports.Releaser); ok {
		m.phase("release resources", w, func() error { return r.Release(ctx) })
	}

	now := m.clock.Now()
	m.mu.Lock()
	e.handler = nil
	e.owner = nil
	delete(m.workers, id)
	if m.activeByCategory[w.Category()]--; m.activeByCategory[w.Category()] <= 0 {
		delete(m.activeByCategory, w.Category())
	}
	m.scheduler.Cancel(id)
	_ = w.TransitionTo(domain.WorkerDissolved)
	active := len(m.workers)
	m.mu.Unlock()

	if owner != nil {
		m.phase("owner untrack", w, func() error { owner.Untrack(w); return nil })
	}

	ev := domain.NewLifecycleEvent(domain.EventDissolve, w, now, reason)
	m.record(ctx, ev)
	if m.callbacks.OnDissolve != nil {
		m.callbacks.OnDissolve(ev)
	}

	m.logger.Info("worker dissolved",
		ports.Worker(id),
		ports.String("reason", reason),
		ports.Duration("lifespan", now.Sub(w.SpawnedAt())),
		ports.Int("active", active),
	)
	return true, nil
}

// UpdateActivity resets the worker's idle clock and moves its eviction
// deadline. Returns ErrWorkerNotActive if the worker is not in the table.
func (m *Manager) UpdateActivity(w *domain.Worker) error {
	if w == nil {
		return fmt.Errorf("%w: nil worker", domain.ErrWorkerNotActive)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.workers[w.ID()]
	if !ok || !e.worker.State().Live() {
		return fmt.Errorf("%w: %s", domain.ErrWorkerNotActive, w.ID())
	}
	now := m.clock.Now()
	e.worker.Touch(now)
	m.scheduler.Schedule(w.ID(), now.Add(m.cfg.IdleTimeout))
	return nil
}

// Execute runs task on the worker's handler, recording the outcome in the
// performance monitor and resetting the idle clock before and after.
func (m *Manager) Execute(ctx context.Context, w *domain.Worker, task domain.Task) (domain.TaskResult, error) {
	if w == nil {
		return domain.TaskResult{}, fmt.Errorf("%w: nil worker", domain.ErrWorkerNotActive)
	}
	m.mu.Lock()
	e, ok := m.workers[w.ID()]
	var handler ports.TaskHandler
	if ok {
		handler = e.handler
	}
	m.mu.Unlock()
	if !ok || handler == nil {
		return domain.TaskResult{}, fmt.Errorf("%w: %s", domain.ErrWorkerNotActive, w.ID())
	}

	if err := e.worker.BeginTask(); err != nil {
		return domain.TaskResult{}, err
	}
	defer e.worker.EndTask()
	_ = m.UpdateActivity(w)

	res, err := m.process(ctx, handler, task)
	_ = m.UpdateActivity(w)
	if err != nil {
		m.monitor.RecordError(w)
		return res, fmt.Errorf("task %s on %s: %w", task.ID, w.ID(), err)
	}

	m.monitor.RecordTaskCompletion(w)
	res.WorkerID = w.ID()
	if res.TaskID == "" {
		res.TaskID = task.ID
	}
	if res.CompletedAt.IsZero() {
		res.CompletedAt = m.clock.Now()
	}
	return res, nil
}

// Get returns the active worker with the given id.
func (m *Manager) Get(id string) (*domain.Worker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.workers[id]
	if !ok {
		return nil, false
	}
	return e.worker, true
}

// IsFallback reports whether the active worker runs the fallback handler.
func (m *Manager) IsFallback(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.workers[id]
	return ok && e.fallback
}

// Active returns the active workers ordered by spawn time.
func (m *Manager) Active() []*domain.Worker {
	return m.filter(func(*domain.Worker) bool { return true })
}

// ActiveByCategory returns the active workers of one category.
func (m *Manager) ActiveByCategory(category string) []*domain.Worker {
	return m.filter(func(w *domain.Worker) bool { return w.Category() == category })
}

// Count returns the number of active workers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Events returns a copy of the audit log.
func (m *Manager) Events() []domain.LifecycleEvent {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	return append([]domain.LifecycleEvent(nil), m.events...)
}

// Metrics summarizes the audit log and the active table.
func (m *Manager) Metrics() domain.Metrics {
	events := m.Events()

	m.mu.Lock()
	dist := make(map[string]int, len(m.activeByCategory))
	for c, n := range m.activeByCategory {
		dist[c] = n
	}
	active := len(m.workers)
	m.mu.Unlock()

	out := domain.Metrics{
		CurrentlyActive:        active,
		CategoryDistribution:   dist,
		AverageLifespanMinutes: domain.AverageLifespanMinutes(events),
	}
	for _, e := range events {
		switch e.Type {
		case domain.EventSpawn:
			out.TotalSpawned++
		case domain.EventDissolve:
			out.TotalDissolved++
		}
	}
	return out
}

// Knowledge returns the knowledge log for (category, subtype), oldest first.
func (m *Manager) Knowledge(category, subtype string) []domain.KnowledgeSnapshot {
	return m.knowledge.Query(category, subtype)
}

// Performance returns the performance record of a worker, live or dissolved.
func (m *Manager) Performance(workerID string) (domain.PerformanceRecord, bool) {
	return m.monitor.Record(workerID)
}

// PerformanceRecords returns every performance record.
func (m *Manager) PerformanceRecords() []domain.PerformanceRecord {
	return m.monitor.Records()
}

// Run loads persisted knowledge, then drives idle eviction until ctx is
// canceled. On return every remaining worker has been dissolved with
// domain.ReasonShutdown and knowledge has been saved.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.LoadKnowledge(ctx); err != nil {
		m.logger.Warn("knowledge load failed, starting empty", ports.Err(err))
	}
	return m.Serve(ctx)
}

// Serve is Run without the initial knowledge load, for callers that load
// it themselves before accepting work.
func (m *Manager) Serve(ctx context.Context) error {
	err := m.scheduler.Run(ctx)

	m.Shutdown(context.WithoutCancel(ctx))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown dissolves all active workers and saves knowledge.
func (m *Manager) Shutdown(ctx context.Context) {
	for _, w := range m.Active() {
		if _, err := m.Dissolve(ctx, w, domain.ReasonShutdown); err != nil {
			m.logger.Warn("shutdown dissolve failed",
				ports.Worker(w.ID()),
				ports.Err(err),
			)
		}
	}
	if err := m.SaveKnowledge(ctx); err != nil {
		m.logger.Error("knowledge save failed", ports.Err(err))
	}
}

// LoadKnowledge replaces the store's contents with the repository's.
func (m *Manager) LoadKnowledge(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	logs, err := m.repo.Load(ctx)
	if err != nil {
		return err
	}
	m.knowledge.Restore(logs)
	m.logger.Info("knowledge loaded", ports.Int("logs", len(logs)))
	return nil
}

// SaveKnowledge writes the store's contents to the repository.
func (m *Manager) SaveKnowledge(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Save(ctx, m.knowledge.Snapshot())
}

// checkIdle is the eviction handler. It runs on the scheduler goroutine and
// recomputes idleness from the worker's current last activity.
func (m *Manager) checkIdle(ctx context.Context, id string) {
	m.mu.Lock()
	e, ok := m.workers[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	w := e.worker
	last := w.LastActivityAt()
	if m.clock.Now().Sub(last) < m.cfg.IdleTimeout {
		if _, armed := m.scheduler.Deadline(id); !armed {
			m.scheduler.Schedule(id, last.Add(m.cfg.IdleTimeout))
		}
		m.mu.Unlock()
		m.logger.Debug("idle check skipped, worker active again", ports.Worker(id))
		m.idleChecked(id, false)
		return
	}
	m.mu.Unlock()

	evicted, err := m.Dissolve(ctx, w, domain.ReasonIdleTimeout)
	if err != nil {
		m.logger.Warn("idle eviction failed", ports.Worker(id), ports.Err(err))
		m.mu.Lock()
		if _, still := m.workers[id]; still && w.State().Live() {
			m.scheduler.Schedule(id, m.clock.Now().Add(m.cfg.IdleTimeout))
		}
		m.mu.Unlock()
	}
	m.idleChecked(id, evicted)
}

func (m *Manager) idleChecked(id string, evicted bool) {
	if m.callbacks.OnIdleCheck != nil {
		m.callbacks.OnIdleCheck(id, evicted)
	}
}

// reserve claims a slot for category, failing with QuotaExceededError when
// active plus pending workers are already at a limit.
func (m *Manager) reserve(category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.workers)+m.pending >= m.cfg.MaxConcurrent {
		return &domain.QuotaExceededError{Scope: domain.QuotaGlobal, Limit: m.cfg.MaxConcurrent}
	}
	if m.activeByCategory[category]+m.pendingByCategory[category] >= m.cfg.MaxPerCategory {
		return &domain.QuotaExceededError{Scope: domain.QuotaCategory, Category: category, Limit: m.cfg.MaxPerCategory}
	}
	m.pending++
	m.pendingByCategory[category]++
	return nil
}

func (m *Manager) idTakenLocked(id string) bool {
	if _, ok := m.workers[id]; ok {
		return true
	}
	_, ok := m.spawning[id]
	return ok
}

func (m *Manager) releaseLocked(category string) {
	m.pending--
	if m.pendingByCategory[category]--; m.pendingByCategory[category] <= 0 {
		delete(m.pendingByCategory, category)
	}
}

func (m *Manager) validate(ctx context.Context, intent domain.Intent) error {
	if m.validator == nil {
		return nil
	}
	v, err := m.validator.ValidateIntent(ctx, intent)
	if err != nil {
		return &domain.IntentRejectedError{Action: intent.Action, Reason: err.Error()}
	}
	if !v.Accepted {
		return &domain.IntentRejectedError{Action: intent.Action, Reason: v.Reason}
	}
	return nil
}

func (m *Manager) build(ctx context.Context, f ports.HandlerFactory, req ports.SpawnRequest) (h ports.TaskHandler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	h, err = f(ctx, req)
	if err == nil && h == nil {
		err = errors.New("factory returned nil handler")
	}
	return h, err
}

func (m *Manager) process(ctx context.Context, h ports.TaskHandler, task domain.Task) (res domain.TaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.ProcessTask(ctx, task)
}

// transferKnowledge extracts the worker's knowledge, hands it to the owner
// and stores it. A failed handoff is logged and the snapshot is still stored.
func (m *Manager) transferKnowledge(ctx context.Context, w *domain.Worker, h ports.TaskHandler, owner ports.Owner) {
	var snap domain.KnowledgeSnapshot
	if !m.phase("extract knowledge", w, func() error {
		snap = Extract(w, h, m.clock.Now())
		return nil
	}) {
		snap = Extract(w, nil, m.clock.Now())
	}

	if owner != nil {
		m.phase("knowledge handoff", w, func() error {
			if err := owner.ReceiveKnowledge(ctx, w, snap); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrKnowledgeTransferFailed, err)
			}
			return nil
		})
	}

	m.knowledge.Store(w.Category(), w.Subtype(), snap)
}

// phase runs one best-effort dissolve step. Errors and panics are logged and
// reported as false; they never stop the caller.
func (m *Manager) phase(name string, w *domain.Worker, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("lifecycle phase panicked",
				ports.String("phase", name),
				ports.Worker(w.ID()),
				ports.Err(fmt.Errorf("panic: %v", r)),
			)
			ok = false
		}
	}()
	if err := fn(); err != nil {
		m.logger.Warn("lifecycle phase failed",
			ports.String("phase", name),
			ports.Worker(w.ID()),
			ports.Err(err),
		)
		return false
	}
	return true
}

func (m *Manager) record(ctx context.Context, ev domain.LifecycleEvent) {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	m.events = append(m.events, ev)
	if m.audit == nil {
		return
	}
	if err := m.audit.Record(ctx, ev); err != nil {
		m.logger.Warn("audit sink failed",
			ports.String("event_id", ev.ID),
			ports.String("type", string(ev.Type)),
			ports.Err(err),
		)
	}
}

func (m *Manager) filter(keep func(*domain.Worker) bool) []*domain.Worker {
	m.mu.Lock()
	out := make([]*domain.Worker, 0, len(m.workers))
	for _, e := range m.workers {
		if keep(e.worker) {
			out = append(out, e.worker)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SpawnedAt().Equal(out[j].SpawnedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].SpawnedAt().Before(out[j].SpawnedAt())
	})
	return out
}
