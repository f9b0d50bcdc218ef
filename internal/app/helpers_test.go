package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/specialists/internal/adapters/clock"
	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// mockLogger records messages for assertions.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, fields ...ports.Field) { l.log("DEBUG", msg) }
func (l *mockLogger) Info(msg string, fields ...ports.Field)  { l.log("INFO", msg) }
func (l *mockLogger) Warn(msg string, fields ...ports.Field)  { l.log("WARN", msg) }
func (l *mockLogger) Error(msg string, fields ...ports.Field) { l.log("ERROR", msg) }

func (l *mockLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+" "+msg)
}

func (l *mockLogger) Has(line string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == line {
			return true
		}
	}
	return false
}

// mockValidator declines intents matching reject.
type mockValidator struct {
	mu     sync.Mutex
	reject func(domain.Intent) string
	err    error
	seen   []domain.Intent
}

func (v *mockValidator) ValidateIntent(_ context.Context, intent domain.Intent) (domain.Verdict, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seen = append(v.seen, intent)
	if v.err != nil {
		return domain.Verdict{}, v.err
	}
	if v.reject != nil {
		if reason := v.reject(intent); reason != "" {
			return domain.Reject(reason), nil
		}
	}
	return domain.Accept(), nil
}

// failingOwner tracks workers but refuses every knowledge handoff.
type failingOwner struct {
	*Roster
	panics bool
}

func (o *failingOwner) ReceiveKnowledge(context.Context, *domain.Worker, domain.KnowledgeSnapshot) error {
	if o.panics {
		panic("owner exploded")
	}
	return errors.New("owner unavailable")
}

// recordingSink collects audit events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, ev domain.LifecycleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) Events() []domain.LifecycleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LifecycleEvent(nil), s.events...)
}

// memoryRepo is an in-memory KnowledgeRepository.
type memoryRepo struct {
	mu    sync.Mutex
	logs  map[domain.KnowledgeKey][]domain.KnowledgeSnapshot
	saves int
}

func (r *memoryRepo) Load(context.Context) (map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, nil
}

func (r *memoryRepo) Save(_ context.Context, logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = logs
	r.saves++
	return nil
}

// scratchHandler returns fixed knowledge and counts releases.
type scratchHandler struct {
	scratch  domain.Scratch
	fail     bool
	released int
}

func (h *scratchHandler) ProcessTask(_ context.Context, task domain.Task) (domain.TaskResult, error) {
	if h.fail {
		return domain.TaskResult{}, fmt.Errorf("cannot handle %s", task.ID)
	}
	return domain.TaskResult{Summary: "done " + task.ID}, nil
}

func (h *scratchHandler) Knowledge() domain.Scratch { return h.scratch }

func (h *scratchHandler) Release(context.Context) error {
	h.released++
	return nil
}

func staticFactory(h ports.TaskHandler) ports.HandlerFactory {
	return func(context.Context, ports.SpawnRequest) (ports.TaskHandler, error) { return h, nil }
}

type testEnv struct {
	manager   *Manager
	clock     *clock.Fake
	registry  *Registry
	validator *mockValidator
	sink      *recordingSink
	logger    *mockLogger
	idle      chan idleCheck
}

type idleCheck struct {
	id      string
	evicted bool
}

// newTestEnv builds a manager on a fake clock with zero-delay placeholders.
func newTestEnv(t *testing.T, cfg ManagerConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:     clock.NewFake(testEpoch),
		validator: &mockValidator{},
		sink:      &recordingSink{},
		logger:    &mockLogger{},
		idle:      make(chan idleCheck, 64),
	}
	env.registry = NewRegistry(domain.DefaultCatalog(),
		WithFallback(PlaceholderFactory(0)),
		WithRegistryLogger(env.logger),
	)
	env.manager = NewManager(cfg, ManagerDeps{
		Registry:  env.registry,
		Validator: env.validator,
		Audit:     env.sink,
		Clock:     env.clock,
		Logger:    env.logger,
		Callbacks: Callbacks{
			OnIdleCheck: func(id string, evicted bool) { env.idle <- idleCheck{id, evicted} },
		},
	})
	return env
}

// run starts the manager loop and stops it when the test ends.
func (e *testEnv) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.manager.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (e *testEnv) waitIdle(t *testing.T) idleCheck {
	t.Helper()
	select {
	case c := <-e.idle:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("eviction deadline did not fire")
		return idleCheck{}
	}
}
