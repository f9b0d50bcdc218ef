package specialists_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/specialists/pkg/specialists"
)

// eventTracker records everything an EventHandler sees.
type eventTracker struct {
	mu        sync.Mutex
	states    []specialists.StateChangeEvent
	spawned   []specialists.LifecycleEvent
	dissolved []specialists.LifecycleEvent
}

func (e *eventTracker) OnStateChange(ev specialists.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, ev)
}

func (e *eventTracker) OnSpawn(ev specialists.LifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spawned = append(e.spawned, ev)
}

func (e *eventTracker) OnDissolve(ev specialists.LifecycleEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dissolved = append(e.dissolved, ev)
}

// noteHandler records each task's description as an insight.
type noteHandler struct {
	mu    sync.Mutex
	notes []string
}

func (h *noteHandler) ProcessTask(_ context.Context, task specialists.Task) (specialists.TaskResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = append(h.notes, task.Description)
	return specialists.TaskResult{TaskID: task.ID, Summary: "noted"}, nil
}

func (h *noteHandler) Knowledge() specialists.Scratch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return specialists.Scratch{Insights: append([]string(nil), h.notes...)}
}

func noteFactory(context.Context, specialists.SpawnRequest) (specialists.TaskHandler, error) {
	return &noteHandler{}, nil
}

func startTest(t *testing.T, cfg specialists.Config, opts ...specialists.Option) *specialists.Specialists {
	t.Helper()
	s, err := specialists.New(cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := specialists.DefaultConfig()
	cfg.MaxPerCategory = 30

	_, err := specialists.New(cfg)
	assert.ErrorIs(t, err, specialists.ErrInvalidConfig)
}

func TestNew_BadHandlerBinding(t *testing.T) {
	_, err := specialists.New(specialists.DefaultConfig(),
		specialists.WithHandler("technical", "quantum", noteFactory))
	assert.ErrorIs(t, err, specialists.ErrUnknownSubtype)

	_, err = specialists.New(specialists.DefaultConfig(),
		specialists.WithHandler("technical", "security", noteFactory),
		specialists.WithHandler("technical", "security", noteFactory))
	assert.ErrorIs(t, err, specialists.ErrDuplicateFactory)
}

func TestSpawn_RequiresRunning(t *testing.T) {
	s, err := specialists.New(specialists.DefaultConfig())
	require.NoError(t, err)

	_, err = s.Spawn(context.Background(), "technical", "security", nil, nil)
	assert.ErrorIs(t, err, specialists.ErrNotRunning)
}

func TestSpecialists_SpawnExecuteDissolve(t *testing.T) {
	events := &eventTracker{}
	s := startTest(t, specialists.DefaultConfig(),
		specialists.WithHandler("technical", "security", noteFactory),
		specialists.WithEventHandler(events),
	)
	ctx := context.Background()

	w, err := s.Spawn(ctx, "technical", "security", map[string]string{"repo": "api"}, nil)
	require.NoError(t, err)
	assert.False(t, s.IsFallback(w.ID()))
	assert.Equal(t, specialists.WorkerSpawned, w.State())

	res, err := s.Execute(ctx, w, specialists.Task{ID: "t1", Kind: specialists.TaskReview, Description: "check tls config"})
	require.NoError(t, err)
	assert.Equal(t, "noted", res.Summary)
	assert.Equal(t, specialists.WorkerActive, w.State())

	ok, err := s.Dissolve(ctx, w, specialists.ReasonCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	snaps := s.Knowledge("technical", "security")
	require.Len(t, snaps, 1)
	assert.Equal(t, []string{"check tls config"}, snaps[0].Insights)

	m := s.Metrics()
	assert.Equal(t, 1, m.TotalSpawned)
	assert.Equal(t, 1, m.TotalDissolved)
	assert.Equal(t, 0, m.CurrentlyActive)

	rec, ok := s.Performance(w.ID())
	require.True(t, ok)
	assert.Equal(t, 1, rec.TasksCompleted)

	events.mu.Lock()
	defer events.mu.Unlock()
	require.Len(t, events.spawned, 1)
	require.Len(t, events.dissolved, 1)
	assert.Equal(t, specialists.ReasonCompleted, events.dissolved[0].Reason)
	assert.Equal(t, specialists.StateRunning, events.states[len(events.states)-1].Current)
}

func TestSpecialists_DenyList(t *testing.T) {
	cfg := specialists.DefaultConfig()
	cfg.Deny = []string{"business", "technical/devops"}
	s := startTest(t, cfg)
	ctx := context.Background()

	_, err := s.Spawn(ctx, "business", "legal", nil, nil)
	var rejected *specialists.IntentRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "denied")

	_, err = s.Spawn(ctx, "technical", "devops", nil, nil)
	assert.ErrorIs(t, err, specialists.ErrIntentRejected)

	_, err = s.Spawn(ctx, "technical", "security", nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, s.ActiveByCategory("business"))
}

// vetoPlugin is a plugin that is also an intent validator.
type vetoPlugin struct{ category string }

func (p *vetoPlugin) Name() string                                               { return "veto" }
func (p *vetoPlugin) Initialize(context.Context, specialists.PluginConfig) error { return nil }
func (p *vetoPlugin) Shutdown(context.Context) error                             { return nil }

func (p *vetoPlugin) ValidateIntent(_ context.Context, in specialists.Intent) (specialists.Verdict, error) {
	if in.Category == p.category {
		return specialists.Verdict{Reason: "vetoed"}, nil
	}
	return specialists.Verdict{Accepted: true}, nil
}

func TestSpecialists_PluginValidator(t *testing.T) {
	s := startTest(t, specialists.DefaultConfig(), specialists.WithPlugin(&vetoPlugin{category: "creative"}))

	_, err := s.Spawn(context.Background(), "creative", "design", nil, nil)
	assert.ErrorIs(t, err, specialists.ErrIntentRejected)

	_, err = s.Spawn(context.Background(), "product", "ux", nil, nil)
	assert.NoError(t, err)
}

func TestSpecialists_CategoryQuota(t *testing.T) {
	s := startTest(t, specialists.DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := s.Spawn(ctx, "technical", "testing", nil, nil)
		require.NoError(t, err)
	}
	_, err := s.Spawn(ctx, "technical", "testing", nil, nil)

	var quota *specialists.QuotaExceededError
	require.True(t, errors.As(err, &quota))
	assert.Equal(t, "technical", quota.Category)
	assert.Equal(t, 8, quota.Limit)
}

func TestSpecialists_StopDissolvesAndPersists(t *testing.T) {
	dir := t.TempDir()
	cfg := specialists.DefaultConfig()
	cfg.KnowledgeDir = dir
	cfg.AuditLog = filepath.Join(dir, "audit.jsonl")

	s, err := specialists.New(cfg, specialists.WithHandler("product", "research", noteFactory))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	w, err := s.Spawn(context.Background(), "product", "research", nil, nil)
	require.NoError(t, err)
	_, err = s.Execute(context.Background(), w, specialists.Task{ID: "t", Description: "survey users"})
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.Equal(t, specialists.WorkerDissolved, w.State())
	assert.Equal(t, specialists.StateStopped, s.Status())

	_, err = os.Stat(filepath.Join(dir, "knowledge.json"))
	require.NoError(t, err)
	audit, err := os.ReadFile(cfg.AuditLog)
	require.NoError(t, err)
	assert.Contains(t, string(audit), `"reason":"shutdown"`)

	// A fresh instance picks the knowledge back up.
	s2 := startTest(t, cfg)
	snaps := s2.Knowledge("product", "research")
	require.Len(t, snaps, 1)
	assert.Equal(t, w.ID(), snaps[0].WorkerID)
	assert.Equal(t, []string{"survey users"}, snaps[0].Insights)
}

func TestSpecialists_Checkpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := specialists.DefaultConfig()
	cfg.KnowledgeDir = dir
	s := startTest(t, cfg)

	w, err := s.Spawn(context.Background(), "creative", "branding", nil, nil)
	require.NoError(t, err)
	_, err = s.Dissolve(context.Background(), w, specialists.ReasonCompleted)
	require.NoError(t, err)

	require.NoError(t, s.Checkpoint(context.Background()))
	data, err := os.ReadFile(filepath.Join(dir, "knowledge.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), w.ID())
}

func TestSpecialists_Catalog(t *testing.T) {
	s, err := specialists.New(specialists.DefaultConfig(),
		specialists.WithCatalog(specialists.Catalog{"ops": {"oncall", "capacity"}}))
	require.NoError(t, err)

	cat := s.Catalog()
	assert.Equal(t, []string{"capacity", "oncall"}, cat["ops"])
	assert.Len(t, cat, 1)
}

func TestSpecialists_UpdateActivityUnknownWorker(t *testing.T) {
	s := startTest(t, specialists.DefaultConfig())
	w, err := s.Spawn(context.Background(), "product", "ux", nil, nil)
	require.NoError(t, err)
	_, _ = s.Dissolve(context.Background(), w, specialists.ReasonCompleted)

	assert.ErrorIs(t, s.UpdateActivity(w), specialists.ErrWorkerNotActive)

	ok, err := s.DissolveByID(context.Background(), w.ID(), specialists.ReasonCompleted)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSpecialists_IdleEvictionWithRealClock(t *testing.T) {
	cfg := specialists.DefaultConfig()
	cfg.IdleTimeout = 50 * time.Millisecond
	s := startTest(t, cfg)

	w, err := s.Spawn(context.Background(), "business", "finance", nil, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return w.State() == specialists.WorkerDissolved
	}, 2*time.Second, 10*time.Millisecond)

	events := s.Events()
	assert.Equal(t, specialists.ReasonIdleTimeout, events[len(events)-1].Reason)
}
