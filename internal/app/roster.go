package app

import (
	"context"
	"sort"
	"sync"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// Roster is the default Owner. It keeps the set of workers it requested and
// the knowledge they handed back.
type Roster struct {
	name     string
	mu       sync.RWMutex
	members  map[string]*domain.Worker
	received []domain.KnowledgeSnapshot
}

// NewRoster creates an empty roster.
func NewRoster(name string) *Roster {
	return &Roster{name: name, members: make(map[string]*domain.Worker)}
}

// Name returns the roster's label.
func (r *Roster) Name() string { return r.name }

// Track adds w to the roster.
func (r *Roster) Track(w *domain.Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[w.ID()] = w
}

// Untrack removes w from the roster.
func (r *Roster) Untrack(w *domain.Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, w.ID())
}

// ReceiveKnowledge keeps the snapshot.
func (r *Roster) ReceiveKnowledge(_ context.Context, _ *domain.Worker, snapshot domain.KnowledgeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, snapshot)
	return nil
}

// Members returns the tracked worker ids, sorted.
func (r *Roster) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Received returns the snapshots handed back so far, in arrival order.
func (r *Roster) Received() []domain.KnowledgeSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.KnowledgeSnapshot(nil), r.received...)
}

var _ ports.Owner = (*Roster)(nil)
