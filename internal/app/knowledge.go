package app

import (
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// DefaultKnowledgeCap is the number of snapshots kept per (category, subtype).
const DefaultKnowledgeCap = 100

// KnowledgeStore is an append-only log of snapshots per (category, subtype).
// When a log grows past its cap the oldest snapshots are dropped first.
type KnowledgeStore struct {
	mu   sync.RWMutex
	cap  int
	logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot
}

// NewKnowledgeStore creates an empty store. A non-positive limit means DefaultKnowledgeCap.
func NewKnowledgeStore(limit int) *KnowledgeStore {
	if limit <= 0 {
		limit = DefaultKnowledgeCap
	}
	return &KnowledgeStore{
		cap:  limit,
		logs: make(map[domain.KnowledgeKey][]domain.KnowledgeSnapshot),
	}
}

// Extract reads the handler's scratch fields into a snapshot for w.
// A nil handler yields a snapshot with every field empty.
func Extract(w *domain.Worker, h ports.TaskHandler, at time.Time) domain.KnowledgeSnapshot {
	var scratch domain.Scratch
	if h != nil {
		scratch = h.Knowledge()
	}
	return domain.KnowledgeSnapshot{
		Category:    w.Category(),
		Subtype:     w.Subtype(),
		WorkerID:    w.ID(),
		Scratch:     scratch.Clone(),
		ExtractedAt: at,
	}
}

// Store appends snapshot to the (category, subtype) log and trims it to the cap.
func (s *KnowledgeStore) Store(category, subtype string, snapshot domain.KnowledgeSnapshot) {
	key := domain.KnowledgeKey{Category: category, Subtype: subtype}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.logs[key], snapshot)
	if over := len(log) - s.cap; over > 0 {
		log = append([]domain.KnowledgeSnapshot(nil), log[over:]...)
	}
	s.logs[key] = log
}

// Query returns the log for (category, subtype), oldest first.
// The returned slice is a copy.
func (s *KnowledgeStore) Query(category, subtype string) []domain.KnowledgeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[domain.KnowledgeKey{Category: category, Subtype: subtype}]
	return append([]domain.KnowledgeSnapshot(nil), log...)
}

// Len returns the number of snapshots held for (category, subtype).
func (s *KnowledgeStore) Len(category, subtype string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[domain.KnowledgeKey{Category: category, Subtype: subtype}])
}

// Snapshot returns a copy of every log, for persistence.
func (s *KnowledgeStore) Snapshot() map[domain.KnowledgeKey][]domain.KnowledgeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, len(s.logs))
	for k, v := range s.logs {
		out[k] = append([]domain.KnowledgeSnapshot(nil), v...)
	}
	return out
}

// Restore replaces the store's contents with logs, applying the cap to each.
func (s *KnowledgeStore) Restore(logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, len(logs))
	for k, v := range logs {
		if over := len(v) - s.cap; over > 0 {
			v = v[over:]
		}
		s.logs[k] = append([]domain.KnowledgeSnapshot(nil), v...)
	}
}
