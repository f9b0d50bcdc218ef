package app

import (
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// Monitor keeps one PerformanceRecord per worker. Records are retained after
// the worker dissolves; nothing prunes them.
type Monitor struct {
	mu      sync.RWMutex
	clock   ports.Clock
	records map[string]*domain.PerformanceRecord
}

// NewMonitor creates an empty monitor.
func NewMonitor(clock ports.Clock) *Monitor {
	return &Monitor{
		clock:   clock,
		records: make(map[string]*domain.PerformanceRecord),
	}
}

// Start begins tracking w with zero counters and a score of 1.0.
func (m *Monitor) Start(w *domain.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[w.ID()] = &domain.PerformanceRecord{
		WorkerID:  w.ID(),
		Category:  w.Category(),
		Subtype:   w.Subtype(),
		StartTime: m.clock.Now(),
		Score:     1.0,
	}
}

// RecordTaskCompletion increments the completed count and recomputes the score.
func (m *Monitor) RecordTaskCompletion(w *domain.Worker) {
	m.update(w.ID(), func(r *domain.PerformanceRecord) { r.TasksCompleted++ })
}

// RecordError increments the error count and recomputes the score.
func (m *Monitor) RecordError(w *domain.Worker) {
	m.update(w.ID(), func(r *domain.PerformanceRecord) { r.Errors++ })
}

// Stop freezes the record's end time. It is a no-op for untracked or
// already stopped workers.
func (m *Monitor) Stop(w *domain.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[w.ID()]
	if !ok || r.Completed {
		return
	}
	r.EndTime = m.clock.Now()
	r.Completed = true
}

// Record returns a copy of the worker's record.
func (m *Monitor) Record(workerID string) (domain.PerformanceRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[workerID]
	if !ok {
		return domain.PerformanceRecord{}, false
	}
	return *r, true
}

// Records returns copies of all records ordered by start time.
func (m *Monitor) Records() []domain.PerformanceRecord {
	m.mu.RLock()
	out := make([]domain.PerformanceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].WorkerID < out[j].WorkerID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Duration returns how long the worker has been (or was) tracked.
func (m *Monitor) Duration(workerID string) (time.Duration, bool) {
	r, ok := m.Record(workerID)
	if !ok {
		return 0, false
	}
	return r.Duration(m.clock.Now()), true
}

func (m *Monitor) update(workerID string, fn func(*domain.PerformanceRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[workerID]
	if !ok || r.Completed {
		return
	}
	fn(r)
	r.Score = domain.Score(r.TasksCompleted, r.Errors)
}
