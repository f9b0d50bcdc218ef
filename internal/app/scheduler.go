package app

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/ports"
)

// FireFunc is called by the scheduler when a deadline passes.
type FireFunc func(ctx context.Context, id string)

// Scheduler is a single deadline queue driven by one loop. Each id has at most
// one deadline; scheduling an id that is already queued moves its deadline.
type Scheduler struct {
	mu     sync.Mutex
	queue  deadlineQueue
	index  map[string]*deadline
	wake   chan struct{}
	clock  ports.Clock
	logger ports.Logger
	fire   FireFunc
}

// NewScheduler creates a scheduler. fire runs on the scheduler goroutine.
func NewScheduler(clock ports.Clock, logger ports.Logger, fire FireFunc) *Scheduler {
	return &Scheduler{
		index:  make(map[string]*deadline),
		wake:   make(chan struct{}, 1),
		clock:  clock,
		logger: loggerOrNoop(logger),
		fire:   fire,
	}
}

// Schedule arms id to fire at at, replacing any deadline already armed for id.
func (s *Scheduler) Schedule(id string, at time.Time) {
	s.mu.Lock()
	if d, ok := s.index[id]; ok {
		d.at = at
		heap.Fix(&s.queue, d.pos)
	} else {
		d := &deadline{id: id, at: at}
		heap.Push(&s.queue, d)
		s.index[id] = d
	}
	s.mu.Unlock()
	s.poke()
}

// Cancel disarms id. Returns false if nothing was armed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	d, ok := s.index[id]
	if ok {
		heap.Remove(&s.queue, d.pos)
		delete(s.index, id)
	}
	s.mu.Unlock()
	if ok {
		s.poke()
	}
	return ok
}

// Deadline returns the armed deadline for id.
func (s *Scheduler) Deadline(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.index[id]
	if !ok {
		return time.Time{}, false
	}
	return d.at, true
}

// Len returns the number of armed deadlines.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Run drives the queue until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		for _, id := range s.popDue() {
			s.dispatch(ctx, id)
		}

		next, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
				continue
			}
		}

		timer := s.clock.NewTimer(next.Sub(s.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.wake:
			timer.Stop()
		case <-timer.C():
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("eviction handler panicked",
				ports.Worker(id),
				ports.Err(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	s.fire(ctx, id)
}

func (s *Scheduler) popDue() []string {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for s.queue.Len() > 0 && !s.queue[0].at.After(now) {
		d := heap.Pop(&s.queue).(*deadline)
		delete(s.index, d.id)
		due = append(due, d.id)
	}
	return due
}

func (s *Scheduler) next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Len() == 0 {
		return time.Time{}, false
	}
	return s.queue[0].at, true
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

type deadline struct {
	id  string
	at  time.Time
	pos int
}

// deadlineQueue is a min-heap ordered by deadline.
type deadlineQueue []*deadline

func (q deadlineQueue) Len() int           { return len(q) }
func (q deadlineQueue) Less(i, j int) bool { return q[i].at.Before(q[j].at) }

func (q deadlineQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].pos = i
	q[j].pos = j
}

func (q *deadlineQueue) Push(x any) {
	d := x.(*deadline)
	d.pos = len(*q)
	*q = append(*q, d)
}

func (q *deadlineQueue) Pop() any {
	old := *q
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.pos = -1
	*q = old[:n-1]
	return d
}
