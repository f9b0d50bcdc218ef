package specialists

import (
	"context"
	"sync"

	"github.com/bft-labs/specialists/internal/adapters/audit"
	"github.com/bft-labs/specialists/internal/domain"
)

type closableSink struct {
	AuditSink
	close func(context.Context) error
}

// auditFanout forwards events to the sinks given as options plus the ones
// opened from Config for the current run.
type auditFanout struct {
	mu      sync.RWMutex
	static  audit.Multi
	dynamic []closableSink
}

func (a *auditFanout) Record(ctx context.Context, ev domain.LifecycleEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	all := make(audit.Multi, 0, len(a.static)+len(a.dynamic))
	all = append(all, a.static...)
	for _, d := range a.dynamic {
		all = append(all, d.AuditSink)
	}
	return all.Record(ctx, ev)
}

// set replaces the run's sinks and returns the previous ones.
func (a *auditFanout) set(sinks []closableSink) []closableSink {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.dynamic
	a.dynamic = sinks
	return prev
}
