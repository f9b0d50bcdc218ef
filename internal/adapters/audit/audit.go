// Package audit provides AuditSink implementations that do not touch disk or network.
package audit

import (
	"context"
	"errors"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// LogSink writes each event to a logger at info level.
type LogSink struct {
	logger ports.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger ports.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record logs ev.
func (s *LogSink) Record(_ context.Context, ev domain.LifecycleEvent) error {
	fields := []ports.Field{
		ports.String("event_id", ev.ID),
		ports.String("type", string(ev.Type)),
		ports.Worker(ev.WorkerID),
		ports.String("category", ev.Category),
		ports.String("subtype", ev.Subtype),
		ports.Time("at", ev.Timestamp),
	}
	if ev.Reason != "" {
		fields = append(fields, ports.String("reason", ev.Reason))
	}
	s.logger.Info("lifecycle event", fields...)
	return nil
}

// Multi fans an event out to several sinks. Every sink sees every event;
// their errors are joined.
type Multi []ports.AuditSink

// Record forwards ev to each sink in order.
func (m Multi) Record(ctx context.Context, ev domain.LifecycleEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ ports.AuditSink = (*LogSink)(nil)
	_ ports.AuditSink = Multi(nil)
)
