package app

import (
	"time"

	"github.com/bft-labs/specialists/internal/ports"
	"github.com/bft-labs/specialists/pkg/log"
)

// loggerOrNoop returns l, or a logger that discards everything when l is nil.
func loggerOrNoop(l ports.Logger) ports.Logger {
	if l == nil {
		return log.NewNoopLogger()
	}
	return l
}

// wallClock is the Clock used when none is injected.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) NewTimer(d time.Duration) ports.Timer {
	return wallTimer{time.NewTimer(d)}
}

type wallTimer struct{ t *time.Timer }

func (w wallTimer) C() <-chan time.Time { return w.t.C }
func (w wallTimer) Stop() bool          { return w.t.Stop() }
