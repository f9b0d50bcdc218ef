package http

import (
	"math/rand"
	"time"
)

// backoff yields exponentially growing delays with +/-20% jitter.
type backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func newBackoff(base, max time.Duration) *backoff { return &backoff{base: base, max: max} }

// Next returns the delay before the next attempt.
func (b *backoff) Next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}

// Wait sleeps for Next() or until abort is closed. It reports whether the
// full delay elapsed.
func (b *backoff) Wait(abort <-chan struct{}) bool {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-abort:
		return false
	}
}

func (b *backoff) Reset() { b.cur = 0 }
