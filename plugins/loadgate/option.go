package loadgate

import "github.com/bft-labs/specialists/pkg/specialists"

// WithLoadGate returns a specialists Option that enables load gating.
// When enabled, spawns are declined while the process looks saturated.
//
// Usage:
//
//	s, err := specialists.New(cfg,
//	    loadgate.WithLoadGate(loadgate.Config{Threshold: 20}),
//	)
func WithLoadGate(cfg Config) specialists.Option {
	return specialists.WithPlugin(New(cfg))
}

// WithDefaultLoadGate returns a specialists Option that enables load
// gating with default settings (threshold 10 goroutines per CPU).
func WithDefaultLoadGate() specialists.Option {
	return WithLoadGate(DefaultConfig())
}
