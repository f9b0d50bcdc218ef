package checkpoint

import "github.com/bft-labs/specialists/pkg/specialists"

// WithCheckpoint returns a specialists Option that saves knowledge
// periodically while the coordinator runs, so a crash loses at most one
// interval of snapshots.
//
// Usage:
//
//	s, err := specialists.New(cfg,
//	    checkpoint.WithCheckpoint(checkpoint.Config{Interval: time.Minute}),
//	)
func WithCheckpoint(cfg Config) specialists.Option {
	return specialists.WithPlugin(New(cfg))
}

// WithDefaultCheckpoint returns a specialists Option that checkpoints every
// five minutes.
func WithDefaultCheckpoint() specialists.Option {
	return WithCheckpoint(DefaultConfig())
}
