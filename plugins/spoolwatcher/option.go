package spoolwatcher

import "github.com/bft-labs/specialists/pkg/specialists"

// WithSpoolWatcher returns a specialists Option that serves spawn requests
// dropped as JSON files into a spool directory.
//
// Usage:
//
//	s, err := specialists.New(cfg,
//	    spoolwatcher.WithSpoolWatcher(spoolwatcher.Config{
//	        Dir:           "/var/spool/specialists",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithSpoolWatcher(cfg Config) specialists.Option {
	return specialists.WithPlugin(New(cfg))
}
