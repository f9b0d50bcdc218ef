// Package specialists runs a coordinator for short-lived, single-purpose
// workers until a context ends.
//
// Example usage:
//
//	cfg := specialists.DefaultConfig()
//	cfg.KnowledgeDir = "/var/lib/specialists"
//	if err := specialists.Run(ctx, cfg, specialists.WithLogger(logger)); err != nil {
//	    log.Fatal(err)
//	}
//
// Embedders that need to spawn workers themselves should use
// github.com/bft-labs/specialists/pkg/specialists directly.
package specialists

import (
	"context"

	"github.com/bft-labs/specialists/pkg/specialists"
)

// Config holds the coordinator settings.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = specialists.Config

// Option configures optional behavior.
type Option = specialists.Option

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return specialists.DefaultConfig()
}

// Common options, re-exported for callers of Run.
var (
	WithLogger  = specialists.WithLogger
	WithPlugin  = specialists.WithPlugin
	WithHandler = specialists.WithHandler
)

// Run starts a coordinator and blocks until ctx is canceled, then stops it.
// Workers still alive at that point are dissolved with reason "shutdown".
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	s, err := specialists.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}
