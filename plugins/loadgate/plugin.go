// Package loadgate declines spawns while the host process is under heavy
// load. Dissolves always pass so that load can drain.
package loadgate

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/bft-labs/specialists/pkg/log"
	"github.com/bft-labs/specialists/pkg/specialists"
)

// DefaultThreshold is the goroutines-per-CPU ratio above which spawns are declined.
const DefaultThreshold = 10.0

// LoadFunc reports the current load as a ratio. The default divides the
// goroutine count by the CPU count.
type LoadFunc func() float64

// Plugin implements load gating as an intent validator.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	threshold float64
	load      LoadFunc

	// Runtime state
	logger   specialists.Logger
	declined int
}

// Config holds configuration options for the load gate plugin.
type Config struct {
	// Threshold is the load ratio above which spawns are declined.
	// Zero or negative disables the gate.
	// Default: 10
	Threshold float64

	// Load overrides how load is measured. Nil uses goroutines per CPU.
	Load LoadFunc
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// New creates a new load gate plugin with the given configuration.
func New(cfg Config) *Plugin {
	load := cfg.Load
	if load == nil {
		load = goroutinesPerCPU
	}
	return &Plugin{
		threshold: cfg.Threshold,
		load:      load,
		logger:    log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "loadgate"
}

// Initialize sets up the plugin with the provided configuration.
func (p *Plugin) Initialize(ctx context.Context, cfg specialists.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Logger != nil {
		p.logger = log.With(cfg.Logger, log.String("plugin", p.Name()))
	}
	if p.threshold <= 0 {
		p.logger.Info("load gate disabled")
		return nil
	}
	p.logger.Info("load gate plugin initialized", log.Float64("threshold", p.threshold))
	return nil
}

// Shutdown releases plugin resources.
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// ValidateIntent declines spawns while load is above the threshold.
func (p *Plugin) ValidateIntent(_ context.Context, intent specialists.Intent) (specialists.Verdict, error) {
	if intent.Action != specialists.ActionSpawn {
		return specialists.Accept(), nil
	}
	if ok, load := p.LoadOK(); !ok {
		p.mu.Lock()
		p.declined++
		p.mu.Unlock()
		p.logger.Warn("spawn declined under load",
			log.String("category", intent.Category),
			log.String("subtype", intent.Subtype),
			log.Float64("load", load))
		return specialists.Reject(fmt.Sprintf("load %.1f above threshold %.1f", load, p.threshold)), nil
	}
	return specialists.Accept(), nil
}

// LoadOK reports whether load allows a spawn, along with the measured load.
func (p *Plugin) LoadOK() (bool, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.threshold <= 0 {
		return true, 0
	}
	load := p.load()
	return load <= p.threshold, load
}

// Declined returns how many spawns the gate has turned away.
func (p *Plugin) Declined() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.declined
}

func goroutinesPerCPU() float64 {
	return float64(runtime.NumGoroutine()) / float64(runtime.NumCPU())
}

var (
	_ specialists.Plugin          = (*Plugin)(nil)
	_ specialists.IntentValidator = (*Plugin)(nil)
)
