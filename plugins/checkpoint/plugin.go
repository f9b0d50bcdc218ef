// Package checkpoint periodically persists the knowledge store of a running
// coordinator. The coordinator already saves on Stop; this plugin covers
// processes that die without stopping.
package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/specialists/pkg/log"
	"github.com/bft-labs/specialists/pkg/specialists"
)

// Plugin implements periodic knowledge checkpoints.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	interval       time.Duration
	runImmediately bool

	// Runtime state
	coordinator specialists.Coordinator
	logger      specialists.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	saves       int
	failures    int
}

// Config holds configuration options for the checkpoint plugin.
type Config struct {
	// Interval is how often knowledge is saved.
	// Default: 5 minutes
	Interval time.Duration

	// RunImmediately if true, saves once right after startup.
	// Default: false
	RunImmediately bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Minute}
}

// New creates a new checkpoint plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Plugin{
		interval:       cfg.Interval,
		runImmediately: cfg.RunImmediately,
		logger:         log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "checkpoint"
}

// Initialize starts the checkpoint loop.
func (p *Plugin) Initialize(ctx context.Context, cfg specialists.PluginConfig) error {
	p.mu.Lock()
	p.coordinator = cfg.Coordinator
	if cfg.Logger != nil {
		p.logger = log.With(cfg.Logger, log.String("plugin", p.Name()))
	}
	p.mu.Unlock()

	if p.coordinator == nil {
		p.logger.Warn("checkpoint disabled: no coordinator")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("checkpoint plugin initialized", log.Duration("interval", p.interval))

	p.wg.Add(1)
	go p.loop(loopCtx)
	return nil
}

// Shutdown stops the checkpoint loop. The coordinator performs its own
// final save on Stop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Saves returns the number of successful and failed checkpoints.
func (p *Plugin) Saves() (ok, failed int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.saves, p.failures
}

func (p *Plugin) loop(ctx context.Context) {
	defer p.wg.Done()

	if p.runImmediately {
		p.saveOnce(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.saveOnce(ctx)
		}
	}
}

func (p *Plugin) saveOnce(ctx context.Context) {
	err := p.coordinator.Checkpoint(ctx)

	p.mu.Lock()
	if err != nil {
		p.failures++
	} else {
		p.saves++
	}
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("checkpoint failed", log.Err(err))
		return
	}
	p.logger.Debug("knowledge checkpointed")
}

var _ specialists.Plugin = (*Plugin)(nil)
