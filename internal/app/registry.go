package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
	"github.com/bft-labs/specialists/internal/ports"
)

// DefaultPlaceholderDelay is how long a placeholder handler pretends to work.
const DefaultPlaceholderDelay = 100 * time.Millisecond

// Resolution is the outcome of a registry lookup.
type Resolution struct {
	Factory ports.HandlerFactory
	// Fallback is true when no implementation is registered for the pair
	// and the registry's fallback factory was chosen instead.
	Fallback bool
}

type registryKey struct {
	category string
	subtype  string
}

// Registry maps (category, subtype) to handler factories.
// Factories are registered at construction time; lookups are concurrent-safe.
type Registry struct {
	mu        sync.RWMutex
	catalog   domain.Catalog
	factories map[registryKey]ports.HandlerFactory
	fallback  ports.HandlerFactory
	logger    ports.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFallback binds the factory used for catalog pairs without an implementation.
func WithFallback(f ports.HandlerFactory) RegistryOption {
	return func(r *Registry) {
		if f != nil {
			r.fallback = f
		}
	}
}

// WithRegistryLogger sets the logger used to report degraded resolutions.
func WithRegistryLogger(l ports.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry over catalog. The fallback binding defaults
// to PlaceholderFactory(DefaultPlaceholderDelay).
func NewRegistry(catalog domain.Catalog, opts ...RegistryOption) *Registry {
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	r := &Registry{
		catalog:   catalog,
		factories: make(map[registryKey]ports.HandlerFactory),
		fallback:  PlaceholderFactory(DefaultPlaceholderDelay),
		logger:    loggerOrNoop(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a factory to a catalog pair.
func (r *Registry) Register(category, subtype string, f ports.HandlerFactory) error {
	if f == nil {
		return fmt.Errorf("register %s/%s: nil factory", category, subtype)
	}
	if err := r.check(category, subtype); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{category, subtype}
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateFactory, category, subtype)
	}
	r.factories[key] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(category, subtype string, f ports.HandlerFactory) {
	if err := r.Register(category, subtype, f); err != nil {
		panic(err)
	}
}

// Resolve returns the factory for a pair. Pairs in the catalog without a
// registered implementation resolve to the fallback factory.
func (r *Registry) Resolve(category, subtype string) (Resolution, error) {
	if err := r.check(category, subtype); err != nil {
		return Resolution{}, err
	}

	r.mu.RLock()
	f, ok := r.factories[registryKey{category, subtype}]
	fallback := r.fallback
	r.mu.RUnlock()

	if ok {
		return Resolution{Factory: f}, nil
	}

	r.logger.Warn("no implementation registered, using fallback handler",
		ports.String("category", category),
		ports.String("subtype", subtype),
	)
	return Resolution{Factory: fallback, Fallback: true}, nil
}

// Registered reports whether a real implementation exists for the pair.
func (r *Registry) Registered(category, subtype string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[registryKey{category, subtype}]
	return ok
}

// Categories returns the catalog's categories, sorted.
func (r *Registry) Categories() []string {
	return r.catalog.Categories()
}

// Subtypes returns the subtypes of category, sorted.
func (r *Registry) Subtypes(category string) []string {
	return r.catalog.Subtypes(category)
}

func (r *Registry) check(category, subtype string) error {
	if !r.catalog.HasCategory(category) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}
	if !r.catalog.HasSubtype(category, subtype) {
		return fmt.Errorf("%w: %q in %q", domain.ErrUnknownSubtype, subtype, category)
	}
	return nil
}

// PlaceholderFactory returns a factory producing PlaceholderHandlers.
func PlaceholderFactory(delay time.Duration) ports.HandlerFactory {
	return func(ctx context.Context, req ports.SpawnRequest) (ports.TaskHandler, error) {
		return &PlaceholderHandler{Category: req.Category, Subtype: req.Subtype, Delay: delay}, nil
	}
}

// PlaceholderHandler stands in for a missing implementation. It waits Delay,
// then returns a deterministic result. It never fails, except when ctx ends
// before the delay elapses.
type PlaceholderHandler struct {
	Category string
	Subtype  string
	Delay    time.Duration
}

// ProcessTask returns the placeholder result for task.
func (h *PlaceholderHandler) ProcessTask(ctx context.Context, task domain.Task) (domain.TaskResult, error) {
	if h.Delay > 0 {
		t := time.NewTimer(h.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.TaskResult{}, ctx.Err()
		case <-t.C:
		}
	}
	return domain.TaskResult{
		TaskID:      task.ID,
		Summary:     fmt.Sprintf("%s/%s placeholder result for %s task", h.Category, h.Subtype, task.Kind),
		Placeholder: true,
	}, nil
}

// Knowledge returns empty scratch fields.
func (h *PlaceholderHandler) Knowledge() domain.Scratch {
	return domain.Scratch{}
}
