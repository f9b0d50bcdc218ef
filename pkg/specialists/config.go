package specialists

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
)

// Config holds the coordinator settings.
type Config struct {
	// MaxConcurrent caps live workers across all categories.
	// Default: 20
	MaxConcurrent int

	// MaxPerCategory caps live workers in one category.
	// Default: 8
	MaxPerCategory int

	// IdleTimeout is how long a worker may go without activity before it is
	// dissolved with reason "idle_timeout".
	// Default: 30 minutes
	IdleTimeout time.Duration

	// KnowledgeTransferEnabled extracts and stores a worker's knowledge when it
	// is dissolved. SetDefaults cannot tell an unset false from an explicit
	// one, so start from DefaultConfig to keep it on.
	KnowledgeTransferEnabled bool

	// KnowledgeCap is the number of snapshots kept per category/subtype.
	// Default: 100
	KnowledgeCap int

	// MaxTaskDuration is reported but not enforced.
	// Default: 2 hours
	MaxTaskDuration time.Duration

	// KnowledgeDir, when set, persists knowledge to KnowledgeDir/knowledge.json.
	// Ignored if WithKnowledgeRepository is used.
	KnowledgeDir string

	// AuditLog, when set, appends every lifecycle event to this file as JSON lines.
	AuditLog string

	// AuditWebhookURL, when set, posts every lifecycle event to this service.
	AuditWebhookURL string

	// AuthKey is the bearer token for AuditWebhookURL.
	AuthKey string

	// HTTPTimeout bounds each webhook request.
	// Default: 10 seconds
	HTTPTimeout time.Duration

	// Deny lists categories ("business") or pairs ("technical/devops") that may not be spawned.
	Deny []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	c := Config{KnowledgeTransferEnabled: true}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 20
	}
	if c.MaxPerCategory == 0 {
		c.MaxPerCategory = 8
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.KnowledgeCap == 0 {
		c.KnowledgeCap = 100
	}
	if c.MaxTaskDuration == 0 {
		c.MaxTaskDuration = 2 * time.Hour
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	c.AuditWebhookURL = strings.TrimRight(c.AuditWebhookURL, "/")
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	switch {
	case c.MaxConcurrent < 1:
		return fmt.Errorf("%w: max concurrent must be positive", domain.ErrInvalidConfig)
	case c.MaxPerCategory < 1:
		return fmt.Errorf("%w: max per category must be positive", domain.ErrInvalidConfig)
	case c.MaxPerCategory > c.MaxConcurrent:
		return fmt.Errorf("%w: max per category %d exceeds max concurrent %d",
			domain.ErrInvalidConfig, c.MaxPerCategory, c.MaxConcurrent)
	case c.IdleTimeout <= 0:
		return fmt.Errorf("%w: idle timeout must be positive", domain.ErrInvalidConfig)
	case c.KnowledgeCap < 1:
		return fmt.Errorf("%w: knowledge cap must be positive", domain.ErrInvalidConfig)
	case c.MaxTaskDuration < 0:
		return fmt.Errorf("%w: max task duration must not be negative", domain.ErrInvalidConfig)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("%w: http timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
