package cliconfig

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/specialists/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxConcurrent != 20 {
		t.Errorf("MaxConcurrent = %v, want 20", cfg.MaxConcurrent)
	}
	if cfg.MaxPerCategory != 8 {
		t.Errorf("MaxPerCategory = %v, want 8", cfg.MaxPerCategory)
	}
	if cfg.IdleTimeout != 30*time.Minute {
		t.Errorf("IdleTimeout = %v, want 30m", cfg.IdleTimeout)
	}
	if !cfg.KnowledgeTransferEnabled {
		t.Error("KnowledgeTransferEnabled = false, want true")
	}
	if cfg.KnowledgeCap != 100 {
		t.Errorf("KnowledgeCap = %v, want 100", cfg.KnowledgeCap)
	}
	if cfg.MaxTaskDuration != 2*time.Hour {
		t.Errorf("MaxTaskDuration = %v, want 2h", cfg.MaxTaskDuration)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantErr    string
		wantURL    string
		wantDenied []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero max concurrent",
			mutate:  func(c *Config) { c.MaxConcurrent = 0 },
			wantErr: "max-concurrent",
		},
		{
			name:    "per category above global",
			mutate:  func(c *Config) { c.MaxPerCategory = 21 },
			wantErr: "max-per-category",
		},
		{
			name:    "zero idle timeout",
			mutate:  func(c *Config) { c.IdleTimeout = 0 },
			wantErr: "idle-timeout",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "log-level",
		},
		{
			name:    "bad webhook url",
			mutate:  func(c *Config) { c.AuditWebhookURL = "not a url" },
			wantErr: "audit-webhook",
		},
		{
			name:    "strips trailing slash",
			mutate:  func(c *Config) { c.AuditWebhookURL = "https://audit.example.com/" },
			wantURL: "https://audit.example.com",
		},
		{
			name:       "drops blank deny entries",
			mutate:     func(c *Config) { c.Deny = []string{" business ", "", "creative/writing"} },
			wantDenied: []string{"business", "creative/writing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.KnowledgeDir = "/tmp/knowledge"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				if !errors.Is(err, domain.ErrInvalidConfig) || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Validate() error = %v, want invalid %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.wantURL != "" && cfg.AuditWebhookURL != tt.wantURL {
				t.Errorf("AuditWebhookURL = %v, want %v", cfg.AuditWebhookURL, tt.wantURL)
			}
			if tt.wantDenied != nil && strings.Join(cfg.Deny, ",") != strings.Join(tt.wantDenied, ",") {
				t.Errorf("Deny = %v, want %v", cfg.Deny, tt.wantDenied)
			}
		})
	}
}

func TestConfig_Validate_DerivesKnowledgeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.HasSuffix(cfg.KnowledgeDir, DefaultHomeDir+"/knowledge") {
		t.Errorf("KnowledgeDir = %v", cfg.KnowledgeDir)
	}
}
