package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	MaxConcurrent      int      `toml:"max_concurrent"`
	MaxPerCategory     int      `toml:"max_per_category"`
	IdleTimeout        string   `toml:"idle_timeout"`
	KnowledgeTransfer  *bool    `toml:"knowledge_transfer"`
	KnowledgeCap       int      `toml:"knowledge_cap"`
	MaxTaskDuration    string   `toml:"max_task_duration"`
	KnowledgeDir       string   `toml:"knowledge_dir"`
	CatalogPath        string   `toml:"catalog"`
	SpoolDir           string   `toml:"spool_dir"`
	AuditLog           string   `toml:"audit_log"`
	AuditWebhookURL    string   `toml:"audit_webhook"`
	AuthKey            string   `toml:"auth_key"`
	LogLevel           string   `toml:"log_level"`
	LoadThreshold      float64  `toml:"load_threshold"`
	CheckpointInterval string   `toml:"checkpoint_interval"`
	Deny               []string `toml:"deny"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.specialists/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, DefaultHomeDir, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("knowledge-dir", fc.KnowledgeDir, &cfg.KnowledgeDir)
	s.setString("catalog", fc.CatalogPath, &cfg.CatalogPath)
	s.setString("spool-dir", fc.SpoolDir, &cfg.SpoolDir)
	s.setString("audit-log", fc.AuditLog, &cfg.AuditLog)
	s.setString("audit-webhook", fc.AuditWebhookURL, &cfg.AuditWebhookURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("max-task-duration", fc.MaxTaskDuration, &cfg.MaxTaskDuration); err != nil {
		return err
	}
	if err := s.setDuration("checkpoint-interval", fc.CheckpointInterval, &cfg.CheckpointInterval); err != nil {
		return err
	}

	s.setInt("max-concurrent", fc.MaxConcurrent, &cfg.MaxConcurrent)
	s.setInt("max-per-category", fc.MaxPerCategory, &cfg.MaxPerCategory)
	s.setInt("knowledge-cap", fc.KnowledgeCap, &cfg.KnowledgeCap)
	s.setFloat("load-threshold", fc.LoadThreshold, &cfg.LoadThreshold)

	s.setBool("knowledge-transfer", fc.KnowledgeTransfer, &cfg.KnowledgeTransferEnabled)
	s.setStrings("deny", fc.Deny, &cfg.Deny)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
