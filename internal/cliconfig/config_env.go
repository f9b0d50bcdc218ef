package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SPECIALISTS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("knowledge-dir", os.Getenv("SPECIALISTS_KNOWLEDGE_DIR"), &cfg.KnowledgeDir)
	s.setString("catalog", os.Getenv("SPECIALISTS_CATALOG"), &cfg.CatalogPath)
	s.setString("spool-dir", os.Getenv("SPECIALISTS_SPOOL_DIR"), &cfg.SpoolDir)
	s.setString("audit-log", os.Getenv("SPECIALISTS_AUDIT_LOG"), &cfg.AuditLog)
	s.setString("audit-webhook", os.Getenv("SPECIALISTS_AUDIT_WEBHOOK"), &cfg.AuditWebhookURL)
	s.setString("auth-key", os.Getenv("SPECIALISTS_AUTH_KEY"), &cfg.AuthKey)
	s.setString("log-level", os.Getenv("SPECIALISTS_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("max-concurrent", os.Getenv("SPECIALISTS_MAX_CONCURRENT"), &cfg.MaxConcurrent); err != nil {
		return err
	}
	if err := s.setIntFromString("max-per-category", os.Getenv("SPECIALISTS_MAX_PER_CATEGORY"), &cfg.MaxPerCategory); err != nil {
		return err
	}
	if err := s.setIntFromString("knowledge-cap", os.Getenv("SPECIALISTS_KNOWLEDGE_CAP"), &cfg.KnowledgeCap); err != nil {
		return err
	}

	if err := s.setDuration("idle-timeout", os.Getenv("SPECIALISTS_IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("max-task-duration", os.Getenv("SPECIALISTS_MAX_TASK_DURATION"), &cfg.MaxTaskDuration); err != nil {
		return err
	}
	if err := s.setDuration("checkpoint-interval", os.Getenv("SPECIALISTS_CHECKPOINT_INTERVAL"), &cfg.CheckpointInterval); err != nil {
		return err
	}

	if err := s.setFloatFromString("load-threshold", os.Getenv("SPECIALISTS_LOAD_THRESHOLD"), &cfg.LoadThreshold); err != nil {
		return err
	}

	s.setBoolFromString("knowledge-transfer", os.Getenv("SPECIALISTS_KNOWLEDGE_TRANSFER"), &cfg.KnowledgeTransferEnabled)
	s.setStringsFromString("deny", os.Getenv("SPECIALISTS_DENY"), &cfg.Deny)

	return nil
}
