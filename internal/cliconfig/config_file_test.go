package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				MaxConcurrent:      10,
				MaxPerCategory:     4,
				IdleTimeout:        "15m",
				KnowledgeTransfer:  &falseVal,
				KnowledgeCap:       50,
				MaxTaskDuration:    "1h",
				KnowledgeDir:       "/var/lib/specialists",
				CatalogPath:        "/etc/specialists/catalog.yaml",
				SpoolDir:           "/var/spool/specialists",
				AuditLog:           "/var/log/specialists/audit.jsonl",
				AuditWebhookURL:    "http://audit.local",
				AuthKey:            "secret",
				LogLevel:           "debug",
				LoadThreshold:      64,
				CheckpointInterval: "30s",
				Deny:               []string{"business/legal"},
			},
			changed: map[string]bool{},
			initial: Config{KnowledgeTransferEnabled: true},
			expected: Config{
				MaxConcurrent:      10,
				MaxPerCategory:     4,
				IdleTimeout:        15 * time.Minute,
				KnowledgeCap:       50,
				MaxTaskDuration:    time.Hour,
				KnowledgeDir:       "/var/lib/specialists",
				CatalogPath:        "/etc/specialists/catalog.yaml",
				SpoolDir:           "/var/spool/specialists",
				AuditLog:           "/var/log/specialists/audit.jsonl",
				AuditWebhookURL:    "http://audit.local",
				AuthKey:            "secret",
				LogLevel:           "debug",
				LoadThreshold:      64,
				CheckpointInterval: 30 * time.Second,
				Deny:               []string{"business/legal"},
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				MaxConcurrent: 10,
				IdleTimeout:   "5m",
				Deny:          []string{"creative"},
			},
			changed: map[string]bool{"max-concurrent": true, "deny": true},
			initial: Config{
				MaxConcurrent: 3,
				Deny:          []string{"product"},
			},
			expected: Config{
				MaxConcurrent: 3, // unchanged because flag was set
				IdleTimeout:   5 * time.Minute,
				Deny:          []string{"product"},
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{IdleTimeout: "half an hour"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "zero values leave defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("config = %+v\nwant     %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
max_concurrent = 12
idle_timeout = "10m"
knowledge_transfer = false
load_threshold = 32.5
deny = ["business", "technical/devops"]
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.MaxConcurrent != 12 {
		t.Errorf("MaxConcurrent = %v, want 12", fc.MaxConcurrent)
	}
	if fc.IdleTimeout != "10m" {
		t.Errorf("IdleTimeout = %v, want 10m", fc.IdleTimeout)
	}
	if fc.KnowledgeTransfer == nil || *fc.KnowledgeTransfer {
		t.Errorf("KnowledgeTransfer = %v, want false", fc.KnowledgeTransfer)
	}
	if fc.LoadThreshold != 32.5 {
		t.Errorf("LoadThreshold = %v, want 32.5", fc.LoadThreshold)
	}
	if len(fc.Deny) != 2 || fc.Deny[1] != "technical/devops" {
		t.Errorf("Deny = %v", fc.Deny)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
max_concurrent = 20
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, DefaultHomeDir) {
		t.Errorf("DefaultConfigPath() = %v, should contain %s", path, DefaultHomeDir)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(existingFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "missing.txt")) {
		t.Error("FileExists() = true for missing file")
	}
}
