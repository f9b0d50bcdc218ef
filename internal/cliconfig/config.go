package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bft-labs/specialists/internal/domain"
)

// DefaultHomeDir is the directory under the user's home holding config and state.
const DefaultHomeDir = ".specialists"

// Config holds CLI configuration for the specialists coordinator.
type Config struct {
	MaxConcurrent            int           `validate:"min=1"`
	MaxPerCategory           int           `validate:"min=1,ltefield=MaxConcurrent"`
	IdleTimeout              time.Duration `validate:"gt=0"`
	KnowledgeTransferEnabled bool
	KnowledgeCap             int           `validate:"min=1"`
	MaxTaskDuration          time.Duration `validate:"gte=0"`

	KnowledgeDir string
	CatalogPath  string
	SpoolDir     string

	AuditLog        string
	AuditWebhookURL string `validate:"omitempty,url"`
	AuthKey         string

	LogLevel           string        `validate:"omitempty,oneof=trace debug info warn error"`
	LoadThreshold      float64       `validate:"gte=0"`
	CheckpointInterval time.Duration `validate:"gte=0"`
	Deny               []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:            20,
		MaxPerCategory:           8,
		IdleTimeout:              30 * time.Minute,
		KnowledgeTransferEnabled: true,
		KnowledgeCap:             100,
		MaxTaskDuration:          2 * time.Hour,
		LogLevel:                 "info",
		LoadThreshold:            0,
		CheckpointInterval:       5 * time.Minute,
		KnowledgeDir:             "", // Derived from the home directory during Validate
		AuthKey:                  os.Getenv("SPECIALISTS_AUTH_KEY"),
	}
}

var validate = validator.New()

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s %s", domain.ErrInvalidConfig, flagName(fe.Field()), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if c.KnowledgeDir == "" {
		if h, err := os.UserHomeDir(); err == nil {
			c.KnowledgeDir = filepath.Join(h, DefaultHomeDir, "knowledge")
		}
	}

	// Ensure no trailing slash
	c.AuditWebhookURL = strings.TrimRight(c.AuditWebhookURL, "/")

	deny := c.Deny[:0]
	for _, d := range c.Deny {
		if d = strings.TrimSpace(d); d != "" {
			deny = append(deny, d)
		}
	}
	c.Deny = deny

	return nil
}

// flagName maps a struct field to its command line flag for error messages.
func flagName(field string) string {
	switch field {
	case "MaxConcurrent":
		return "max-concurrent"
	case "MaxPerCategory":
		return "max-per-category"
	case "IdleTimeout":
		return "idle-timeout"
	case "KnowledgeCap":
		return "knowledge-cap"
	case "MaxTaskDuration":
		return "max-task-duration"
	case "AuditWebhookURL":
		return "audit-webhook"
	case "LogLevel":
		return "log-level"
	case "LoadThreshold":
		return "load-threshold"
	case "CheckpointInterval":
		return "checkpoint-interval"
	}
	return field
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// setStringsFromString splits a comma separated list.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = strings.Split(value, ",")
}
