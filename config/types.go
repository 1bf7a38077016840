package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

//go:generate go run ../tools/schema-generator/

// BackendConfig describes how to reach the process-hosting backend.
type BackendConfig struct {
	URL             string `yaml:"url" json:"url,omitempty" jsonschema:"description=WebSocket URL of the process-hosting backend" jsonschema_extras:"x-priority=1,x-important=true"`
	ArchiveURL      string `yaml:"archive_url,omitempty" json:"archive_url,omitempty" jsonschema:"description=Base URL of the session archive service"`
	OrphanTimeoutMs int    `yaml:"orphan_timeout_ms,omitempty" json:"orphan_timeout_ms,omitempty" jsonschema:"description=How long the backend keeps unowned terminals alive after a disconnect"`
}

// ProviderConfig describes one AI CLI provider (claude, codex, ...).
type ProviderConfig struct {
	Enabled       *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"description=Whether this provider's CLI may be launched (default: true)" jsonschema_extras:"x-priority=1,x-important=true"`
	Command       string   `yaml:"command,omitempty" json:"command,omitempty" jsonschema:"description=Launch command for this provider's CLI"`
	DefaultModel  string   `yaml:"default_model,omitempty" json:"default_model,omitempty" jsonschema:"description=Model used when a session does not override it"`
	DefaultEffort string   `yaml:"default_effort,omitempty" json:"default_effort,omitempty" jsonschema:"description=Reasoning effort used when a session does not override it"`
	ModelPrefixes []string `yaml:"model_prefixes,omitempty" json:"model_prefixes,omitempty" jsonschema:"description=Model name prefixes that identify this provider during inference"`
}

// IsEnabled reports whether the provider may be launched. A provider with no
// explicit setting is enabled.
func (p *ProviderConfig) IsEnabled() bool {
	if p == nil || p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Config is the root of velocity.yml.
type Config struct {
	Version         string                     `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Config format version"`
	Backend         BackendConfig              `yaml:"backend,omitempty" json:"backend,omitempty" jsonschema:"description=Process-hosting backend endpoints"`
	PrimaryProvider string                     `yaml:"primary_provider,omitempty" json:"primary_provider,omitempty" jsonschema:"description=Provider assumed when inference finds no match"`
	Providers       map[string]*ProviderConfig `yaml:"providers,omitempty" json:"providers,omitempty" jsonschema:"description=Map of provider name to provider configuration"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" json:"-" jsonschema:"-"`
}

// Default backend endpoints when velocity.yml leaves them unset.
const (
	DefaultBackendURL      = "ws://127.0.0.1:4923/console"
	DefaultArchiveURL      = "http://127.0.0.1:4923/api"
	DefaultPrimaryProvider = "claude"
)

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}
	if c.Backend.ArchiveURL == "" {
		c.Backend.ArchiveURL = DefaultArchiveURL
	}
	if c.PrimaryProvider == "" {
		c.PrimaryProvider = DefaultPrimaryProvider
	}
}

// Provider returns the configuration for a named provider, or nil.
func (c *Config) Provider(name string) *ProviderConfig {
	if c.Providers == nil {
		return nil
	}
	return c.Providers[name]
}

// UnmarshalExtension decodes an extension section (a top-level key not owned
// by the core config) into a strongly-typed target struct.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
