// Package settings exposes per-provider CLI policy (enable/disable flags,
// default model and effort) to the console core. It is backed by
// velocity.yml and hot-reloads when the file changes.
package settings

import (
	"sync"

	"github.com/OptimiLabs/velocity-sub007/config"
)

// Provider is the settings collaborator interface the console core consumes.
type Provider interface {
	// ProviderEnabled reports whether a provider's CLI may be launched.
	ProviderEnabled(name string) bool
	// ProviderCommand returns the launch command configured for a provider.
	ProviderCommand(name string) string
	// ProviderDefaults returns the default model and effort for a provider.
	ProviderDefaults(name string) (model, effort string)
	// ModelPrefixes returns the model-name prefixes identifying a provider.
	ModelPrefixes(name string) []string
	// PrimaryProvider is the fallback when inference finds no match.
	PrimaryProvider() string
	// ProviderNames lists all configured providers.
	ProviderNames() []string
}

// FileSettings implements Provider on top of a loaded config, with
// copy-on-write replacement on reload.
type FileSettings struct {
	mu  sync.RWMutex
	cfg *config.Config
}

// NewFileSettings wraps a loaded configuration.
func NewFileSettings(cfg *config.Config) *FileSettings {
	return &FileSettings{cfg: cfg}
}

// Replace swaps in a freshly loaded configuration.
func (s *FileSettings) Replace(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *FileSettings) snapshot() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ProviderEnabled implements Provider. Unconfigured providers are enabled.
func (s *FileSettings) ProviderEnabled(name string) bool {
	return s.snapshot().Provider(name).IsEnabled()
}

// ProviderCommand implements Provider.
func (s *FileSettings) ProviderCommand(name string) string {
	p := s.snapshot().Provider(name)
	if p == nil || p.Command == "" {
		// By convention the provider name doubles as its CLI command.
		return name
	}
	return p.Command
}

// ProviderDefaults implements Provider.
func (s *FileSettings) ProviderDefaults(name string) (string, string) {
	p := s.snapshot().Provider(name)
	if p == nil {
		return "", ""
	}
	return p.DefaultModel, p.DefaultEffort
}

// ModelPrefixes implements Provider.
func (s *FileSettings) ModelPrefixes(name string) []string {
	p := s.snapshot().Provider(name)
	if p == nil {
		return nil
	}
	return p.ModelPrefixes
}

// PrimaryProvider implements Provider.
func (s *FileSettings) PrimaryProvider() string {
	return s.snapshot().PrimaryProvider
}

// ProviderNames implements Provider.
func (s *FileSettings) ProviderNames() []string {
	cfg := s.snapshot()
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	return names
}
