package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// applyOverrides merges velocity.override.yml files found in dir into base.
func applyOverrides(base *Config, dir string) (*Config, error) {
	overrides := []string{
		filepath.Join(dir, "velocity.override.yml"),
		filepath.Join(dir, "velocity.override.yaml"),
	}

	config := base
	for _, overrideFile := range overrides {
		if _, err := os.Stat(overrideFile); err == nil {
			data, err := os.ReadFile(overrideFile)
			if err != nil {
				return nil, fmt.Errorf("read override %s: %w", overrideFile, err)
			}

			expanded := expandEnvVars(string(data))

			var override Config
			if err := yaml.Unmarshal([]byte(expanded), &override); err != nil {
				return nil, fmt.Errorf("parse override %s: %w", overrideFile, err)
			}

			config = mergeConfigs(config, &override)
		}
	}

	return config, nil
}

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.Backend.URL != "" {
		result.Backend.URL = override.Backend.URL
	}
	if override.Backend.ArchiveURL != "" {
		result.Backend.ArchiveURL = override.Backend.ArchiveURL
	}
	if override.Backend.OrphanTimeoutMs != 0 {
		result.Backend.OrphanTimeoutMs = override.Backend.OrphanTimeoutMs
	}
	if override.PrimaryProvider != "" {
		result.PrimaryProvider = override.PrimaryProvider
	}

	// Providers merge per name; an override provider replaces only the
	// fields it sets.
	if override.Providers != nil {
		if result.Providers == nil {
			result.Providers = make(map[string]*ProviderConfig)
		}
		for name, p := range override.Providers {
			existing, ok := result.Providers[name]
			if !ok || existing == nil {
				result.Providers[name] = p
				continue
			}
			merged := *existing
			if p.Enabled != nil {
				merged.Enabled = p.Enabled
			}
			if p.Command != "" {
				merged.Command = p.Command
			}
			if p.DefaultModel != "" {
				merged.DefaultModel = p.DefaultModel
			}
			if p.DefaultEffort != "" {
				merged.DefaultEffort = p.DefaultEffort
			}
			if len(p.ModelPrefixes) > 0 {
				merged.ModelPrefixes = p.ModelPrefixes
			}
			result.Providers[name] = &merged
		}
	}

	// Merge extensions key by key; same-key maps merge shallowly.
	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						result.Extensions[key] = mergedMap
						continue
					}
				}
			}
			result.Extensions[key] = value
		}
	}

	return &result
}
