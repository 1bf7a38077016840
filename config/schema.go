package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the core velocity configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field, which holds free-form sections owned by other tools.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extension sections are free-form, so the base schema must allow
		// unknown top-level keys.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// A mirror struct without the Extensions field keeps the inline map out
	// of the reflected schema.
	type BaseConfig struct {
		Version         string                     `yaml:"version,omitempty" jsonschema:"description=Config format version"`
		Backend         BackendConfig              `yaml:"backend,omitempty" jsonschema:"description=Process-hosting backend endpoints"`
		PrimaryProvider string                     `yaml:"primary_provider,omitempty" jsonschema:"description=Provider assumed when inference finds no match"`
		Providers       map[string]*ProviderConfig `yaml:"providers,omitempty" jsonschema:"description=Map of provider name to provider configuration"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Velocity Configuration"
	schema.Description = "Schema for velocity.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
