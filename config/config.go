package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/OptimiLabs/velocity-sub007/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// ConfigFileName is the project-level configuration file name.
const ConfigFileName = "velocity.yml"

// Load reads and parses a velocity configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration data after env-var expansion.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config")
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/velocity/velocity.yml) - base layer
// 2. Project config (velocity.yml) - overrides global
// 3. Local override (velocity.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	var finalConfig *Config

	// 1. Global config is optional
	if home, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(home, ".config", "velocity", ConfigFileName)
		if globalData, err := os.ReadFile(globalPath); err == nil {
			expanded := expandEnvVars(string(globalData))
			var globalConfig Config
			if err := yaml.Unmarshal([]byte(expanded), &globalConfig); err == nil {
				finalConfig = &globalConfig
			} else {
				logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
			}
		}
	}

	// 2. Project config is optional too: velocity runs fine on defaults
	projectPath, err := FindConfigFile(startDir)
	if err == nil {
		projectData, readErr := os.ReadFile(projectPath)
		if readErr != nil {
			return nil, errors.Wrap(readErr, errors.ErrCodeConfigInvalid, "failed to read project config").
				WithDetail("path", projectPath)
		}

		expanded := expandEnvVars(string(projectData))
		var projectConfig Config
		if err := yaml.Unmarshal([]byte(expanded), &projectConfig); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse project config").
				WithDetail("path", projectPath)
		}

		if finalConfig == nil {
			finalConfig = &projectConfig
		} else {
			finalConfig = mergeConfigs(finalConfig, &projectConfig)
		}

		// 3. Local override next to the project config
		merged, err := applyOverrides(finalConfig, filepath.Dir(projectPath))
		if err != nil {
			return nil, err
		}
		finalConfig = merged
	}

	if finalConfig == nil {
		finalConfig = &Config{}
	}

	finalConfig.ApplyDefaults()
	return finalConfig, nil
}

// FindConfigFile walks up from startDir looking for velocity.yml.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ConfigNotFound(filepath.Join(startDir, ConfigFileName))
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to an empty string.
func expandEnvVars(data string) string {
	return envVarRegex.ReplaceAllStringFunc(data, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
