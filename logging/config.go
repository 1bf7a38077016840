package logging

// Config describes the `logging` extension section of velocity.yml.
type Config struct {
	Level        string       `yaml:"level" mapstructure:"level"`
	ReportCaller bool         `yaml:"report_caller" mapstructure:"report_caller"`
	Format       FormatConfig `yaml:"format" mapstructure:"format"`
	File         FileConfig   `yaml:"file" mapstructure:"file"`
}

// FormatConfig controls how log lines are rendered.
type FormatConfig struct {
	Preset             string `yaml:"preset" mapstructure:"preset"` // "", "json", "simple"
	DisableTimestamp   bool   `yaml:"disable_timestamp" mapstructure:"disable_timestamp"`
	DisableComponent   bool   `yaml:"disable_component" mapstructure:"disable_component"`
	StructuredToStderr string `yaml:"structured_to_stderr" mapstructure:"structured_to_stderr"` // "auto", "always", "never"
}

// FileConfig controls the file sink.
type FileConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}
