package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = ".cstrmap.yaml"

// Config holds user-overridable cstrmap settings.
type Config struct {
	// OutDir is the directory the bundle is written into. It is not
	// created on demand; a missing directory fails the run.
	OutDir string `yaml:"out_dir"`

	// Archive is the SQLite database path for recording runs.
	// Empty disables archiving.
	Archive string `yaml:"archive"`

	// MaxFileMB is the input size above which a warning is logged.
	// Default: 50.
	MaxFileMB *int64 `yaml:"max_file_mb"`

	// ScanIgnore lists extra directory names or glob patterns skipped
	// during -scan discovery, added to the built-in ignore set.
	ScanIgnore []string `yaml:"scan_ignore"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads a config file from path.
// Returns default config if the file doesn't exist or doesn't parse.
func Load(path string) *Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // file not found or unreadable, use defaults
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default() // invalid YAML, use defaults
	}

	return cfg
}

// EffectiveOutDir returns the configured output directory,
// or the default ("out") if not set.
func (c *Config) EffectiveOutDir() string {
	if c.OutDir != "" {
		return c.OutDir
	}
	return "out"
}

// EffectiveMaxFileMB returns the configured oversize warning threshold,
// or the default (50) if not set.
func (c *Config) EffectiveMaxFileMB() int64 {
	if c.MaxFileMB != nil {
		return *c.MaxFileMB
	}
	return 50
}
