package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all AutoUSB configuration.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Volumes   VolumesConfig   `yaml:"volumes"`
	Logging   LoggingConfig   `yaml:"logging"`
	History   HistoryConfig   `yaml:"history"`
}

// OutputConfig controls where packaged executables land.
type OutputConfig struct {
	// Directory for built executables. Empty means the current working directory.
	Directory string `yaml:"directory"`

	// FileName is the preferred artifact name; collisions get a numeric suffix.
	FileName string `yaml:"file_name"`
}

// VolumesConfig configures volume discovery.
type VolumesConfig struct {
	// MediaRoots are scanned for mount points on non-Windows hosts.
	MediaRoots []string `yaml:"media_roots"`

	// WatchSettle is how long a new mount point must exist before it is reported.
	WatchSettle string `yaml:"watch_settle"`
}

// HistoryConfig configures the build ledger.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Directory: "",
			FileName:  "autorun_built.exe",
		},
		Toolchain: DefaultToolchainConfig(),
		Volumes: VolumesConfig{
			MediaRoots:  []string{"/media", "/run/media"},
			WatchSettle: "1s",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(DefaultDir(), "history.db"),
		},
	}
}

// DefaultDir returns the per-user AutoUSB directory (~/.autousb).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".autousb"
	}
	return filepath.Join(home, ".autousb")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("AUTOUSB_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if level := os.Getenv("AUTOUSB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if roots := os.Getenv("AUTOUSB_MEDIA_ROOTS"); roots != "" {
		var parsed []string
		for _, r := range filepath.SplitList(roots) {
			if r = strings.TrimSpace(r); r != "" {
				parsed = append(parsed, r)
			}
		}
		if len(parsed) > 0 {
			c.Volumes.MediaRoots = parsed
		}
	}
	if db := os.Getenv("AUTOUSB_HISTORY_DB"); db != "" {
		c.History.DatabasePath = db
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.FileName) == "" {
		return fmt.Errorf("output.file_name must not be empty")
	}
	if strings.ContainsAny(c.Output.FileName, `/\`) {
		return fmt.Errorf("output.file_name must be a bare file name, got %q", c.Output.FileName)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Toolchain.Validate(); err != nil {
		return err
	}
	if runtime.GOOS != "windows" && len(c.Volumes.MediaRoots) == 0 {
		return fmt.Errorf("volumes.media_roots must list at least one directory")
	}
	return nil
}

// OutputDirectory resolves the artifact directory, defaulting to the working directory.
func (c *Config) OutputDirectory() (string, error) {
	if c.Output.Directory != "" {
		return c.Output.Directory, nil
	}
	return os.Getwd()
}

// GetWatchSettle returns the mount settle delay as a duration.
func (c *Config) GetWatchSettle() time.Duration {
	d, err := time.ParseDuration(c.Volumes.WatchSettle)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}
