package config

import (
	"fmt"
	"time"
)

// Install policies for a missing cross-compiler.
const (
	InstallAsk    = "ask"    // prompt the user
	InstallAlways = "always" // install without prompting
	InstallNever  = "never"  // report the missing toolchain
)

// ToolchainConfig names the external build tools and how they are invoked.
type ToolchainConfig struct {
	// Bundler is the native-platform bundler (PyInstaller).
	Bundler string `yaml:"bundler"`

	// CrossCompilers are probed in order on non-Windows hosts.
	CrossCompilers []string `yaml:"cross_compilers"`

	// PackageManager must be on PATH for auto-install to be offered.
	PackageManager string `yaml:"package_manager"`

	// InstallCommand installs the cross-compiler toolchain.
	InstallCommand []string `yaml:"install_command"`

	// AutoInstall is one of ask, always, never.
	AutoInstall string `yaml:"auto_install"`

	// Timeout bounds a single toolchain run.
	Timeout string `yaml:"timeout"`

	// AllowedEnvVars are passed through to toolchain subprocesses.
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// DefaultToolchainConfig returns the toolchain defaults.
func DefaultToolchainConfig() ToolchainConfig {
	return ToolchainConfig{
		Bundler:        "pyinstaller",
		CrossCompilers: []string{"x86_64-w64-mingw32-g++", "i686-w64-mingw32-g++"},
		PackageManager: "apt-get",
		InstallCommand: []string{"sudo", "apt-get", "install", "-y", "mingw-w64"},
		AutoInstall:    InstallAsk,
		Timeout:        "10m",
		AllowedEnvVars: []string{"PYTHONPATH", "VIRTUAL_ENV"},
	}
}

// Validate checks toolchain settings.
func (c *ToolchainConfig) Validate() error {
	if c.Bundler == "" {
		return fmt.Errorf("toolchain.bundler must not be empty")
	}
	if len(c.CrossCompilers) == 0 {
		return fmt.Errorf("toolchain.cross_compilers must list at least one compiler")
	}
	switch c.AutoInstall {
	case InstallAsk, InstallAlways, InstallNever:
	default:
		return fmt.Errorf("invalid toolchain.auto_install %q: must be ask, always or never", c.AutoInstall)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid toolchain.timeout %q: %w", c.Timeout, err)
		}
	}
	return nil
}

// GetTimeout returns the toolchain timeout as a duration.
func (c *ToolchainConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
