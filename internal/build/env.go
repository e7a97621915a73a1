// Package build assembles the environment handed to toolchain subprocesses.
//
// Every tool AutoUSB shells out to (the bundler, the cross-compiler, the package
// manager) gets an explicit, filtered environment from this package rather than
// the full os.Environ() of the CLI process.
package build

import (
	"os"
	"path/filepath"
	"strings"

	"autousb/internal/config"
	"autousb/internal/logging"
)

// ToolchainEnv returns the base environment for any toolchain run.
// It merges:
// 1. Essential host variables (PATH, home and temp directories, Windows shell vars)
// 2. Whitelisted env vars from the toolchain config
func ToolchainEnv(cfg *config.ToolchainConfig) []string {
	env := getBaseEnv()

	if cfg != nil {
		for _, key := range cfg.AllowedEnvVars {
			if val := os.Getenv(key); val != "" {
				env = setEnvKey(env, key, val)
				logging.BuildDebug("Added whitelisted env: %s", key)
			}
		}
	}

	logging.BuildDebug("Toolchain environment has %d vars", len(env))
	return env
}

// BundlerEnv returns the environment for a PyInstaller run inside workspace.
// PyInstaller's cache is kept inside the workspace unless the user pinned one.
func BundlerEnv(cfg *config.ToolchainConfig, workspace string) []string {
	env := ToolchainEnv(cfg)
	if !hasEnvKey(env, "PYINSTALLER_CONFIG_DIR") {
		if dir := os.Getenv("PYINSTALLER_CONFIG_DIR"); dir != "" {
			env = append(env, "PYINSTALLER_CONFIG_DIR="+dir)
		} else if workspace != "" {
			env = append(env, "PYINSTALLER_CONFIG_DIR="+filepath.Join(workspace, ".pyinstaller"))
		}
	}
	env = setEnvKey(env, "PYTHONIOENCODING", "utf-8")
	env = setEnvKey(env, "PYTHONDONTWRITEBYTECODE", "1")
	return env
}

// CompilerEnv returns the environment for a cross-compiler run inside workspace.
func CompilerEnv(cfg *config.ToolchainConfig, workspace string) []string {
	env := ToolchainEnv(cfg)
	if !hasEnvKey(env, "TMPDIR") {
		if tmp := deriveTempDir(workspace); tmp != "" {
			env = append(env, "TMPDIR="+tmp)
			logging.BuildDebug("Derived TMPDIR: %s", tmp)
		}
	}
	return env
}

// InstallerEnv returns the environment for the package manager install.
func InstallerEnv(cfg *config.ToolchainConfig) []string {
	env := ToolchainEnv(cfg)
	return setEnvKey(env, "DEBIAN_FRONTEND", "noninteractive")
}

// getBaseEnv returns essential host environment variables.
func getBaseEnv() []string {
	env := []string{}

	// Always include PATH for finding the toolchain binaries
	if path := os.Getenv("PATH"); path != "" {
		env = append(env, "PATH="+path)
	}

	// Windows hosts need SYSTEMROOT for DLL loading and APPDATA for pip-installed scripts
	essentialVars := []string{
		"HOME", "USER", "LANG",
		"USERPROFILE", "APPDATA", "LOCALAPPDATA",
		"SYSTEMROOT", "COMSPEC", "PATHEXT",
		"TEMP", "TMP", "TMPDIR",
	}

	for _, key := range essentialVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}

	return env
}

// deriveTempDir picks a temp directory for compiler intermediates when the
// host has none configured.
func deriveTempDir(workspace string) string {
	if tmp := os.Getenv("TEMP"); tmp != "" {
		return tmp
	}
	if tmp := os.Getenv("TMP"); tmp != "" {
		return tmp
	}
	if workspace != "" {
		return workspace
	}
	return os.TempDir()
}

// hasEnvKey checks if an environment key is already set.
func hasEnvKey(env []string, key string) bool {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// setEnvKey sets or updates an environment variable.
func setEnvKey(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = key + "=" + value
			return env
		}
	}
	return append(env, key+"="+value)
}
