package build

import (
	"path/filepath"
	"strings"
	"testing"

	"autousb/internal/config"
)

func lookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix), true
		}
	}
	return "", false
}

func clearEnvVars(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestToolchainEnv_Whitelist(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "/venv")
	t.Setenv("AUTOUSB_SECRET", "nope")

	cfg := config.DefaultToolchainConfig()
	env := ToolchainEnv(&cfg)

	if got, ok := lookupEnv(env, "PATH"); !ok || got != "/usr/bin" {
		t.Fatalf("PATH = %q (%v), want /usr/bin", got, ok)
	}
	if got, ok := lookupEnv(env, "VIRTUAL_ENV"); !ok || got != "/venv" {
		t.Fatalf("VIRTUAL_ENV = %q (%v), want /venv", got, ok)
	}
	if hasEnvKey(env, "AUTOUSB_SECRET") {
		t.Fatalf("ToolchainEnv leaked a non-whitelisted variable: %v", env)
	}
}

func TestToolchainEnv_NilConfig(t *testing.T) {
	t.Setenv("PATH", "/bin")
	env := ToolchainEnv(nil)
	if !hasEnvKey(env, "PATH") {
		t.Fatalf("ToolchainEnv(nil) missing PATH: %v", env)
	}
}

func TestBundlerEnv_ConfigDir(t *testing.T) {
	cfg := config.DefaultToolchainConfig()

	t.Run("workspace", func(t *testing.T) {
		t.Setenv("PYINSTALLER_CONFIG_DIR", "")
		ws := t.TempDir()
		env := BundlerEnv(&cfg, ws)

		want := filepath.Join(ws, ".pyinstaller")
		if got, _ := lookupEnv(env, "PYINSTALLER_CONFIG_DIR"); got != want {
			t.Fatalf("PYINSTALLER_CONFIG_DIR = %q, want %q", got, want)
		}
		if got, _ := lookupEnv(env, "PYTHONIOENCODING"); got != "utf-8" {
			t.Fatalf("PYTHONIOENCODING = %q, want utf-8", got)
		}
	})

	t.Run("pinned", func(t *testing.T) {
		pinned := t.TempDir()
		t.Setenv("PYINSTALLER_CONFIG_DIR", pinned)
		env := BundlerEnv(&cfg, t.TempDir())

		if got, _ := lookupEnv(env, "PYINSTALLER_CONFIG_DIR"); got != pinned {
			t.Fatalf("PYINSTALLER_CONFIG_DIR = %q, want %q", got, pinned)
		}
	})
}

func TestCompilerEnv_TempDir(t *testing.T) {
	cfg := config.DefaultToolchainConfig()
	keys := []string{"TEMP", "TMP", "TMPDIR"}

	t.Run("host_tmpdir", func(t *testing.T) {
		clearEnvVars(t, keys...)
		tmp := t.TempDir()
		t.Setenv("TMPDIR", tmp)

		env := CompilerEnv(&cfg, t.TempDir())
		if got, _ := lookupEnv(env, "TMPDIR"); got != tmp {
			t.Fatalf("TMPDIR = %q, want %q", got, tmp)
		}
	})

	t.Run("temp", func(t *testing.T) {
		clearEnvVars(t, keys...)
		temp := t.TempDir()
		t.Setenv("TEMP", temp)

		env := CompilerEnv(&cfg, t.TempDir())
		if got, _ := lookupEnv(env, "TMPDIR"); got != temp {
			t.Fatalf("TMPDIR = %q, want %q", got, temp)
		}
	})

	t.Run("workspace", func(t *testing.T) {
		clearEnvVars(t, keys...)
		ws := t.TempDir()

		env := CompilerEnv(&cfg, ws)
		if got, _ := lookupEnv(env, "TMPDIR"); got != ws {
			t.Fatalf("TMPDIR = %q, want %q", got, ws)
		}
	})
}

func TestInstallerEnv(t *testing.T) {
	cfg := config.DefaultToolchainConfig()
	env := InstallerEnv(&cfg)
	if got, _ := lookupEnv(env, "DEBIAN_FRONTEND"); got != "noninteractive" {
		t.Fatalf("DEBIAN_FRONTEND = %q, want noninteractive", got)
	}
}

func TestEnvKeyHelpers(t *testing.T) {
	env := []string{"FOO=1", "BAR=2"}

	if !hasEnvKey(env, "FOO") {
		t.Fatalf("hasEnvKey(env, FOO) = false, want true")
	}
	if hasEnvKey(env, "BA") {
		t.Fatalf("hasEnvKey(env, BA) = true, want false")
	}

	updated := setEnvKey(append([]string{}, env...), "FOO", "3")
	if updated[0] != "FOO=3" {
		t.Fatalf("setEnvKey updated[0] = %q, want %q", updated[0], "FOO=3")
	}

	added := setEnvKey(append([]string{}, env...), "BAZ", "9")
	if !hasEnvKey(added, "BAZ") {
		t.Fatalf("setEnvKey did not add BAZ key")
	}
}
