package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("output dir", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOUSB_OUTPUT_DIR", "/var/autousb")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/var/autousb", cfg.Output.Directory)
	})

	t.Run("log level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOUSB_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("media roots use the path list separator", func(t *testing.T) {
		clearEnv(t)
		sep := string(filepath.ListSeparator)
		t.Setenv("AUTOUSB_MEDIA_ROOTS", strings.Join([]string{"/mnt/a", " ", "/mnt/b"}, sep))

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, cfg.Volumes.MediaRoots)
	})

	t.Run("blank media roots keep defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOUSB_MEDIA_ROOTS", string(filepath.ListSeparator))

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, []string{"/media", "/run/media"}, cfg.Volumes.MediaRoots)
	})

	t.Run("history db", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AUTOUSB_HISTORY_DB", "/tmp/h.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/h.db", cfg.History.DatabasePath)
	})

	t.Run("empty env leaves config untouched", func(t *testing.T) {
		clearEnv(t)

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, DefaultConfig(), cfg)
	})
}
