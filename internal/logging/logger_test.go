package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	t.Cleanup(func() {
		SetLogger(nil)
		mu.Lock()
		categories = nil
		mu.Unlock()
	})
	return logs
}

func TestCategoryLoggerNamesEntries(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Packager("building %s", "autorun_built.exe")
	TactileDebug("exit=%d", 0)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "packager", entries[0].LoggerName)
	assert.Equal(t, "building autorun_built.exe", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "tactile", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel)

	AutorunDebug("hidden")
	Publish("hidden too")
	PackagerWarn("visible")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	mu.Lock()
	categories = map[string]bool{"volume": false}
	mu.Unlock()

	Volume("should not appear")
	Autorun("should appear")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "autorun", logs.All()[0].LoggerName)
}

func TestWithAddsFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Get(CategoryStore).With("id", "abc").Info("recorded")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["id"])
}

func TestInitializeWritesFile(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	path := filepath.Join(t.TempDir(), "logs", "autousb.log")

	require.NoError(t, Initialize(Options{Level: "debug", Format: "json", File: path}))
	Autorun("autorun.inf created at %s", "/media/usb/autorun.inf")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"logger":"autorun"`), string(data))
	assert.Contains(t, string(data), "autorun.inf created at /media/usb/autorun.inf")
}

func TestInitializeRejectsBadOptions(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	assert.Error(t, Initialize(Options{Level: "loud"}))
	assert.Error(t, Initialize(Options{Format: "xml"}))
}

func TestTimerReturnsElapsed(t *testing.T) {
	observe(t, zapcore.DebugLevel)
	timer := StartTimer(CategoryPackager, "noop")
	assert.GreaterOrEqual(t, int64(timer.Stop()), int64(0))
}
