package volume

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isWindows() bool { return runtime.GOOS == "windows" }

func receive(t *testing.T, w *Watcher, timeout time.Duration) (Volume, bool) {
	t.Helper()
	select {
	case v, ok := <-w.Events():
		return v, ok
	case <-time.After(timeout):
		return Volume{}, false
	}
}

type mountSet struct {
	mu    sync.Mutex
	paths map[string]bool
}

func (m *mountSet) add(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[p] = true
}

func (m *mountSet) check(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paths[p]
}

func TestWatcherReportsNewMount(t *testing.T) {
	if isWindows() {
		t.Skip("media roots are not watched on Windows")
	}
	media := t.TempDir()
	existing := filepath.Join(media, "OLD")
	mkdirs(t, existing)

	mounts := &mountSet{paths: map[string]bool{existing: true}}
	w, err := NewWatcher([]string{media},
		WithSettle(40*time.Millisecond),
		WithMountCheck(mounts.check),
		WithUser(""),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Directory appears first, the mount lands a little later.
	usb := filepath.Join(media, "USB_STICK")
	mkdirs(t, usb)
	time.Sleep(60 * time.Millisecond)
	mounts.add(usb)

	v, ok := receive(t, w, 3*time.Second)
	require.True(t, ok, "expected a mount event")
	assert.Equal(t, Volume{Root: usb, Label: "USB_STICK", Removable: true}, v)

	// The volume present at start is never reported.
	_, ok = receive(t, w, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestWatcherIgnoresPlainDirectories(t *testing.T) {
	if isWindows() {
		t.Skip("media roots are not watched on Windows")
	}
	media := t.TempDir()
	w, err := NewWatcher([]string{media},
		WithSettle(20*time.Millisecond),
		WithMountCheck(func(string) bool { return false }),
		WithUser(""),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	mkdirs(t, filepath.Join(media, "junk"))
	_, ok := receive(t, w, 300*time.Millisecond)
	assert.False(t, ok)
}

func TestWatcherFollowsNewUserDirectory(t *testing.T) {
	if isWindows() {
		t.Skip("media roots are not watched on Windows")
	}
	media := t.TempDir()
	w, err := NewWatcher([]string{media},
		WithSettle(30*time.Millisecond),
		WithMountCheck(func(p string) bool { return filepath.Base(p) == "STICK" }),
		WithUser("alice"),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	userDir := filepath.Join(media, "alice")
	require.NoError(t, os.Mkdir(userDir, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Mkdir(filepath.Join(userDir, "STICK"), 0o755))

	v, ok := receive(t, w, 3*time.Second)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(userDir, "STICK"), v.Root)
}

func TestWatcherPollingMode(t *testing.T) {
	var mu sync.Mutex
	vols := []Volume{{Root: "C:\\", Label: "C:"}}
	scan := func() ([]Volume, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]Volume(nil), vols...), nil
	}

	w, err := NewWatcher(nil, WithSettle(20*time.Millisecond), WithScan(scan))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	mu.Lock()
	vols = append(vols, Volume{Root: "E:\\", Label: "E:", Removable: true})
	mu.Unlock()

	v, ok := receive(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "E:", v.Label)
}

func TestWatcherStopClosesEvents(t *testing.T) {
	w, err := NewWatcher(nil, WithScan(func() ([]Volume, error) { return nil, nil }))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcherContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(nil, WithScan(func() ([]Volume, error) { return nil, nil }))
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	_, ok := <-w.Events()
	assert.False(t, ok)
	w.Stop()
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	w.Stop()

	_, ok := <-w.Events()
	assert.False(t, ok)
}
