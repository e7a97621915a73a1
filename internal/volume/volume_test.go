package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func TestScanBasesPrefersUserDirectory(t *testing.T) {
	media := filepath.Join(t.TempDir(), "media")
	runMedia := filepath.Join(t.TempDir(), "run-media")
	missing := filepath.Join(t.TempDir(), "missing")
	mkdirs(t, filepath.Join(media, "alice"), runMedia)

	got := scanBases([]string{media, runMedia, missing}, "alice")
	want := []string{filepath.Join(media, "alice"), media, runMedia}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scanBases() mismatch (-want +got):\n%s", diff)
	}

	got = scanBases([]string{media}, "")
	assert.Equal(t, []string{media}, got)
}

func TestScanMountsKeepsOnlyMountPoints(t *testing.T) {
	media := t.TempDir()
	user := filepath.Join(media, "alice")
	mkdirs(t,
		filepath.Join(user, "USB_STICK"),
		filepath.Join(user, "not-mounted"),
		filepath.Join(media, "SDCARD"),
	)
	require.NoError(t, os.WriteFile(filepath.Join(media, "stray-file"), nil, 0o644))

	mounted := map[string]bool{
		filepath.Join(user, "USB_STICK"): true,
		filepath.Join(media, "SDCARD"):   true,
	}
	got := scanMounts(scanBases([]string{media}, "alice"), func(p string) bool { return mounted[p] })

	want := []Volume{
		{Root: filepath.Join(user, "USB_STICK"), Label: "USB_STICK", Removable: true},
		{Root: filepath.Join(media, "SDCARD"), Label: "SDCARD", Removable: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scanMounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMountsSkipsDuplicates(t *testing.T) {
	media := t.TempDir()
	mkdirs(t, filepath.Join(media, "A"))

	got := scanMounts([]string{media, media}, func(string) bool { return true })
	assert.Len(t, got, 1)
}

func TestListRootsWithoutMedia(t *testing.T) {
	if isWindows() {
		t.Skip("drive letters are enumerated on Windows")
	}
	vols, err := ListRoots([]string{filepath.Join(t.TempDir(), "none")})
	require.NoError(t, err)
	assert.Empty(t, vols)

	// Plain directories are not mount points.
	media := t.TempDir()
	mkdirs(t, filepath.Join(media, "fake-usb"))
	vols, err = ListRoots([]string{media})
	require.NoError(t, err)
	assert.Empty(t, vols)
}

func TestIsMountPoint(t *testing.T) {
	if isWindows() {
		t.Skip("unix mount semantics")
	}
	assert.True(t, IsMountPoint("/"))

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	mkdirs(t, sub)
	assert.False(t, IsMountPoint(sub))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.False(t, IsMountPoint(file))
	assert.False(t, IsMountPoint(filepath.Join(dir, "missing")))
}

func TestFind(t *testing.T) {
	vols := []Volume{
		{Root: `E:\`, Label: "E:"},
		{Root: "/media/alice/USB", Label: "USB"},
	}

	v, ok := Find(vols, "e:")
	assert.True(t, ok)
	assert.Equal(t, `E:\`, v.Root)

	v, ok = Find(vols, "/media/alice/USB/")
	assert.True(t, ok)
	assert.Equal(t, "USB", v.Label)

	v, ok = Find(vols, "usb")
	assert.True(t, ok)
	assert.Equal(t, "/media/alice/USB", v.Root)

	_, ok = Find(vols, "F:")
	assert.False(t, ok)
}

func TestVolumeString(t *testing.T) {
	assert.Equal(t, "USB (/media/u/USB)", Volume{Root: "/media/u/USB", Label: "USB"}.String())
	assert.Equal(t, "/x", Volume{Root: "/x"}.String())
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "gone")))
}
