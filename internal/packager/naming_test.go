package packager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestNextAvailablePath(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "autorun_built.exe")

	assert.Equal(t, want, NextAvailablePath(want))

	touch(t, want)
	assert.Equal(t, filepath.Join(dir, "autorun_built_1.exe"), NextAvailablePath(want))

	touch(t, filepath.Join(dir, "autorun_built_1.exe"))
	assert.Equal(t, filepath.Join(dir, "autorun_built_2.exe"), NextAvailablePath(want))

	// Gaps are reused: _3 is free even if _4 exists.
	touch(t, filepath.Join(dir, "autorun_built_2.exe"))
	touch(t, filepath.Join(dir, "autorun_built_4.exe"))
	assert.Equal(t, filepath.Join(dir, "autorun_built_3.exe"), NextAvailablePath(want))
}

func TestNextAvailablePathCountsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))
	assert.Equal(t, filepath.Join(dir, "out_1"), NextAvailablePath(filepath.Join(dir, "out")))
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		in, base, ext string
	}{
		{"app.exe", "app", ".exe"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"noext", "noext", ""},
		{".profile", ".profile", ""},
		{"..x", "..x", ""},
		{".hidden.exe", ".hidden", ".exe"},
	}
	for _, tt := range tests {
		base, ext := splitExt(tt.in)
		assert.Equal(t, tt.base, base, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "autorun_built_1", artifactName("/x/autorun_built_1.exe"))
	assert.Equal(t, "tool", artifactName("tool"))
}
