package tactile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFilePreservesContentAndMetadata(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.exe")
	dst := filepath.Join(dir, "copy.exe")
	payload := []byte("MZ\x90\x00binary payload")

	require.NoError(t, os.WriteFile(src, payload, 0o755))
	mtime := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	result, err := CopyFile(src, dst)
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.Hash)
	assert.Equal(t, int64(len(payload)), result.Bytes)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "mtime %s, want %s", info.ModTime(), mtime)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

func TestCopyFileOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("much older content"), 0o600))

	_, err := CopyFile(src, dst)
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")

	_, err := CopyFile(filepath.Join(dir, "missing"), dst)
	require.Error(t, err)
	assert.NoFileExists(t, dst)
}

func TestCopyFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyFile(dir, filepath.Join(dir, "dst"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestCopyFileSameFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.exe")
	require.NoError(t, os.WriteFile(src, []byte("keep me"), 0o644))

	_, err := CopyFile(src, src)
	assert.True(t, errors.Is(err, ErrSameFile))

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestCopyFileMissingDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := CopyFile(src, filepath.Join(dir, "no", "such", "dst"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create destination")
}

func TestFileChecks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, IsRegularFile(file))
	assert.False(t, IsRegularFile(dir))
	assert.False(t, IsRegularFile(filepath.Join(dir, "missing")))

	assert.True(t, FileExists(dir))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

// unreadableSource returns a path that stats as a regular file but fails on
// read. Only Linux provides one without privileges.
func unreadableSource(t *testing.T) string {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("needs /proc/self/mem")
	}
	const path = "/proc/self/mem"
	if !IsRegularFile(path) {
		t.Skip("/proc/self/mem is not available")
	}
	return path
}

func TestCopyFileFailureKeepsExistingDestination(t *testing.T) {
	src := unreadableSource(t)
	dir := t.TempDir()
	dst := filepath.Join(dir, "app.exe")
	require.NoError(t, os.WriteFile(dst, []byte("previous build"), 0o755))

	_, err := CopyFile(src, dst)
	require.Error(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous build", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary copy left behind")
	assert.Equal(t, "app.exe", entries[0].Name())
}

func TestCopyFileOntoDirectoryLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	dst := filepath.Join(dir, "app.exe")
	require.NoError(t, os.Mkdir(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "keep"), nil, 0o644))

	_, err := CopyFile(src, dst)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}
