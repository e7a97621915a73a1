package packager

import (
	"path/filepath"
	"strconv"
	"strings"

	"autousb/internal/tactile"
)

// DefaultFileName is the artifact name used when the caller gives only a directory.
const DefaultFileName = "autorun_built.exe"

// NextAvailablePath returns path if nothing exists there, otherwise the first
// free <base>_<N><ext> in the same directory for N = 1, 2, 3, ...
func NextAvailablePath(path string) string {
	if !tactile.FileExists(path) {
		return path
	}
	dir := filepath.Dir(path)
	base, ext := splitExt(filepath.Base(path))
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, base+"_"+strconv.Itoa(n)+ext)
		if !tactile.FileExists(candidate) {
			return candidate
		}
	}
}

// splitExt splits name into base and extension. Leading dots belong to the
// base, so ".profile" has no extension.
func splitExt(name string) (string, string) {
	trimmed := strings.TrimLeft(name, ".")
	ext := filepath.Ext(trimmed)
	return strings.TrimSuffix(name, ext), ext
}

// artifactName is the bundler --name for a destination: its base without extension.
func artifactName(dest string) string {
	base, _ := splitExt(filepath.Base(dest))
	return base
}
