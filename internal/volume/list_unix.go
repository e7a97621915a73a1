//go:build unix

package volume

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

func list(roots []string) ([]Volume, error) {
	return scanMounts(scanBases(roots, currentUser()), IsMountPoint), nil
}

// IsMountPoint reports whether path is a directory on a different device than
// its parent, or the filesystem root. Symlinks are never mount points.
func IsMountPoint(path string) bool {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return false
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return false
	}

	var parent unix.Stat_t
	if err := unix.Lstat(filepath.Join(path, ".."), &parent); err != nil {
		return false
	}
	if st.Dev != parent.Dev {
		return true
	}
	return st.Ino == parent.Ino
}
