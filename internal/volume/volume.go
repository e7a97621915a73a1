// Package volume discovers removable volumes that can carry an autorun.inf.
//
// On Windows every existing drive letter from C: to Z: is a candidate. Elsewhere
// the media roots (/media and /run/media by default) are scanned, the current
// user's subdirectory first, and only real mount points are kept.
package volume

import (
	"os"
	"path/filepath"
	"strings"

	"autousb/internal/logging"
)

// DefaultMediaRoots are scanned on non-Windows hosts.
var DefaultMediaRoots = []string{"/media", "/run/media"}

// Volume is a candidate target volume.
type Volume struct {
	// Root is the volume's top-level directory.
	Root string `json:"root"`
	// Label is the drive letter or the mount directory name.
	Label string `json:"label"`
	// Removable is false only when the platform reports a fixed disk.
	Removable bool `json:"removable"`
}

func (v Volume) String() string {
	if v.Label == "" || v.Label == v.Root {
		return v.Root
	}
	return v.Label + " (" + v.Root + ")"
}

// List returns the candidate volumes using the default media roots.
func List() ([]Volume, error) {
	return ListRoots(DefaultMediaRoots)
}

// ListRoots returns the candidate volumes under roots. Roots are ignored on
// Windows, where drive letters are enumerated instead.
func ListRoots(roots []string) ([]Volume, error) {
	vols, err := list(roots)
	if err != nil {
		return nil, err
	}
	logging.VolumeDebug("Found %d candidate volumes", len(vols))
	return vols, nil
}

// Exists reports whether root is still an existing directory.
func Exists(root string) bool {
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

// currentUser returns the login name used for the per-user media directory.
func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

// scanBases returns the directories whose children are mount candidates,
// the user's subdirectory of each root first.
func scanBases(roots []string, user string) []string {
	var bases []string
	for _, root := range roots {
		if !isDir(root) {
			continue
		}
		if user != "" {
			if userDir := filepath.Join(root, user); isDir(userDir) {
				bases = append(bases, userDir)
			}
		}
		bases = append(bases, root)
	}
	return bases
}

// scanMounts lists the mount points directly below each base, in order,
// without duplicates.
func scanMounts(bases []string, isMount func(string) bool) []Volume {
	seen := make(map[string]bool)
	var vols []Volume
	for _, base := range bases {
		entries, err := os.ReadDir(base)
		if err != nil {
			logging.VolumeWarn("Cannot read %s: %v", base, err)
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(base, entry.Name())
			if seen[path] || !isMount(path) {
				continue
			}
			seen[path] = true
			vols = append(vols, Volume{Root: path, Label: entry.Name(), Removable: true})
		}
	}
	return vols
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Find returns the volume in vols whose root or label matches name,
// ignoring case and a trailing separator.
func Find(vols []Volume, name string) (Volume, bool) {
	want := normalize(name)
	for _, v := range vols {
		if normalize(v.Root) == want || strings.EqualFold(v.Label, name) {
			return v, true
		}
	}
	return Volume{}, false
}

func normalize(p string) string {
	p = strings.TrimRight(p, `/\`)
	return strings.ToLower(p)
}
