//go:build windows

package volume

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func list(_ []string) ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("get logical drives: %w", err)
	}

	var vols []Volume
	for letter := 'C'; letter <= 'Z'; letter++ {
		if mask&(1<<uint(letter-'A')) == 0 {
			continue
		}
		root := string(letter) + `:\`
		if !isDir(root) {
			continue
		}
		vols = append(vols, Volume{
			Root:      root,
			Label:     string(letter) + ":",
			Removable: driveType(root) != windows.DRIVE_FIXED,
		})
	}
	return vols, nil
}

func driveType(root string) uint32 {
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return windows.DRIVE_UNKNOWN
	}
	return windows.GetDriveType(p)
}

// IsMountPoint reports whether path is an existing drive root.
func IsMountPoint(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	return isDir(path[:2] + `\`)
}
