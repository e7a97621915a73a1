//go:build !unix && !windows

package volume

import (
	"fmt"
	"runtime"
)

func list(_ []string) ([]Volume, error) {
	return nil, fmt.Errorf("volume discovery is not supported on %s", runtime.GOOS)
}

// IsMountPoint is always false where mounts cannot be inspected.
func IsMountPoint(string) bool { return false }
