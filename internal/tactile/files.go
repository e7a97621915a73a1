package tactile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"autousb/internal/logging"
)

// ErrSameFile is returned by CopyFile when src and dst are the same file.
var ErrSameFile = errors.New("source and destination are the same file")

// FileResult describes a completed file copy.
type FileResult struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Bytes       int64       `json:"bytes"`
	Hash        string      `json:"hash"`
	Mode        os.FileMode `json:"mode"`
	ModTime     time.Time   `json:"mod_time"`
}

// CopyFile copies src to dst byte for byte, carrying over the permission bits
// and modification time. The bytes land in a temporary file next to dst that
// is renamed over dst only once complete. On failure the temporary file is
// removed and an existing dst is left as it was.
func CopyFile(src, dst string) (result *FileResult, err error) {
	timer := logging.StartTimer(logging.CategoryTactile, "File copy")
	defer timer.Stop()

	logging.TactileDebug("Copying %s -> %s", src, dst)

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source %s is not a regular file", src)
	}
	if dstInfo, statErr := os.Stat(dst); statErr == nil && os.SameFile(info, dstInfo) {
		return nil, ErrSameFile
	}

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	tmp := out.Name()
	defer func() {
		if err != nil {
			_ = out.Close()
			if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
				logging.TactileWarn("Failed to remove partial copy %s: %v", tmp, rmErr)
			}
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}
	if err = out.Sync(); err != nil {
		return nil, fmt.Errorf("flush destination: %w", err)
	}
	if err = out.Close(); err != nil {
		return nil, fmt.Errorf("close destination: %w", err)
	}
	// CreateTemp always uses 0600.
	if err = os.Chmod(tmp, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("chmod destination: %w", err)
	}
	if err = os.Chtimes(tmp, time.Now(), info.ModTime()); err != nil {
		return nil, fmt.Errorf("set modification time: %w", err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		return nil, fmt.Errorf("replace destination: %w", err)
	}

	result = &FileResult{
		Source:      src,
		Destination: dst,
		Bytes:       n,
		Hash:        hex.EncodeToString(h.Sum(nil)),
		Mode:        info.Mode().Perm(),
		ModTime:     info.ModTime(),
	}
	logging.Tactile("Copied %s -> %s (%d bytes)", src, dst, n)
	return result, nil
}

// IsRegularFile reports whether path names an existing regular file.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FileExists checks if anything exists at path.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
