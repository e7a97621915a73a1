// Package publish puts an executable on a volume and points autorun.inf at it.
//
// It is the one place where a file copy and the descriptor writer meet. The
// ordering is fixed: copy first, descriptor second, and a failed copy stops
// everything so the descriptor never names a file that is not there.
package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autousb/internal/autorun"
	"autousb/internal/logging"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

// Request is one publish operation.
type Request struct {
	// Volume is the root of the target volume.
	Volume string
	// Label is the optional display name written as Label=.
	Label string
	// Source is the executable to reference (and copy when Copy is set).
	Source string
	// Copy copies Source onto the volume before writing the descriptor.
	Copy bool
}

// Result describes what a successful publish did.
type Result struct {
	Volume     string
	Descriptor string
	// Executable is the name written into the descriptor, empty if none.
	Executable string
	// Copied is set when the source was copied onto the volume.
	Copied   *tactile.FileResult
	Duration time.Duration
}

// Recorder receives every publish attempt once it has finished.
type Recorder interface {
	RecordPublish(req Request, result *Result, err error)
}

// Publisher runs publish requests.
type Publisher struct {
	recorder Recorder
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRecorder reports attempts to r.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish copies the source executable to the volume when copySource is set,
// then writes the descriptor referencing the executable's base name.
func Publish(volumeRoot, label, sourceExecutablePath string, copySource bool) error {
	_, err := New().Publish(Request{
		Volume: volumeRoot,
		Label:  label,
		Source: sourceExecutablePath,
		Copy:   copySource,
	})
	return err
}

// Publish runs req. See the package-level Publish for the semantics.
func (p *Publisher) Publish(req Request) (result *Result, err error) {
	start := time.Now()
	req.Volume = strings.TrimSpace(req.Volume)
	req.Label = strings.TrimSpace(req.Label)
	req.Source = strings.TrimSpace(req.Source)

	defer func() {
		if result != nil {
			result.Duration = time.Since(start)
		}
		if p.recorder != nil {
			p.recorder.RecordPublish(req, result, err)
		}
	}()

	result, err = p.publish(req)
	if err != nil {
		logging.PublishError("Publish to %s failed: %v", req.Volume, err)
		return nil, err
	}
	logging.Publish("Published to %s (executable=%q, copied=%v)", req.Volume, result.Executable, result.Copied != nil)
	return result, nil
}

func (p *Publisher) publish(req Request) (*Result, error) {
	const op = "publish"

	if req.Volume == "" {
		return nil, types.Errorf(types.KindInvalidInput, op, "please select a USB drive")
	}
	if info, err := os.Stat(req.Volume); err != nil || !info.IsDir() {
		return nil, types.NewError(types.KindNotFound, op, fmt.Sprintf("drive %q does not exist", req.Volume), err)
	}
	if req.Source != "" && !tactile.IsRegularFile(req.Source) {
		return nil, types.Errorf(types.KindNotFound, op, "file not found: %s", req.Source)
	}

	result := &Result{Volume: req.Volume, Descriptor: autorun.Path(req.Volume)}

	if req.Copy {
		if req.Source == "" {
			return nil, types.Errorf(types.KindInvalidInput, op, "select an executable to auto-run before saving to USB")
		}
		name := filepath.Base(req.Source)
		dst := filepath.Join(req.Volume, name)
		logging.PublishDebug("Copying %s to %s", req.Source, dst)

		copied, err := tactile.CopyFile(req.Source, dst)
		switch {
		case errors.Is(err, tactile.ErrSameFile):
			logging.PublishDebug("%s already on the volume, skipping copy", name)
		case err != nil:
			return nil, types.NewError(types.KindIOFailure, op, "could not copy the start file", err)
		default:
			result.Copied = copied
		}
		result.Executable = name
	} else if req.Source != "" {
		result.Executable = filepath.Base(req.Source)
	}

	if err := autorun.Write(req.Volume, req.Label, result.Executable); err != nil {
		return nil, err
	}
	return result, nil
}
