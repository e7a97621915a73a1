package packager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"autousb/internal/tactile"
	"autousb/internal/types"
)

// BackendKind names a packaging backend.
type BackendKind string

const (
	// BackendBundler bundles a Python launcher with PyInstaller (Windows hosts).
	BackendBundler BackendKind = "pyinstaller"
	// BackendCrossCompiler compiles a C++ stub with MinGW-w64 (every other host).
	BackendCrossCompiler BackendKind = "mingw-w64"
)

// SelectBackend picks the backend for a host GOOS.
func SelectBackend(goos string) BackendKind {
	if goos == "windows" {
		return BackendBundler
	}
	return BackendCrossCompiler
}

// BuildRequest is one build inside an isolated workspace.
type BuildRequest struct {
	// Workspace is a fresh directory owned by this build.
	Workspace string
	// Script is the normalized script text.
	Script string
	// Name is the artifact base name without extension.
	Name string
	// Tool is the resolved toolchain binary returned by Prepare.
	Tool string
}

// BuildOutput is what a backend produced inside the workspace.
type BuildOutput struct {
	// Path of the produced executable, inside the workspace.
	Path string
	// Output is the toolchain's captured diagnostic text.
	Output string
}

// Backend turns a script into a Windows executable.
type Backend interface {
	Kind() BackendKind

	// Prepare resolves the toolchain binary, installing it first if the
	// backend supports that and consent is given. It touches no workspace.
	Prepare(ctx context.Context) (tool string, err error)

	// Build produces the executable inside req.Workspace.
	Build(ctx context.Context, req BuildRequest) (*BuildOutput, error)
}

// toolFailure converts a finished toolchain run into an error, or nil when
// the run succeeded. Captured output is carried verbatim.
func toolFailure(ctx context.Context, op, label string, res *tactile.ExecutionResult, runErr error) error {
	if runErr != nil {
		return types.NewError(types.KindToolFailure, op, fmt.Sprintf("could not run %s", label), runErr)
	}
	if res.Killed {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.NewError(types.KindToolFailure, op, fmt.Sprintf("%s canceled", label), ctxErr)
		}
		return types.Errorf(types.KindToolFailure, op, "%s killed: %s", label, res.KillReason)
	}
	if res.ExitCode == 0 {
		return nil
	}
	msg := fmt.Sprintf("%s exited with status %d", label, res.ExitCode)
	output := res.Output()
	if strings.TrimSpace(output) == "" {
		return types.Errorf(types.KindToolFailure, op, "%s", msg)
	}
	return types.NewError(types.KindToolFailure, op, msg, errors.New(output))
}
