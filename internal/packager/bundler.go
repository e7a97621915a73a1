package packager

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"autousb/internal/logging"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

// BundlerInstallHint is shown when PyInstaller is not on PATH.
const BundlerInstallHint = "Install with: pip install pyinstaller"

// Bundler is the native backend: a generated Python launcher frozen into a
// single windowless executable by PyInstaller. It never installs anything.
type Bundler struct {
	Executor tactile.Executor
	Path     tactile.PathResolver
	// Binary is the bundler executable name, normally "pyinstaller".
	Binary  string
	Env     func(workspace string) []string
	Timeout time.Duration
}

// Kind implements Backend.
func (b *Bundler) Kind() BackendKind { return BackendBundler }

// Prepare implements Backend.
func (b *Bundler) Prepare(ctx context.Context) (string, error) {
	tool, ok := tactile.FirstFound(b.Path, b.Binary)
	if !ok {
		logging.PackagerWarn("%s not found on PATH", b.Binary)
		return "", types.Errorf(types.KindToolMissing, "package.bundler",
			"PyInstaller is required to build the EXE. %s", BundlerInstallHint)
	}
	logging.PackagerDebug("Using bundler %s", tool)
	return tool, nil
}

// Build implements Backend.
func (b *Bundler) Build(ctx context.Context, req BuildRequest) (*BuildOutput, error) {
	const op = "package.bundler"

	runner := filepath.Join(req.Workspace, "runner.py")
	if err := os.WriteFile(runner, []byte(LauncherSource(req.Script)), 0o644); err != nil {
		return nil, types.NewError(types.KindIOFailure, op, "could not write launcher source", err)
	}

	cmd := tactile.Command{
		Binary: req.Tool,
		Arguments: []string{
			"--onefile",
			"--noconsole",
			"--clean",
			"--distpath", req.Workspace,
			"--name", req.Name,
			runner,
		},
		WorkingDirectory: req.Workspace,
		Timeout:          b.Timeout,
		HideWindow:       true,
	}
	if b.Env != nil {
		cmd.Environment = b.Env(req.Workspace)
	}

	logging.Packager("Building %s.exe with PyInstaller", req.Name)
	res, err := b.Executor.Execute(ctx, cmd)
	if ferr := toolFailure(ctx, op, "pyinstaller", res, err); ferr != nil {
		return nil, ferr
	}

	built := filepath.Join(req.Workspace, req.Name+".exe")
	if !tactile.IsRegularFile(built) {
		return nil, types.Errorf(types.KindToolFailure, op,
			"artifact missing: expected %s after PyInstaller run", filepath.Base(built))
	}
	return &BuildOutput{Path: built, Output: res.Stdout + res.Stderr}, nil
}
