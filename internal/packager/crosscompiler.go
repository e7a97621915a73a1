package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autousb/internal/logging"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

// InstallRequest describes a toolchain install awaiting consent.
type InstallRequest struct {
	// Toolchain is the human name of what would be installed.
	Toolchain string
	// Command is the full install command line.
	Command []string
}

// String renders the install command line.
func (r InstallRequest) String() string {
	return strings.Join(r.Command, " ")
}

// ConsentFunc approves or declines a system-modifying install. It is called
// at most once per Prepare and only when an install is actually possible.
type ConsentFunc func(ctx context.Context, req InstallRequest) bool

// AlwaysConsent approves every install.
func AlwaysConsent(context.Context, InstallRequest) bool { return true }

// NeverConsent declines every install.
func NeverConsent(context.Context, InstallRequest) bool { return false }

// CrossCompiler is the off-platform backend: a generated C++ stub compiled
// with MinGW-w64 into a static, stripped, windowless executable.
type CrossCompiler struct {
	Executor tactile.Executor
	Path     tactile.PathResolver
	// Compilers are probed in order.
	Compilers []string
	// PackageManager must be on PATH for an install to be offered.
	PackageManager string
	// InstallCommand installs the toolchain, e.g. sudo apt-get install -y mingw-w64.
	InstallCommand []string
	Consent        ConsentFunc
	Env            func(workspace string) []string
	InstallEnv     func() []string
	Timeout        time.Duration
}

// Kind implements Backend.
func (c *CrossCompiler) Kind() BackendKind { return BackendCrossCompiler }

// Prepare implements Backend. A missing compiler is installed through the
// package manager only when the manager exists and consent is given.
func (c *CrossCompiler) Prepare(ctx context.Context) (string, error) {
	const op = "package.cross_compiler"

	if tool, ok := tactile.FirstFound(c.Path, c.Compilers...); ok {
		logging.PackagerDebug("Using cross-compiler %s", tool)
		return tool, nil
	}
	logging.PackagerWarn("No cross-compiler found (tried %s)", strings.Join(c.Compilers, ", "))

	missing := types.Errorf(types.KindToolMissing, op,
		"to build a Windows EXE on this system, install MinGW-w64 (e.g., apt install mingw-w64) to get %s",
		c.primaryCompiler())

	if c.PackageManager == "" || len(c.InstallCommand) == 0 {
		return "", missing
	}
	if _, ok := tactile.FirstFound(c.Path, c.PackageManager); !ok {
		logging.PackagerDebug("Package manager %s not available, cannot offer install", c.PackageManager)
		return "", missing
	}

	req := InstallRequest{Toolchain: "MinGW-w64", Command: c.InstallCommand}
	if c.Consent == nil || !c.Consent(ctx, req) {
		logging.Packager("Install of %s declined", req.Toolchain)
		return "", missing
	}

	if err := c.install(ctx, req); err != nil {
		return "", err
	}

	if tool, ok := tactile.FirstFound(c.Path, c.Compilers...); ok {
		logging.Packager("Installed cross-compiler %s", tool)
		return tool, nil
	}
	return "", missing
}

func (c *CrossCompiler) install(ctx context.Context, req InstallRequest) error {
	const op = "package.install"

	logging.Packager("Installing %s: %s", req.Toolchain, req)
	cmd := tactile.Command{
		Binary:    req.Command[0],
		Arguments: req.Command[1:],
		Timeout:   c.Timeout,
	}
	if c.InstallEnv != nil {
		cmd.Environment = c.InstallEnv()
	}

	res, err := c.Executor.Execute(ctx, cmd)
	if ferr := toolFailure(ctx, op, req.Command[0], res, err); ferr != nil {
		logging.PackagerError("Install failed: %v", ferr)
		cause := ferr
		var typed *types.Error
		if errors.As(ferr, &typed) && typed.Err != nil {
			cause = typed.Err
		}
		return types.NewError(types.KindToolMissing, op, fmt.Sprintf(
			"could not install %s automatically; please install it manually (e.g., %s)",
			strings.ToLower(req.Toolchain), req), cause)
	}
	return nil
}

func (c *CrossCompiler) primaryCompiler() string {
	if len(c.Compilers) == 0 {
		return "a MinGW-w64 g++"
	}
	return c.Compilers[0]
}

// Build implements Backend.
func (c *CrossCompiler) Build(ctx context.Context, req BuildRequest) (*BuildOutput, error) {
	const op = "package.cross_compiler"

	stub := filepath.Join(req.Workspace, "stub.cpp")
	if err := os.WriteFile(stub, []byte(StubSource(EscapeCString(req.Script))), 0o644); err != nil {
		return nil, types.NewError(types.KindIOFailure, op, "could not write stub source", err)
	}

	out := filepath.Join(req.Workspace, "autorun.exe")
	cmd := tactile.Command{
		Binary:           req.Tool,
		Arguments:        []string{"-Os", "-static", "-s", "-mwindows", stub, "-o", out},
		WorkingDirectory: req.Workspace,
		Timeout:          c.Timeout,
	}
	if c.Env != nil {
		cmd.Environment = c.Env(req.Workspace)
	}

	logging.Packager("Building %s.exe with %s", req.Name, filepath.Base(req.Tool))
	res, err := c.Executor.Execute(ctx, cmd)
	if ferr := toolFailure(ctx, op, filepath.Base(req.Tool), res, err); ferr != nil {
		return nil, ferr
	}

	if !tactile.IsRegularFile(out) {
		return nil, types.Errorf(types.KindToolFailure, op, "artifact missing: compiler produced no autorun.exe")
	}
	return &BuildOutput{Path: out, Output: res.Stdout + res.Stderr}, nil
}
