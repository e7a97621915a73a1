package tactile

import (
	"context"
	"os/exec"
)

// Executor is the interface for command execution.
// All executor implementations must satisfy this interface.
type Executor interface {
	// Execute runs a command and returns its result. A non-zero exit is not an
	// error: err is reserved for failures to start or wait on the process.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)
}

// PathResolver finds executables on the system search path.
type PathResolver interface {
	LookPath(name string) (string, error)
}

// SystemPath resolves binaries with exec.LookPath.
type SystemPath struct{}

// LookPath implements PathResolver.
func (SystemPath) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// FirstFound returns the first of names present on the search path.
func FirstFound(resolver PathResolver, names ...string) (string, bool) {
	for _, name := range names {
		if path, err := resolver.LookPath(name); err == nil && path != "" {
			return path, true
		}
	}
	return "", false
}
