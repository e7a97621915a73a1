// Package tactiletest provides fake executors and path resolvers for tests.
package tactiletest

import (
	"context"
	"fmt"
	"sync"

	"autousb/internal/tactile"
)

// Handler simulates a command. It may create files (e.g. in cmd.WorkingDirectory)
// to mimic the tool's side effects.
type Handler func(cmd tactile.Command) (*tactile.ExecutionResult, error)

// Executor records every command and answers from a handler.
type Executor struct {
	mu       sync.Mutex
	handler  Handler
	commands []tactile.Command
}

// NewExecutor returns a fake executor. A nil handler exits zero with no output.
func NewExecutor(handler Handler) *Executor {
	return &Executor{handler: handler}
}

// Execute implements tactile.Executor.
func (e *Executor) Execute(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	handler := e.handler
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &tactile.ExecutionResult{ExitCode: -1, Killed: true, KillReason: err.Error()}, nil
	}
	if handler == nil {
		return &tactile.ExecutionResult{}, nil
	}
	return handler(cmd)
}

// Commands returns a copy of the recorded commands.
func (e *Executor) Commands() []tactile.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tactile.Command, len(e.commands))
	copy(out, e.commands)
	return out
}

// Calls returns how many commands ran.
func (e *Executor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.commands)
}

// Exit returns a handler that exits with code and the given output.
func Exit(code int, stdout, stderr string) Handler {
	return func(tactile.Command) (*tactile.ExecutionResult, error) {
		return &tactile.ExecutionResult{ExitCode: code, Stdout: stdout, Stderr: stderr}, nil
	}
}

// Path is a fake PathResolver backed by a map of name to location.
// Entries can be added while a test runs to simulate an install.
type Path struct {
	mu    sync.Mutex
	found map[string]string
}

// NewPath creates a resolver knowing the given name/location pairs.
func NewPath(pairs ...string) *Path {
	p := &Path{found: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.found[pairs[i]] = pairs[i+1]
	}
	return p
}

// Add registers name at location.
func (p *Path) Add(name, location string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.found[name] = location
}

// LookPath implements tactile.PathResolver.
func (p *Path) LookPath(name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc, ok := p.found[name]; ok {
		return loc, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}
