package ui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"autousb/internal/logging"
)

// ErrCanceled is returned when the user backs out of a prompt.
var ErrCanceled = errors.New("canceled")

// IO is the terminal a prompt runs on.
type IO struct {
	In  io.Reader
	Out io.Writer
}

// run drives m to completion and returns its final state.
func run(ctx context.Context, term IO, m tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if term.In != nil {
		opts = append(opts, tea.WithInput(term.In))
	}
	if term.Out != nil {
		opts = append(opts, tea.WithOutput(term.Out))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.UIDebug("prompt exited with error: %v", err)
		return nil, err
	}
	return final, nil
}
