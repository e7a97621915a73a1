package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel is a yes/no question. Anything but y answers no.
type ConfirmModel struct {
	question string
	detail   string
	answer   bool
	done     bool
	styles   Styles
}

// NewConfirm asks question, showing detail underneath when set.
func NewConfirm(question, detail string) ConfirmModel {
	return ConfirmModel{question: question, detail: detail, styles: DefaultStyles()}
}

// Init initializes the model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "ctrl+c":
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the question.
func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	s := m.styles.Bold.Render(m.question) + " " + m.styles.Key.Render("[y/N]") + " "
	if m.detail != "" {
		s += "\n" + m.styles.Muted.Render(m.detail) + "\n"
	}
	return s
}

// Answer reports the user's choice.
func (m ConfirmModel) Answer() bool {
	return m.done && m.answer
}

// Confirm asks question on term.
func Confirm(ctx context.Context, term IO, question, detail string) (bool, error) {
	final, err := run(ctx, term, NewConfirm(question, detail))
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Answer(), nil
}
