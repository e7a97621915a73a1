package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"autousb/internal/logging"
)

// BatchTemplate prefills the script editor.
const BatchTemplate = "@echo off\n" +
	"rem Paste your commands below. Example:\n" +
	"rem start \"\" \"%~dp0MyApp.exe\"\n"

// EditorModel is a multi-line script editor. ctrl+s saves, esc cancels.
type EditorModel struct {
	textarea textarea.Model
	saved    bool
	canceled bool
	styles   Styles
}

// NewEditor opens an editor holding initial.
func NewEditor(initial string) EditorModel {
	ta := textarea.New()
	ta.Placeholder = "Batch commands"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(16)
	ta.SetValue(initial)
	ta.Focus()

	return EditorModel{textarea: ta, styles: DefaultStyles()}
}

// Init initializes the model.
func (m EditorModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages.
func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.textarea.SetWidth(msg.Width)
		if msg.Height > 4 {
			m.textarea.SetHeight(msg.Height - 3)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			m.saved = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View renders the editor.
func (m EditorModel) View() string {
	if m.saved || m.canceled {
		return ""
	}
	return m.styles.Title.Render("Batch commands") + "\n" +
		m.textarea.View() + "\n" +
		m.styles.Muted.Render("ctrl+s convert • esc cancel")
}

// Value returns the edited text.
func (m EditorModel) Value() string {
	return m.textarea.Value()
}

// Saved reports whether the user confirmed the edit.
func (m EditorModel) Saved() bool {
	return m.saved
}

// EditScript opens the editor on term and returns the confirmed text.
func EditScript(ctx context.Context, term IO, initial string) (string, error) {
	final, err := run(ctx, term, NewEditor(initial))
	if err != nil {
		return "", err
	}
	m := final.(EditorModel)
	if !m.Saved() {
		logging.UI("script editor closed without saving")
		return "", ErrCanceled
	}
	return m.Value(), nil
}
