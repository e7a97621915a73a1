package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"autousb/internal/volume"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("AUTOUSB_DARK_MODE", "1")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme when AUTOUSB_DARK_MODE=1")
	}

	t.Setenv("AUTOUSB_DARK_MODE", "")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme by default")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for a black background")
	}
}

func TestPickerSelectsVolume(t *testing.T) {
	vols := []volume.Volume{
		{Root: "/media/u/ONE", Label: "ONE", Removable: true},
		{Root: "/media/u/TWO", Label: "TWO", Removable: true},
	}
	var m tea.Model = NewPicker(vols)

	m, _ = m.Update(key("down"))
	m, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatalf("expected quit command after enter")
	}

	got, ok := m.(PickerModel).Choice()
	if !ok {
		t.Fatalf("expected a choice")
	}
	if got.Label != "TWO" {
		t.Errorf("expected TWO, got %s", got.Label)
	}
	if m.View() != "" {
		t.Errorf("expected empty view after selection")
	}
}

func TestPickerCancel(t *testing.T) {
	var m tea.Model = NewPicker([]volume.Volume{{Root: "E:\\", Label: "E:"}})
	m, _ = m.Update(key("esc"))
	if _, ok := m.(PickerModel).Choice(); ok {
		t.Fatalf("expected no choice after esc")
	}
}

func TestVolumeItemDescribesFixedDisk(t *testing.T) {
	item := volumeItem{vol: volume.Volume{Root: "C:\\", Label: "C:"}}
	if !strings.Contains(item.Description(), "fixed") {
		t.Errorf("expected fixed disk note, got %q", item.Description())
	}
	if item.Title() != "C:" {
		t.Errorf("unexpected title %q", item.Title())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"y", true},
		{"Y", true},
		{"n", false},
		{"enter", false},
		{"esc", false},
	}
	for _, tt := range tests {
		var m tea.Model = NewConfirm("Install mingw-w64?", "sudo apt-get install -y mingw-w64")
		if !strings.Contains(m.View(), "[y/N]") {
			t.Fatalf("expected prompt suffix in %q", m.View())
		}
		m, cmd := m.Update(key(tt.key))
		if cmd == nil {
			t.Fatalf("key %q: expected quit", tt.key)
		}
		if got := m.(ConfirmModel).Answer(); got != tt.want {
			t.Errorf("key %q: answer = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestConfirmIgnoresOtherKeys(t *testing.T) {
	var m tea.Model = NewConfirm("Continue?", "")
	m, cmd := m.Update(key("x"))
	if cmd != nil {
		t.Fatalf("expected no command for an unrelated key")
	}
	if m.(ConfirmModel).Answer() {
		t.Fatalf("expected no answer yet")
	}
}

func TestEditorSave(t *testing.T) {
	var m tea.Model = NewEditor(BatchTemplate)
	if got := m.(EditorModel).Value(); !strings.HasPrefix(got, "@echo off\n") {
		t.Fatalf("expected template prefill, got %q", got)
	}

	m, cmd := m.Update(key("ctrl+s"))
	if cmd == nil {
		t.Fatalf("expected quit after ctrl+s")
	}
	if !m.(EditorModel).Saved() {
		t.Fatalf("expected saved state")
	}
}

func TestEditorCancel(t *testing.T) {
	var m tea.Model = NewEditor("")
	m, _ = m.Update(key("esc"))
	if m.(EditorModel).Saved() {
		t.Fatalf("expected unsaved after esc")
	}
}
