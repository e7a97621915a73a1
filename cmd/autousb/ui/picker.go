package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"autousb/internal/logging"
	"autousb/internal/volume"
)

// volumeItem adapts volume.Volume to list.Item
type volumeItem struct {
	vol volume.Volume
}

func (i volumeItem) Title() string { return i.vol.Label }
func (i volumeItem) Description() string {
	if i.vol.Removable {
		return i.vol.Root
	}
	return i.vol.Root + " (fixed disk)"
}
func (i volumeItem) FilterValue() string { return i.vol.Label + " " + i.vol.Root }

// PickerModel lets the user choose a target volume.
type PickerModel struct {
	list     list.Model
	choice   *volume.Volume
	canceled bool
}

// NewPicker lists vols for selection.
func NewPicker(vols []volume.Volume) PickerModel {
	items := make([]list.Item, 0, len(vols))
	for _, v := range vols {
		items = append(items, volumeItem{vol: v})
	}

	styles := DefaultStyles()
	l := list.New(items, list.NewDefaultDelegate(), 60, 14)
	l.Title = "Select the USB drive"
	l.SetShowHelp(false)
	l.SetShowStatusBar(len(vols) > 5)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styles.Title

	return PickerModel{list: l}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(volumeItem); ok {
				v := item.vol
				m.choice = &v
				return m, tea.Quit
			}
		case "esc", "q", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list.
func (m PickerModel) View() string {
	if m.choice != nil || m.canceled {
		return ""
	}
	return m.list.View()
}

// Choice returns the selected volume, if any.
func (m PickerModel) Choice() (volume.Volume, bool) {
	if m.choice == nil {
		return volume.Volume{}, false
	}
	return *m.choice, true
}

// PickVolume asks the user to choose one of vols.
func PickVolume(ctx context.Context, term IO, vols []volume.Volume) (volume.Volume, error) {
	if len(vols) == 0 {
		return volume.Volume{}, fmt.Errorf("no removable drives found")
	}
	final, err := run(ctx, term, NewPicker(vols))
	if err != nil {
		return volume.Volume{}, err
	}
	v, ok := final.(PickerModel).Choice()
	if !ok {
		logging.UI("drive picker canceled")
		return volume.Volume{}, ErrCanceled
	}
	return v, nil
}
