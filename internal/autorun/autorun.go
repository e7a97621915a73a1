// Package autorun reads and writes the autorun.inf descriptor at the root of a
// removable volume.
//
// The rendered file is bit-exact: CRLF line endings on every host, a fixed key
// order, and the generator comment as the last line. Writing always replaces
// the previous file; nothing from an earlier descriptor survives.
package autorun

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"autousb/internal/logging"
	"autousb/internal/types"
)

const (
	// FileName is the descriptor's name at the volume root.
	FileName = "autorun.inf"

	// Section is the descriptor's only section marker.
	Section = "[Autorun]"

	// GeneratorComment is the trailing line identifying AutoUSB.
	GeneratorComment = "; autorun.inf created by AutoUSB"

	// DefaultAction is the Action= text shown by AutoPlay dialogs.
	DefaultAction = "Run autorun"

	lineBreak = "\r\n"
)

// Descriptor is a parsed autorun.inf.
type Descriptor struct {
	Path         string
	Label        string
	Open         string
	ShellExecute string
	Icon         string
	Action       string
	UseAutoPlay  bool
}

// Executable returns the program the descriptor launches.
// Open wins over ShellExecute, matching how AutoPlay readers resolve them.
func (d *Descriptor) Executable() string {
	if d.Open != "" {
		return d.Open
	}
	return d.ShellExecute
}

// Path returns the descriptor location for volumeRoot.
func Path(volumeRoot string) string {
	return filepath.Join(volumeRoot, FileName)
}

// Render builds the descriptor text. An empty executable omits every
// launch-related line; an empty label omits Label=.
func Render(label, executable string) string {
	lines := []string{Section}
	if label != "" {
		lines = append(lines, "Label="+label)
	}
	if executable != "" {
		lines = append(lines,
			"Open="+executable,
			"ShellExecute="+executable,
			"Action="+DefaultAction,
			"UseAutoPlay=1",
			"Icon="+executable,
		)
	}
	lines = append(lines, GeneratorComment)
	return strings.Join(lines, lineBreak) + lineBreak
}

// Write renders the descriptor and overwrites <volumeRoot>/autorun.inf.
func Write(volumeRoot, label, executable string) error {
	const op = "autorun.write"

	if err := checkVolume(op, volumeRoot); err != nil {
		return err
	}
	if strings.ContainsAny(label, "\r\n") {
		return types.Errorf(types.KindInvalidInput, op, "label must be a single line")
	}
	if strings.ContainsAny(executable, "\r\n") {
		return types.Errorf(types.KindInvalidInput, op, "executable name must be a single line")
	}

	path := Path(volumeRoot)
	content := Render(label, executable)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logging.AutorunError("Failed to write %s: %v", path, err)
		return types.NewError(types.KindIOFailure, op, "write failed", err)
	}

	logging.Autorun("Wrote %s (label=%q, executable=%q)", path, label, executable)
	return nil
}

// Read parses the descriptor at volumeRoot. Keys are matched case-insensitively
// and both CRLF and LF files are accepted.
func Read(volumeRoot string) (*Descriptor, error) {
	const op = "autorun.read"

	if err := checkVolume(op, volumeRoot); err != nil {
		return nil, err
	}

	path := Path(volumeRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.NewError(types.KindNotFound, op, "no autorun.inf on volume", err)
		}
		return nil, types.NewError(types.KindIOFailure, op, "read failed", err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:             true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return nil, types.NewError(types.KindInvalidInput, op, "malformed autorun.inf", err)
	}

	section, err := file.GetSection("autorun")
	if err != nil {
		return nil, types.NewError(types.KindInvalidInput, op, "missing [Autorun] section", err)
	}

	d := &Descriptor{
		Path:         path,
		Label:        section.Key("label").String(),
		Open:         section.Key("open").String(),
		ShellExecute: section.Key("shellexecute").String(),
		Icon:         section.Key("icon").String(),
		Action:       section.Key("action").String(),
		UseAutoPlay:  section.Key("useautoplay").String() == "1",
	}
	logging.AutorunDebug("Read %s: executable=%q", path, d.Executable())
	return d, nil
}

func checkVolume(op, volumeRoot string) error {
	if volumeRoot == "" {
		return types.Errorf(types.KindInvalidInput, op, "no volume selected")
	}
	info, err := os.Stat(volumeRoot)
	if err != nil || !info.IsDir() {
		return types.NewError(types.KindNotFound, op, fmt.Sprintf("volume not found: %s", volumeRoot), err)
	}
	return nil
}
