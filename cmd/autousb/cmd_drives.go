package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/types"
	"autousb/internal/volume"
)

var drivesJSON bool

// drivesCmd lists candidate volumes
var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List USB drives that can receive autorun.inf",
	RunE:  listDrives,
}

func init() {
	drivesCmd.Flags().BoolVar(&drivesJSON, "json", false, "Print the list as JSON")
}

func listDrives(cmd *cobra.Command, args []string) error {
	vols, err := volume.ListRoots(currentConfig().Volumes.MediaRoots)
	if err != nil {
		return types.NewError(types.KindIOFailure, "cli.drives", "could not list drives", err)
	}

	out := cmd.OutOrStdout()
	if drivesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if vols == nil {
			vols = []volume.Volume{}
		}
		return enc.Encode(vols)
	}

	if len(vols) == 0 {
		fmt.Fprintln(out, "No drives found. Plug in a USB drive and try again.")
		return nil
	}

	styles := ui.DefaultStyles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("DRIVE", "ROOT", "REMOVABLE")
	for _, v := range vols {
		t.Row(v.Label, v.Root, yesNo(v.Removable))
	}
	fmt.Fprintln(out, styles.Title.Render("Drives"))
	fmt.Fprintln(out, t.String())
	return nil
}

// resolveDrive turns --drive into a volume root. An empty name opens the
// picker on a terminal and is an error otherwise.
func resolveDrive(cmd *cobra.Command, name string) (string, error) {
	name = strings.TrimSpace(name)
	vols, err := volume.ListRoots(currentConfig().Volumes.MediaRoots)
	if err != nil && name == "" {
		return "", types.NewError(types.KindIOFailure, "cli.drive", "could not list drives", err)
	}

	if name != "" {
		root := name
		if v, ok := volume.Find(vols, name); ok {
			root = v.Root
		}
		return checkDrive(root)
	}

	if !interactive(cmd) {
		return "", types.Errorf(types.KindInvalidInput, "cli.drive", "please select a USB drive (--drive)")
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	v, err := ui.PickVolume(ctx, terminal(cmd), vols)
	if err != nil {
		if errors.Is(err, ui.ErrCanceled) {
			return "", err
		}
		return "", types.NewError(types.KindInvalidInput, "cli.drive", "please select a USB drive", err)
	}
	return checkDrive(v.Root)
}

// checkDrive fails when root is gone, e.g. unplugged since it was listed.
func checkDrive(root string) (string, error) {
	if !volume.Exists(root) {
		return "", types.Errorf(types.KindNotFound, "cli.drive", "drive %q does not exist", root)
	}
	return root, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
