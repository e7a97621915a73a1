package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/autorun"
	"autousb/internal/tactile"
)

var (
	driveFlag string
	labelFlag string
	exeFlag   string
)

// writeCmd writes autorun.inf only
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write autorun.inf to a drive without copying anything",
	Long: `Writes autorun.inf at the root of the drive. The executable is referenced
by name only; it must already be on the drive for autorun to work.

Example:
  autousb write --drive E: --label Tools --exe setup.exe`,
	RunE: runWrite,
}

// statusCmd shows the drive's current descriptor
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the autorun.inf currently on a drive",
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{writeCmd, statusCmd} {
		c.Flags().StringVarP(&driveFlag, "drive", "d", "", "Drive letter or mount point (picker when omitted)")
	}
	writeCmd.Flags().StringVarP(&labelFlag, "label", "l", "", "Drive label shown by Explorer")
	writeCmd.Flags().StringVarP(&exeFlag, "exe", "e", "", "Executable name to start")
}

func runWrite(cmd *cobra.Command, args []string) error {
	root, err := resolveDrive(cmd, driveFlag)
	if err != nil {
		return err
	}
	if err := autorun.Write(root, labelFlag, baseName(exeFlag)); err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("autorun.inf saved to "+autorun.Path(root)))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := resolveDrive(cmd, driveFlag)
	if err != nil {
		return err
	}
	d, err := autorun.Read(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	fmt.Fprintln(out, styles.Title.Render(d.Path))
	printField(out, styles, "Label", d.Label)
	printField(out, styles, "Open", d.Open)
	printField(out, styles, "ShellExecute", d.ShellExecute)
	printField(out, styles, "Icon", d.Icon)
	printField(out, styles, "Action", d.Action)
	if d.UseAutoPlay {
		printField(out, styles, "UseAutoPlay", "1")
	}

	if exe := d.Executable(); exe != "" {
		if tactile.IsRegularFile(filepath.Join(root, exe)) {
			fmt.Fprintln(out, styles.Success.Render(exe+" is on the drive"))
		} else {
			fmt.Fprintln(out, styles.Warning.Render(exe+" is missing from the drive"))
		}
	}
	return nil
}

func printField(out io.Writer, styles ui.Styles, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "  %s %s\n", styles.Muted.Render(fmt.Sprintf("%-13s", name+":")), value)
}

// baseName strips any directory from an executable path; empty stays empty.
func baseName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
