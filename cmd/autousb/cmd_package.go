package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/config"
	"autousb/internal/logging"
	"autousb/internal/packager"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

var (
	scriptFile string
	editFlag   bool
	outFlag    string
	assumeYes  bool
	noInstall  bool
)

// packageCmd converts batch commands to an EXE
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Convert batch commands into a standalone EXE",
	Long: `Packages batch commands into an EXE that runs them hidden when started.

On Windows the EXE is built with PyInstaller (pip install pyinstaller).
Elsewhere it is cross-compiled with MinGW-w64; when it is missing and
apt-get is available you are offered an install.

The script comes from --file, from the editor (--edit), or from stdin.

Examples:
  autousb package --file start.bat --out ./autorun.exe
  echo 'start "" "%~dp0MyApp.exe"' | autousb package --yes`,
	RunE: runPackage,
}

// buildCmd packages and publishes in one go
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Convert batch commands into an EXE and publish it to a drive",
	RunE:  runBuild,
}

func init() {
	for _, c := range []*cobra.Command{packageCmd, buildCmd} {
		c.Flags().StringVarP(&scriptFile, "file", "f", "", "Read the batch script from a file")
		c.Flags().BoolVar(&editFlag, "edit", false, "Write the batch script in an editor")
		c.Flags().StringVarP(&outFlag, "out", "o", "", "Where to save the EXE (default: output directory from config)")
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Install a missing cross-compiler without asking")
		c.Flags().BoolVar(&noInstall, "no-install", false, "Never install a missing cross-compiler")
		c.MarkFlagsMutuallyExclusive("file", "edit")
		c.MarkFlagsMutuallyExclusive("yes", "no-install")
	}
	buildCmd.Flags().StringVarP(&driveFlag, "drive", "d", "", "Drive letter or mount point (picker when omitted)")
	buildCmd.Flags().StringVarP(&labelFlag, "label", "l", "", "Drive label shown by Explorer")
}

func runPackage(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	art, err := packageScript(ctx, cmd)
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("Executable saved to "+art.Path))
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Pick the drive before the slow build so a bad choice fails fast.
	root, err := resolveDrive(cmd, driveFlag)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	art, err := packageScript(ctx, cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	fmt.Fprintln(out, styles.Success.Render("Executable saved to "+art.Path))

	return publishTo(out, root, labelFlag, art.Path, true)
}

func packageScript(ctx context.Context, cmd *cobra.Command) (*packager.Artifact, error) {
	script, err := readScript(ctx, cmd)
	if err != nil {
		return nil, err
	}
	dest, err := destination()
	if err != nil {
		return nil, err
	}

	p, audit := newPackager(cmd)
	styles := ui.DefaultStyles()
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, styles.Muted.Render(fmt.Sprintf("Building with %s...", p.Backend())))

	art, err := p.Package(ctx, script, dest)
	if m := audit.Metrics(); m.Total > 0 {
		fmt.Fprintln(errOut, styles.Muted.Render(fmt.Sprintf("Ran %d toolchain command(s), %d failed, in %s",
			m.Total, m.Failed+m.Killed, m.Duration.Round(time.Millisecond))))
	}
	return art, err
}

// readScript returns the batch text from --file, the editor, or stdin.
func readScript(ctx context.Context, cmd *cobra.Command) (string, error) {
	const op = "cli.script"
	switch {
	case scriptFile != "":
		data, err := os.ReadFile(scriptFile)
		if err != nil {
			if os.IsNotExist(err) {
				return "", types.Errorf(types.KindNotFound, op, "file not found: %s", scriptFile)
			}
			return "", types.NewError(types.KindIOFailure, op, "could not read "+scriptFile, err)
		}
		return string(data), nil

	case editFlag || interactive(cmd):
		text, err := ui.EditScript(ctx, terminal(cmd), ui.BatchTemplate)
		if err != nil {
			if errors.Is(err, ui.ErrCanceled) {
				return "", err
			}
			return "", types.NewError(types.KindIOFailure, op, "editor failed", err)
		}
		return text, nil

	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", types.NewError(types.KindIOFailure, op, "could not read stdin", err)
		}
		return string(data), nil
	}
}

// destination is --out or the configured output directory and file name.
func destination() (string, error) {
	if outFlag != "" {
		return outFlag, nil
	}
	c := currentConfig()
	dir, err := c.OutputDirectory()
	if err != nil {
		return "", types.NewError(types.KindIOFailure, "cli.output", "could not resolve the output directory", err)
	}
	return filepath.Join(dir, c.Output.FileName), nil
}

// newPackager builds a packager whose toolchain runs are audited to the log.
func newPackager(cmd *cobra.Command) (*packager.Packager, *tactile.AuditLogger) {
	tc := currentConfig().Toolchain
	switch {
	case assumeYes:
		tc.AutoInstall = config.InstallAlways
	case noInstall:
		tc.AutoInstall = config.InstallNever
	}

	audit := tactile.NewAuditLogger()
	audit.AddCallback(logAuditEvent)

	opts := []packager.Option{
		packager.WithConsent(consentFor(cmd)),
		packager.WithExecutor(tactile.NewAuditedExecutor(tactile.NewDirectExecutor(), audit)),
	}
	if ledger != nil {
		opts = append(opts, packager.WithRecorder(ledgerRecorder{store: ledger}))
	}
	return packager.New(&tc, opts...), audit
}

func logAuditEvent(e tactile.AuditEvent) {
	switch e.Type {
	case tactile.AuditEventStart:
		logging.TactileDebug("run: %s", e.Command.CommandString())
	case tactile.AuditEventComplete:
		logging.TactileDebug("exit %d after %s: %s", e.Result.ExitCode, e.Result.Duration, e.Command.Binary)
	case tactile.AuditEventKilled:
		logging.TactileWarn("killed (%s): %s", e.Result.KillReason, e.Command.Binary)
	case tactile.AuditEventError:
		logging.TactileError("could not run %s: %s", e.Command.Binary, e.Error)
	}
}

// consentFor asks on the terminal before installing a toolchain. Without a
// terminal the install is declined.
func consentFor(cmd *cobra.Command) packager.ConsentFunc {
	if !interactive(cmd) {
		return packager.NeverConsent
	}
	return func(ctx context.Context, req packager.InstallRequest) bool {
		ok, err := ui.Confirm(ctx, terminal(cmd),
			"To build a Windows EXE here, MinGW-w64 is required. Install it now?",
			req.String())
		return err == nil && ok
	}
}
