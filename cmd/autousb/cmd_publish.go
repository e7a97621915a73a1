package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/logging"
	"autousb/internal/publish"
	"autousb/internal/tactile"
	"autousb/internal/types"
	"autousb/internal/volume"
)

var (
	copyFlag bool
	keepFlag bool
)

// publishCmd copies the executable and writes autorun.inf
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy an executable to a drive and point autorun.inf at it",
	Long: `Copies the executable to the root of the drive, then writes autorun.inf
referencing it. If the copy fails autorun.inf is left untouched.

Example:
  autousb publish --drive E: --label Tools --exe ./setup.exe`,
	RunE: runPublish,
}

// watchCmd waits for a drive and publishes to it
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Wait for a USB drive to be plugged in and publish to it",
	Long: `Watches for newly mounted drives. Each new drive gets the executable and
autorun.inf, as with "autousb publish". Stops after the first drive unless
--keep is given.`,
	RunE: runWatch,
}

func init() {
	publishCmd.Flags().StringVarP(&driveFlag, "drive", "d", "", "Drive letter or mount point (picker when omitted)")
	for _, c := range []*cobra.Command{publishCmd, watchCmd} {
		c.Flags().StringVarP(&labelFlag, "label", "l", "", "Drive label shown by Explorer")
		c.Flags().StringVarP(&exeFlag, "exe", "e", "", "Executable to start when the drive is inserted")
		c.Flags().BoolVar(&copyFlag, "copy", true, "Copy the executable onto the drive")
	}
	watchCmd.Flags().BoolVar(&keepFlag, "keep", false, "Keep watching after the first drive")
	_ = watchCmd.MarkFlagRequired("exe")
}

func runPublish(cmd *cobra.Command, args []string) error {
	root, err := resolveDrive(cmd, driveFlag)
	if err != nil {
		return err
	}
	return publishTo(cmd.OutOrStdout(), root, labelFlag, exeFlag, copyFlag)
}

func publishTo(out io.Writer, root, label, exe string, copySource bool) error {
	res, err := newPublisher().Publish(publish.Request{
		Volume: root,
		Label:  label,
		Source: exe,
		Copy:   copySource,
	})
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	if res.Copied != nil {
		fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Saved autorun.inf and executable to %s", res.Volume)))
	} else {
		fmt.Fprintln(out, styles.Success.Render("autorun.inf saved to "+res.Descriptor))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !tactile.IsRegularFile(exeFlag) {
		return types.Errorf(types.KindNotFound, "cli.watch", "file not found: %s", exeFlag)
	}
	c := currentConfig()

	w, err := volume.NewWatcher(c.Volumes.MediaRoots, volume.WithSettle(c.GetWatchSettle()))
	if err != nil {
		return types.NewError(types.KindIOFailure, "cli.watch", "could not watch for drives", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return types.NewError(types.KindIOFailure, "cli.watch", "could not watch for drives", err)
	}
	defer w.Stop()

	out := cmd.OutOrStdout()
	styles := ui.DefaultStyles()
	fmt.Fprintln(out, styles.Info.Render("Waiting for a USB drive... (Ctrl-C to stop)"))
	return watchLoop(ctx, out, w.Events(), func(v volume.Volume) error {
		fmt.Fprintln(out, styles.Bold.Render("Drive detected: "+v.String()))
		return publishTo(out, v.Root, labelFlag, exeFlag, copyFlag)
	})
}

// watchLoop publishes to each volume from events until the context ends.
// Without --keep it returns after the first volume.
func watchLoop(ctx context.Context, out io.Writer, events <-chan volume.Volume, handle func(volume.Volume) error) error {
	styles := ui.DefaultStyles()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			return nil
		case v, ok := <-events:
			if !ok {
				return nil
			}
			err := handle(v)
			if !keepFlag {
				return err
			}
			if err != nil {
				logging.PublishError("publish to %s failed: %v", v.Root, err)
				fmt.Fprintln(out, styles.Error.Render("Error:"), err)
			}
		}
	}
}
