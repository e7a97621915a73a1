//go:build !windows

package tactile

import (
	"os/exec"
	"syscall"
)

// hideWindow has no window to hide on Unix; it puts the tool in its own
// process group so a terminal Ctrl-C reaches AutoUSB first and the context
// decides what to kill.
func hideWindow(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
