//go:build windows

package proc

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup is a no-op on Windows; exec.Cmd handles the default
// process creation flags well enough for our single child.
func setupProcessGroup(cmd *exec.Cmd) {}

// signalGroup approximates Unix signaling on Windows: anything other
// than a kill degrades to a no-op because swipl has no signal handler
// to cooperate with here, and the halt instruction already went out
// over stdin.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	if sig == syscall.SIGKILL {
		return cmd.Process.Kill()
	}
	return nil
}

// killGroup force-kills the process.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
