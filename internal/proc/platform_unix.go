//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup configures the command to run in its own process
// group so a termination signal reaches swipl and any children it forks.
func setupProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup delivers sig to the whole process group, falling back to
// the main process when the group lookup fails.
func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		return syscall.Kill(-pgid, sig)
	}
	return cmd.Process.Signal(sig)
}

// killGroup force-kills the process group.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := signalGroup(cmd, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
