//go:build unix

package proc

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts the program in its own process group and kills
// the whole group on cancellation, so children of wrapper scripts go too.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
