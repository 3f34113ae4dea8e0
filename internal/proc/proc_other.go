//go:build !unix

package proc

import "os/exec"

func killGroupOnCancel(cmd *exec.Cmd) {}
