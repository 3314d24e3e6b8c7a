//go:build windows

package executor

import (
	"os/exec"
	"time"
)

func defaultShell() []string {
	return []string{"cmd", "/C"}
}

// configureTermination relies on the default cancel, which kills the shell
// process, and bounds the wait for children holding the output pipes.
func configureTermination(cmd *exec.Cmd, grace time.Duration) func() {
	cmd.WaitDelay = grace
	return func() {}
}
