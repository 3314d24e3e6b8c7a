//go:build !windows

package executor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

func defaultShell() []string {
	return []string{"sh", "-c"}
}

// configureTermination runs the command in its own process group so that a
// timeout reaches every child. Cancellation sends SIGTERM to the group and
// SIGKILL after grace. The returned func stops the pending kill.
func configureTermination(cmd *exec.Cmd, grace time.Duration) func() {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		mu.Lock()
		timer = time.AfterFunc(grace, func() {
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		})
		mu.Unlock()
		return syscall.Kill(pgid, syscall.SIGTERM)
	}

	// Backstop for children that keep the output pipes open.
	cmd.WaitDelay = grace + time.Second

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
}
