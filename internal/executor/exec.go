package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/logging"
)

const (
	stdoutTruncated = "\n[Output truncated]"
	stderrTruncated = "\n[Error output truncated]"
)

// ExecutionResult is the outcome of one command. ReturnCode -1 means the
// command timed out or could not be started.
type ExecutionResult struct {
	Command    string
	Stdout     string
	Stderr     string
	ReturnCode int
}

// TranscriptText formats the result the way it is reported to the model
func (r ExecutionResult) TranscriptText() string {
	var b strings.Builder
	b.WriteString("\n[System Command Executed]\n")
	fmt.Fprintf(&b, "Command: %s\n", r.Command)
	fmt.Fprintf(&b, "Exit Code: %d\n", r.ReturnCode)
	if r.Stdout != "" {
		fmt.Fprintf(&b, "Output:\n%s\n", r.Stdout)
	}
	if r.Stderr != "" {
		fmt.Fprintf(&b, "Errors:\n%s\n", r.Stderr)
	}
	return b.String()
}

// ExecuteCommand runs command through the platform shell and renders the
// result. It never fails: timeouts and start errors come back as results
// with ReturnCode -1. A timed-out command gets SIGTERM, then SIGKILL after
// constants.CommandKillGracePeriod.
func (p *CommandProcessor) ExecuteCommand(ctx context.Context, command string) ExecutionResult {
	start := time.Now()
	result := p.run(ctx, command)

	p.log.Debug("Command executed", logging.Fields{
		"command":     command,
		"return_code": result.ReturnCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	p.render(result)
	return result
}

func (p *CommandProcessor) run(ctx context.Context, command string) ExecutionResult {
	timeout := time.Duration(p.config.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string(nil), p.shell[1:]...), command)
	cmd := exec.CommandContext(runCtx, p.shell[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stop := configureTermination(cmd, constants.CommandKillGracePeriod)
	defer stop()

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return ExecutionResult{
			Command:    command,
			Stderr:     fmt.Sprintf("Command timed out after %d seconds", p.config.TimeoutSeconds),
			ReturnCode: -1,
		}
	}

	if err != nil && cmd.ProcessState == nil {
		p.log.Error("Command failed to run", err, logging.Fields{"command": command})
		return ExecutionResult{
			Command:    command,
			Stderr:     fmt.Sprintf("Command execution failed: %v", err),
			ReturnCode: -1,
		}
	}

	return ExecutionResult{
		Command:    command,
		Stdout:     truncateOutput(stdout.String(), p.config.MaxOutputLength, stdoutTruncated),
		Stderr:     truncateOutput(stderr.String(), p.config.MaxOutputLength, stderrTruncated),
		ReturnCode: cmd.ProcessState.ExitCode(),
	}
}

func (p *CommandProcessor) render(r ExecutionResult) {
	p.presenter.Status(ToneInfo, label, "Command: "+r.Command)
	p.presenter.Status(ToneInfo, label, fmt.Sprintf("Return code: %d", r.ReturnCode))

	if r.Stdout != "" {
		p.presenter.Block(ToneSuccess, label, "Output:", r.Stdout)
	}
	if r.Stderr != "" {
		p.presenter.Block(ToneError, label, "Errors:", r.Stderr)
	}
	if r.ReturnCode == 0 && r.Stdout == "" && r.Stderr == "" {
		p.presenter.Status(ToneWarning, label, "Command completed successfully (no output)")
	}
}

// truncateOutput keeps the first limit characters of s and appends marker
// when anything was cut
func truncateOutput(s string, limit int, marker string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + marker
		}
		count++
	}
	return s
}
