package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quocvuong92/ai-chat/internal/conversation"
	"github.com/quocvuong92/ai-chat/internal/logging"
)

// label prefixes every line the processor prints
const label = "BASH"

const (
	msgDisabled    = "Command execution is disabled. Use 'bash on' to enable."
	promptInclude  = "[BASH] Add command results to conversation? (Y/n): "
	promptSelect   = "[BASH] Select a command to execute (1-%d, 0 to skip): "
	msgAdded       = "Command results added to conversation"
	msgNotAdded    = "Command results not added to conversation"
	msgSkipped     = "Command execution skipped"
	msgSuggestions = "Suggested commands:"
)

// CommandProcessor owns the execution policy and the enabled/disabled mode.
// It is not safe for concurrent use; the interactive loop drives it from a
// single goroutine.
type CommandProcessor struct {
	config    SafetyConfig
	mode      Mode
	presenter Presenter
	input     LineReader
	shell     []string
	log       *logging.FieldLogger
}

// NewCommandProcessor creates a processor with DefaultSafetyConfig
func NewCommandProcessor(presenter Presenter, input LineReader) *CommandProcessor {
	return &CommandProcessor{
		config:    DefaultSafetyConfig(),
		mode:      ModeDisabled,
		presenter: presenter,
		input:     input,
		shell:     defaultShell(),
		log:       logging.DefaultLogger.WithFields(logging.Fields{"component": "executor"}),
	}
}

// SetConfig replaces the policy wholesale. The mode follows cfg.Enabled.
func (p *CommandProcessor) SetConfig(cfg SafetyConfig) {
	p.config = cfg.normalized()
	p.mode = modeOf(cfg.Enabled)
	p.log.Debug("Safety config applied", logging.Fields{
		"mode":       p.mode.String(),
		"prefix":     p.config.CommandPrefix,
		"dangerous":  len(p.config.DangerousCommands),
		"allowed":    len(p.config.AllowedCommands),
		"timeout_s":  p.config.TimeoutSeconds,
		"max_output": p.config.MaxOutputLength,
	})
}

// Config returns a copy of the current policy with Enabled reflecting the mode
func (p *CommandProcessor) Config() SafetyConfig {
	cfg := p.config.normalized()
	cfg.Enabled = p.mode == ModeEnabled
	return cfg
}

// Mode returns the current execution mode
func (p *CommandProcessor) Mode() Mode {
	return p.mode
}

// Enabled reports whether command execution is permitted
func (p *CommandProcessor) Enabled() bool {
	return p.mode == ModeEnabled
}

// ToggleMode switches execution on or off and then calls onReload, if given,
// so the host can swap its system prompt.
func (p *CommandProcessor) ToggleMode(enable bool, onReload func()) {
	p.mode = modeOf(enable)
	p.config.Enabled = enable

	p.presenter.Status(ToneInfo, label, "Command execution "+p.mode.String())
	p.log.Info("Command mode changed", logging.Fields{"mode": p.mode.String()})

	if onReload != nil {
		onReload()
	}
}

// IsCommandInput reports whether the trimmed input starts with the command prefix
func (p *CommandProcessor) IsCommandInput(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), p.config.CommandPrefix)
}

// ExtractCommand strips the command prefix once and trims the remainder
func (p *CommandProcessor) ExtractCommand(text string) string {
	trimmed := strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimPrefix(trimmed, p.config.CommandPrefix))
}

// ProcessUserCommand handles a prefixed line typed by the operator. The
// command runs after validation, and its result joins the transcript only
// when the operator confirms. It always reports the input as consumed.
func (p *CommandProcessor) ProcessUserCommand(ctx context.Context, raw string, transcript Transcript) bool {
	if !p.Enabled() {
		p.presenter.Status(ToneWarning, label, msgDisabled)
		return true
	}

	command := p.ExtractCommand(raw)
	if !p.ValidateCommandSafety(command) {
		return true
	}

	result := p.ExecuteCommand(ctx, command)

	answer, err := p.input.ReadLine(ctx, promptInclude)
	if err != nil || !isAffirmative(answer) {
		p.presenter.Status(ToneWarning, label, msgNotAdded)
		return true
	}

	p.AddCommandResultToMessages(result, transcript)
	p.presenter.Status(ToneSuccess, label, msgAdded)
	return true
}

// ProcessAICommands offers the commands embedded in a model reply to the
// operator and runs the one they pick. It reports true only when a command
// was executed and its result appended to the transcript.
func (p *CommandProcessor) ProcessAICommands(ctx context.Context, response string, transcript Transcript) bool {
	if !p.Enabled() {
		return false
	}

	commands := p.ExtractAICommands(response)
	if len(commands) == 0 {
		return false
	}

	var list strings.Builder
	for i, cmd := range commands {
		fmt.Fprintf(&list, "%d. %s\n", i+1, cmd)
	}
	p.presenter.Block(ToneInfo, label, msgSuggestions, strings.TrimRight(list.String(), "\n"))

	answer, err := p.input.ReadLine(ctx, fmt.Sprintf(promptSelect, len(commands)))
	if err != nil {
		p.presenter.Status(ToneWarning, label, msgSkipped)
		return false
	}

	choice, ok := parseChoice(answer, len(commands))
	if !ok {
		p.presenter.Status(ToneWarning, label, msgSkipped)
		return false
	}

	command := commands[choice-1]
	if !p.ValidateCommandSafety(command) {
		return false
	}

	result := p.ExecuteCommand(ctx, command)
	p.AddCommandResultToMessages(result, transcript)
	p.presenter.Status(ToneSuccess, label, msgAdded)
	return true
}

// AddCommandResultToMessages appends one user message describing the result
func (p *CommandProcessor) AddCommandResultToMessages(result ExecutionResult, transcript Transcript) {
	if result.Command == "" {
		return
	}
	transcript.Append(conversation.NewMessage(conversation.RoleUser, result.TranscriptText()))
	p.log.Debug("Command result appended", logging.Fields{"command": result.Command})
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// parseChoice returns a 1-based selection, or false for 0, junk or out of range
func parseChoice(answer string, n int) (int, bool) {
	choice, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || choice < 1 || choice > n {
		return 0, false
	}
	return choice, true
}
