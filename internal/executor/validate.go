package executor

import (
	"strings"

	"github.com/quocvuong92/ai-chat/internal/logging"
)

// ValidateCommandSafety decides whether a command may run. Only the first
// word is checked: deny-listed names are always rejected, and a non-empty
// allow-list rejects every name not on it. Chained commands after the first
// are not inspected; an advisory line lists them.
func (p *CommandProcessor) ValidateCommandSafety(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		p.presenter.Status(ToneWarning, label, "No command given")
		return false
	}
	name := strings.ToLower(fields[0])

	if containsName(p.config.DangerousCommands, name) {
		p.presenter.Status(ToneError, label, "Dangerous command blocked: "+name)
		p.log.Warn("Command rejected", logging.Fields{"command": command, "reason": "dangerous"})
		return false
	}

	if len(p.config.AllowedCommands) > 0 && !containsName(p.config.AllowedCommands, name) {
		p.presenter.Status(ToneError, label, "Command not in allowed list: "+name)
		p.log.Warn("Command rejected", logging.Fields{"command": command, "reason": "not allowed"})
		return false
	}

	if extra := chainedCommands(command); len(extra) > 0 {
		p.presenter.Status(ToneWarning, label,
			"Only '"+name+"' was checked; also runs: "+strings.Join(extra, ", "))
	}

	p.log.Debug("Command accepted", logging.Fields{"command": command})
	return true
}

func containsName(list []string, name string) bool {
	for _, entry := range list {
		if strings.ToLower(strings.TrimSpace(entry)) == name {
			return true
		}
	}
	return false
}
