package executor

import (
	"regexp"
	"strings"

	"github.com/quocvuong92/ai-chat/internal/constants"
)

var commandBlockPattern = regexp.MustCompile(`(?s)` +
	regexp.QuoteMeta(constants.CommandBlockStart) + `(.*?)` + regexp.QuoteMeta(constants.CommandBlockEnd))

// ExtractAICommands returns the commands the model placed between
// [BASH_COMMAND_START] and [BASH_COMMAND_END] markers. Each non-empty line
// of a block is one command; lines starting with "#" are comments. Duplicates
// are dropped, keeping first-seen order across blocks. Nothing is returned
// while execution is disabled.
func (p *CommandProcessor) ExtractAICommands(response string) []string {
	if !p.Enabled() {
		return nil
	}

	var commands []string
	seen := make(map[string]bool)
	for _, match := range commandBlockPattern.FindAllStringSubmatch(response, -1) {
		for _, line := range strings.Split(match[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || seen[line] {
				continue
			}
			seen[line] = true
			commands = append(commands, line)
		}
	}
	return commands
}
