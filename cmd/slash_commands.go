package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/quocvuong92/ai-chat/internal/executor"
)

// handleCommand processes slash commands in interactive mode.
// Returns true if the session should exit, false otherwise.
func (s *ChatSession) handleCommand(ctx context.Context, input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/exit", "/quit", "/q":
		s.console.Program("Exiting...")
		s.saveHistory()
		return true

	case "/save", "/s":
		s.save(ctx)

	case "/clear", "/c":
		s.clear()

	case "/bash":
		s.handleBashCommand(arg)

	case "/help", "/h":
		s.showHelp()

	case "/history":
		s.showHistory()

	case "/resume":
		s.resumeConversation()

	case "/model":
		s.handleModelCommand(arg)

	default:
		s.console.Status(executor.ToneWarning, "", "Unknown command: "+cmd)
		s.console.Program("Type /help for available commands")
	}

	return false
}

// showHelp displays the help message with all available commands.
func (s *ChatSession) showHelp() {
	prefix := s.processor.Config().CommandPrefix
	var b strings.Builder
	b.WriteString("\nCommands:\n")
	row := func(name, desc string) {
		fmt.Fprintf(&b, "  %-24s %s\n", name, desc)
	}
	row("/exit, /quit, /q, q", "Exit interactive mode")
	row("/save, s", "Save the conversation to a file")
	row("/clear, /c, c", "Clear conversation history")
	row("/bash on|off, bash on|off", "Allow or disallow shell commands")
	row("/bash", "Show whether shell commands are allowed")
	row(prefix+"<command>", "Run a shell command and optionally share its output")
	row("/history", "Show recent conversations")
	row("/resume", "Resume last conversation")
	row("/model <name>", "Switch model")
	row("/model", "Show current model")
	row("/help, /h", "Show this help")
	s.console.ShowContent(b.String())
}

// handleBashCommand processes /bash with an optional on/off argument
func (s *ChatSession) handleBashCommand(arg string) {
	switch strings.ToLower(arg) {
	case "":
		s.console.Program("Command execution is " + s.processor.Mode().String())
	case "on", "enable":
		s.toggleCommands(true)
	case "off", "disable":
		s.toggleCommands(false)
	default:
		s.console.Program("Usage: /bash on|off")
	}
}

// showHistory displays recent conversation history.
func (s *ChatSession) showHistory() {
	if s.history == nil {
		s.console.Program("History not available.")
		return
	}

	conversations := s.history.GetRecentConversations(10)
	if len(conversations) == 0 {
		s.console.Program("No conversation history.")
		return
	}

	var b strings.Builder
	b.WriteString("\nRecent conversations:\n")
	for i, conv := range conversations {
		msgCount := len(conv.Messages) - 1 // Exclude system message
		if msgCount < 0 {
			msgCount = 0
		}
		fmt.Fprintf(&b, "  %d. [%s] %s - %s (%d messages)\n",
			i+1,
			conv.UpdatedAt.Format("2006-01-02 15:04"),
			conv.Provider,
			conv.Model,
			msgCount,
		)
	}
	s.console.ShowContent(b.String())
}

// resumeConversation resumes the last conversation from history. The model
// is restored when it belongs to the current provider.
func (s *ChatSession) resumeConversation() {
	if s.history == nil {
		s.console.Program("History not available.")
		return
	}

	lastConv := s.history.GetLastConversation()
	if lastConv == nil {
		s.console.Program("No conversation to resume.")
		return
	}

	s.transcript.Restore(s.transcript.SystemPrompt(), lastConv.Messages)
	s.conversationID = lastConv.ID
	if lastConv.Provider == s.cfg.Provider && s.cfg.ValidateModel(lastConv.Model) {
		s.switchModel(lastConv.Model)
	}

	msgCount := len(lastConv.Messages) - 1
	if msgCount < 0 {
		msgCount = 0
	}
	s.console.Program(fmt.Sprintf("Resumed conversation from %s (%d messages)",
		lastConv.UpdatedAt.Format("2006-01-02 15:04"),
		msgCount,
	))
}

// handleModelCommand processes the /model command to show or switch models.
func (s *ChatSession) handleModelCommand(arg string) {
	if arg == "" {
		s.console.Program("Current model: " + s.cfg.Model)
		s.console.Program("Available: " + s.cfg.GetAvailableModelsString())
		return
	}
	if !s.cfg.ValidateModel(arg) {
		s.console.Status(executor.ToneWarning, "", "Invalid model: "+arg)
		s.console.Program("Available: " + s.cfg.GetAvailableModelsString())
		return
	}
	s.switchModel(arg)
	s.console.Program(fmt.Sprintf("Switched to model: %s (temperature %g)", s.cfg.Model, s.cfg.Temperature))
}

// switchModel selects a model of the current provider. Its default
// temperature and prompt apply unless they were given explicitly.
func (s *ChatSession) switchModel(model string) {
	if model == s.cfg.Model {
		return
	}
	s.cfg.Model = model
	if !s.cfg.TemperatureSet() {
		s.cfg.Temperature = s.cfg.ModelTemperature(model)
	}
	s.reloadSystemPrompt()
}
