package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
)

// completer provides auto-completion suggestions for slash commands.
// It provides context-aware suggestions based on what the user is typing.
func (s *ChatSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	if !strings.HasPrefix(text, "/") {
		return []prompt.Suggest{}, startIndex, endIndex
	}

	textLower := strings.ToLower(text)

	// /model <name> - suggest the provider's models
	if strings.HasPrefix(textLower, "/model ") {
		var suggestions []prompt.Suggest
		for _, model := range s.cfg.AvailableModels() {
			desc := ""
			if model == s.cfg.Model {
				desc = "(current)"
			}
			suggestions = append(suggestions, prompt.Suggest{Text: model, Description: desc})
		}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	if strings.HasPrefix(textLower, "/bash ") {
		suggestions := []prompt.Suggest{
			{Text: "on", Description: "Allow shell commands"},
			{Text: "off", Description: "Disallow shell commands"},
		}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	suggestions := []prompt.Suggest{
		{Text: "/model", Description: "Show/switch model (current: " + s.cfg.Model + ")"},
		{Text: "/save", Description: "Save the conversation to a file"},
		{Text: "/clear", Description: "Clear conversation history"},
		{Text: "/bash", Description: "Shell commands (currently " + s.processor.Mode().String() + ")"},
		{Text: "/help", Description: "Show all available commands"},
		{Text: "/exit", Description: "Exit interactive mode"},

		{Text: "/history", Description: "Show recent conversations"},
		{Text: "/resume", Description: "Resume last conversation"},

		{Text: "/q", Description: "Exit (alias)"},
		{Text: "/c", Description: "Clear (alias)"},
		{Text: "/h", Description: "Help (alias)"},
	}

	return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
}

// promptReader answers the command processor's questions through go-prompt,
// so the REPL and the confirmations never read stdin at the same time
type promptReader struct{}

// ReadLine reads one line in raw mode. Ctrl+C ends the wait as a cancellation.
func (promptReader) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	interrupted := false
	answer := prompt.Input(
		prompt.WithPrefix(label),
		prompt.WithPrefixTextColor(prompt.Cyan),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				interrupted = true
				return false
			},
		}),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return interrupted
		}),
	)
	if interrupted {
		return "", context.Canceled
	}
	return answer, nil
}

// runInteractive starts the REPL and blocks until the session ends
func (s *ChatSession) runInteractive() {
	s.printBanner()
	s.console.SetInput(promptReader{})
	defer s.console.SetInput(nil)

	p := prompt.New(
		s.executor,
		prompt.WithCompleter(s.completer),
		prompt.WithPrefix(s.console.UserPrompt()),
		prompt.WithTitle("AI Chat"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithDescriptionBGColor(prompt.DarkBlue),
		prompt.WithDescriptionTextColor(prompt.LightGray),
		prompt.WithSelectedDescriptionBGColor(prompt.Cyan),
		prompt.WithSelectedDescriptionTextColor(prompt.Black),
		prompt.WithScrollbarBGColor(prompt.DarkGray),
		prompt.WithScrollbarThumbColor(prompt.White),
		prompt.WithMaxSuggestion(12),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return s.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				s.console.Program("\nSession terminated by Ctrl+C")
				s.saveHistory()
				s.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					s.console.Program("Exiting...")
					s.saveHistory()
					s.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
}

// printBanner shows the model, the command mode and what was preloaded
func (s *ChatSession) printBanner() {
	s.console.Program("AI Chat Client\n")
	s.console.Program(fmt.Sprintf("Model: %s | Temperature: %g | Bash commands %s",
		s.cfg.Model, s.cfg.Temperature, s.processor.Mode()))
	s.console.Program("(Type 'q' to quit, 's' to save, 'c' to clear, 'bash on/off' to toggle commands)")
	s.console.Program("(Type /help for all commands; end a line with \\ for multiline input)")

	if n := len(s.cfg.Files); n > 0 {
		s.console.Notice(fmt.Sprintf("%d file(s) have been loaded. You can now ask questions about them.", n))
	}
	if n := len(s.cfg.Images); n > 0 {
		s.console.Notice(fmt.Sprintf("%d image(s) have been loaded. You can now ask questions about them.", n))
	}
	if s.loaded != nil {
		s.echoLoaded()
	}
}

// executor handles each line entered at the prompt. Lines ending in a
// backslash are buffered and sent together with the next line.
func (s *ChatSession) executor(input string) {
	if s.exitFlag {
		return
	}

	if strings.HasSuffix(input, "\\") {
		s.inputBuffer = append(s.inputBuffer, strings.TrimSuffix(input, "\\"))
		fmt.Print("... ")
		return
	}
	if len(s.inputBuffer) > 0 {
		s.inputBuffer = append(s.inputBuffer, input)
		input = strings.Join(s.inputBuffer, "\n")
		s.inputBuffer = nil
	}

	// Ctrl+C while a request or command runs cancels it, not the session
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if s.handleInput(ctx, input) {
		s.exitFlag = true
	}
}

// handleInput processes one complete input. It returns true when the
// session should end.
func (s *ChatSession) handleInput(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	switch inputWord(input) {
	case "exit", "quit", "q":
		s.console.Program("Exiting...")
		s.saveHistory()
		return true
	case "save", "s":
		s.save(ctx)
		return false
	case "clear", "c":
		s.clear()
		return false
	case "bash on", "bash enable":
		s.toggleCommands(true)
		return false
	case "bash off", "bash disable":
		s.toggleCommands(false)
		return false
	}

	if strings.HasPrefix(input, "/") && !s.processor.IsCommandInput(input) {
		return s.handleCommand(ctx, input)
	}

	if s.processor.IsCommandInput(input) {
		s.processor.ProcessUserCommand(ctx, input, s.transcript)
		return false
	}

	s.chat(ctx, input)
	return false
}
