package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quocvuong92/ai-chat/internal/api"
	"github.com/quocvuong92/ai-chat/internal/config"
	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/conversation"
	"github.com/quocvuong92/ai-chat/internal/display"
	"github.com/quocvuong92/ai-chat/internal/executor"
	"github.com/quocvuong92/ai-chat/internal/history"
	"github.com/quocvuong92/ai-chat/internal/logging"
)

// ChatSession holds the state of one conversation: the transcript sent to
// the model, the command processor that may add to it, and persistence.
type ChatSession struct {
	cfg        *config.Config
	client     api.AIClient
	console    *display.Console
	processor  *executor.CommandProcessor
	transcript *conversation.Transcript
	history    history.HistoryManager

	conversationID string
	originalPrompt string // saved with the chat, whatever the command mode
	loaded         *conversation.Session

	exitFlag    bool
	inputBuffer []string // lines joined by a trailing backslash
	now         func() time.Time
}

// newChatSession creates a session with a command processor configured for
// the current platform. prepare must be called before use.
func newChatSession(cfg *config.Config, console *display.Console) *ChatSession {
	processor := executor.NewCommandProcessor(console, console)
	processor.SetConfig(cfg.Safety())

	return &ChatSession{
		cfg:            cfg,
		console:        console,
		processor:      processor,
		conversationID: history.NewConversationID(),
		now:            time.Now,
	}
}

// prepare builds the initial transcript: a loaded chat if requested, the
// system prompt and the attached files and images.
func (s *ChatSession) prepare() error {
	if s.cfg.LoadFile != "" {
		if err := s.loadChat(s.cfg.LoadFile); err != nil {
			return err
		}
	}

	prompt, err := s.cfg.SystemPrompt(s.processor.Enabled())
	if err != nil {
		return fmt.Errorf("[LOAD] Failed to load prompt: %w", err)
	}
	if s.loaded != nil && s.loaded.Metadata.SystemPrompt != "" {
		prompt = s.loaded.Metadata.SystemPrompt
	}
	s.originalPrompt = prompt

	s.transcript = conversation.NewTranscript(prompt)
	if s.loaded != nil {
		s.transcript.Restore(prompt, s.loaded.Messages)
	}

	if err := s.addFiles(s.cfg.Files); err != nil {
		return err
	}
	return s.addImages(s.cfg.Images)
}

// loadChat reads a saved chat and applies its settings. A chat with images
// continues on the provider's vision model.
func (s *ChatSession) loadChat(path string) error {
	session, err := conversation.Load(path)
	if err != nil {
		return fmt.Errorf("[LOAD] %w", err)
	}

	meta := session.Metadata
	if meta.Model != "" {
		s.cfg.SetModelSpec(meta.Model)
	}
	if meta.Temperature != nil {
		s.cfg.SetTemperature(*meta.Temperature)
	}
	if session.HasImages() {
		vision := s.cfg.VisionModel()
		if vision == "" {
			return fmt.Errorf("[LOAD] %w: %s", config.ErrNoVisionModel, s.cfg.Provider)
		}
		if s.cfg.Model != vision {
			s.cfg.Model = vision
			s.cfg.SetTemperature(s.cfg.ModelTemperature(vision))
		}
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("[LOAD] %w", err)
	}

	s.loaded = session
	logging.Debug("Conversation loaded", logging.Fields{
		"path":     path,
		"messages": len(session.Messages),
		"model":    s.cfg.Model,
	})
	return nil
}

// addFiles appends one user message per text file. Empty files are skipped
// with a warning; any other failure aborts.
func (s *ChatSession) addFiles(paths []string) error {
	for _, path := range paths {
		msg, err := conversation.FileMessage(path)
		switch {
		case errors.Is(err, conversation.ErrEmptyFile):
			s.console.Status(executor.ToneWarning, "WARNING", "Empty file: "+path)
			continue
		case errors.Is(err, conversation.ErrFileNotFound):
			return fmt.Errorf("[FILE] File not found: %s", path)
		case errors.Is(err, conversation.ErrNotUTF8):
			return fmt.Errorf("[FILE] Not a UTF-8 encoded file: %s", path)
		case err != nil:
			return fmt.Errorf("[FILE] Error reading file %s: %w", path, err)
		}
		s.transcript.Append(msg)
	}
	return nil
}

// addImages appends one multimodal user message per image
func (s *ChatSession) addImages(paths []string) error {
	for _, path := range paths {
		msg, err := conversation.ImageMessage(path)
		switch {
		case errors.Is(err, conversation.ErrFileNotFound):
			return fmt.Errorf("[IMAGE] File not found: %s", path)
		case err != nil:
			return fmt.Errorf("[IMAGE] Error processing image %s: %w", path, err)
		}
		s.transcript.Append(msg)
	}
	return nil
}

func (s *ChatSession) request() api.ChatRequest {
	return api.ChatRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages:    s.transcript.Messages(),
	}
}

// chat sends one user turn, shows the reply and offers any commands the
// reply suggests. A failed request leaves the transcript as it was.
func (s *ChatSession) chat(ctx context.Context, text string) {
	s.transcript.Append(conversation.NewMessage(conversation.RoleUser, text))

	reply, err := s.respond(ctx)
	if err != nil {
		s.transcript.RemoveLast()
		s.reportError(err)
		s.console.Error("[ERROR] Conversation error, please try again")
		return
	}

	s.processor.ProcessAICommands(ctx, reply, s.transcript)
}

// respond streams the model's reply and appends it to the transcript
func (s *ChatSession) respond(ctx context.Context) (string, error) {
	sp := display.NewSpinner("Thinking...")
	sp.Start()

	var printer *display.StreamPrinter
	first := true
	resp, err := s.client.QueryStream(ctx, s.request(), func(d api.Delta) {
		if first {
			first = false
			if s.cfg.Render {
				sp.UpdateMessage("Receiving...")
				return
			}
			sp.Stop()
			printer = s.console.NewStreamPrinter()
		}
		if printer != nil {
			printer.Write(d.Reasoning, d.Content)
		}
	})
	sp.Stop()
	if printer != nil {
		printer.Finish()
	}
	if err != nil {
		return "", err
	}

	content := resp.GetContent()
	if s.cfg.Render {
		s.console.ShowContentRendered(content)
	}
	s.transcript.Append(conversation.NewMessage(conversation.RoleAssistant, content))

	logging.Debug("Reply received", logging.Fields{
		"model":         s.cfg.Model,
		"finish_reason": resp.FinishReason,
		"total_tokens":  resp.Usage.TotalTokens,
	})
	return content, nil
}

// runSilent answers text without streaming and prints only the reply
func (s *ChatSession) runSilent(ctx context.Context, text string) bool {
	s.transcript.Append(conversation.NewMessage(conversation.RoleUser, text))

	resp, err := s.client.Query(ctx, s.request())
	if err != nil {
		s.reportError(err)
	}
	content := resp.GetContent()
	if content == "" {
		s.console.Error("[ERROR] Failed to generate response")
		return false
	}
	s.console.ShowContent(content)
	return true
}

// reportError prints a request failure by category
func (s *ChatSession) reportError(err error) {
	logging.Error("Chat request failed", err, logging.Fields{"model": s.cfg.Model})

	var apiErr *api.APIError
	switch {
	case errors.Is(err, context.Canceled):
		s.console.Error("[INTERRUPTED] Request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		s.console.Error("[TIMEOUT] Request timed out: " + err.Error())
	case errors.As(err, &apiErr):
		s.console.Error("[API] Error occurred: " + apiErr.Message)
	default:
		s.console.Error("[NETWORK] Connection failed: " + err.Error())
	}
}

// save writes the conversation to the saved chats directory under a name
// derived from a model-written summary
func (s *ChatSession) save(ctx context.Context) {
	msgs := s.transcript.Messages()
	if len(msgs) <= 1 {
		s.console.Error("[SAVE] No conversation content to save (only system prompt exists).")
		return
	}

	temperature := s.cfg.Temperature
	meta := conversation.Metadata{
		Model:        s.cfg.Provider + ":" + s.cfg.Model,
		Temperature:  &temperature,
		SystemPrompt: s.originalPrompt,
	}

	path, err := conversation.Save(s.cfg.SavedChatsDir(), s.summarize(ctx, msgs), meta, msgs, s.now())
	if err != nil {
		s.console.Error("[SAVE] Failed to save conversation: " + err.Error())
		return
	}
	s.console.Program("[SAVE] Conversation saved to " + path)
}

// summarize asks the summary model for a short title. It returns "" when
// the request fails, which leaves the summary out of the file name.
func (s *ChatSession) summarize(ctx context.Context, msgs []conversation.Message) string {
	summary, err := s.requestSummary(ctx, msgs)
	if err != nil {
		s.console.Error("[SUMMARY] Failed to generate summary: " + err.Error())
		return ""
	}
	return summary
}

func (s *ChatSession) requestSummary(ctx context.Context, msgs []conversation.Message) (string, error) {
	request, err := conversation.SummaryMessages(msgs)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Query(ctx, api.ChatRequest{
		Model:       s.cfg.SummaryModel(),
		Temperature: constants.SummaryTemperature,
		Messages:    request,
	})
	if err != nil {
		return "", err
	}
	return conversation.SanitizeSummary(resp.GetContent()), nil
}

// clear starts a new conversation with the current system prompt
func (s *ChatSession) clear() {
	s.saveHistory()
	s.transcript.Reset(s.transcript.SystemPrompt())
	s.conversationID = history.NewConversationID()
	s.console.Program("[CLEAR] Conversation cleared")
}

// toggleCommands switches command execution and swaps the system prompt
func (s *ChatSession) toggleCommands(enable bool) {
	s.processor.ToggleMode(enable, s.reloadSystemPrompt)
}

// reloadSystemPrompt reloads the prompt for the current model and command
// mode and rewrites the leading system message
func (s *ChatSession) reloadSystemPrompt() {
	prompt, err := s.cfg.SystemPrompt(s.processor.Enabled())
	if err != nil {
		s.console.Error("[PROMPT] Failed to reload system prompt: " + err.Error())
		return
	}
	s.transcript.ReplaceSystem(prompt)
}

// saveHistory records the conversation in the history file. Only saves if
// there are messages beyond the system prompt.
func (s *ChatSession) saveHistory() {
	if s.history == nil || s.transcript.Len() <= 1 {
		return
	}
	s.history.AddConversation(s.conversationID, s.cfg.Model, s.cfg.Provider, s.transcript.Messages())
	if err := s.history.Save(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not save history: %v", err))
	}
}

// echoLoaded prints the user turns of a loaded chat
func (s *ChatSession) echoLoaded() {
	s.console.Notice("[LOAD] Conversation loaded from " + s.cfg.LoadFile)
	i := 0
	for _, msg := range s.transcript.Messages() {
		if msg.Role != conversation.RoleUser {
			continue
		}
		i++
		s.console.UserLine(fmt.Sprintf("User Message %d:", i), truncateText(msg.Text(), constants.MaxEchoedMessageLength))
	}
}

// truncateText shortens text to max runes, ending with "..."
func truncateText(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}

// inputWord normalizes a line for matching against the session words
func inputWord(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(input), " "))
}
