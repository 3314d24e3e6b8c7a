package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quocvuong92/ai-chat/internal/conversation"
	"github.com/quocvuong92/ai-chat/internal/display"
)

// savedAtLayouts are the timestamp forms found in saved chats
var savedAtLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// printChat prints a saved chat: its metadata, then each user and
// assistant turn
func printChat(console *display.Console, path string) error {
	session, err := conversation.Load(path)
	if err != nil {
		return fmt.Errorf("[LOAD] %w", err)
	}

	rule := strings.Repeat("=", 60)
	console.Program(rule)
	console.Program("Conversation File: " + path)

	meta := session.Metadata
	if meta != (conversation.Metadata{}) {
		model := valueOr(meta.Model, "Unknown")
		temperature := "Unknown"
		if meta.Temperature != nil {
			temperature = strconv.FormatFloat(*meta.Temperature, 'g', -1, 64)
		}
		console.Program(fmt.Sprintf("Model: %s | Temperature: %s", model, temperature))
		console.Program("Saved at: " + formatSavedAt(meta.SavedAt))
	}
	console.Program(rule)

	for _, msg := range session.Messages {
		text := msg.Text()
		if text == "" && msg.HasImage() {
			text = "[Multimodal content (e.g., image)]"
		}
		switch msg.Role {
		case conversation.RoleUser:
			console.UserLine("\nUser Question:", "\n\n"+text)
		case conversation.RoleAssistant:
			console.Assistant("\nAssistant Answer:", "\n\n"+text)
		}
	}
	return nil
}

// formatSavedAt renders a saved_at value as "YYYY-MM-DD HH:MM:SS", keeping
// values it cannot parse as they are
func formatSavedAt(savedAt string) string {
	if savedAt == "" {
		return "Unknown"
	}
	for _, layout := range savedAtLayouts {
		if t, err := time.Parse(layout, savedAt); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return savedAt
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
