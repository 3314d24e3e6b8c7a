package conversation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quocvuong92/ai-chat/internal/constants"
)

const summarySystemPrompt = "You are a helpful assistant that creates very concise, 3-5 word summaries of conversations. " +
	"Respond with only the summary text, no additional commentary."

var (
	summaryStrip    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	summaryCollapse = regexp.MustCompile(`[-\s]+`)
)

// SummaryMessages builds the request asking the model for a short title of
// the conversation. Only text content is sent.
func SummaryMessages(msgs []Message) ([]Message, error) {
	type textOnly struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	texts := make([]textOnly, 0, len(msgs))
	for _, m := range msgs {
		if text := m.Text(); text != "" {
			texts = append(texts, textOnly{Role: m.Role.String(), Content: text})
		}
	}

	data, err := marshalNoEscape(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversation: %w", err)
	}

	return []Message{
		NewMessage(RoleSystem, summarySystemPrompt),
		NewMessage(RoleUser, "Please provide a very concise 3-5 word summary of this conversation. "+
			"Focus on the main topic or theme:\n\n"+string(data)),
	}, nil
}

// SanitizeSummary turns a model-written title into a file name fragment:
// punctuation removed, runs of spaces and hyphens joined by "_", lower case,
// at most constants.MaxSummaryLength runes. Falls back to "conversation".
func SanitizeSummary(summary string) string {
	s := strings.TrimSpace(summary)
	s = summaryStrip.ReplaceAllString(s, "")
	s = summaryCollapse.ReplaceAllString(s, "_")
	s = strings.ToLower(s)

	if r := []rune(s); len(r) > constants.MaxSummaryLength {
		s = string(r[:constants.MaxSummaryLength])
	}
	if s == "" {
		return "conversation"
	}
	return s
}
