package display

import (
	"fmt"
	"strings"
)

const separatorWidth = 30

// StreamPrinter prints a streamed reply. Reasoning text is shown in the
// reasoning color under a "Think" separator, and an "Answer" separator is
// printed once the answer starts.
type StreamPrinter struct {
	c           *Console
	inReasoning bool
	answer      strings.Builder
}

// NewStreamPrinter starts a reply by printing the assistant heading
func (c *Console) NewStreamPrinter() *StreamPrinter {
	c.AssistantHeader()
	return &StreamPrinter{c: c}
}

// Write prints one delta. Either argument may be empty.
func (s *StreamPrinter) Write(reasoning, content string) {
	if reasoning != "" {
		if !s.inReasoning {
			fmt.Fprintln(s.c.out, s.c.assistant.Sprint(separator("Think")))
			s.inReasoning = true
		}
		fmt.Fprint(s.c.out, s.c.reasoning.Sprint(reasoning))
	}

	if content != "" {
		if s.inReasoning {
			fmt.Fprintln(s.c.out)
			fmt.Fprintln(s.c.out, s.c.assistant.Sprint(separator("Answer")))
			s.inReasoning = false
		}
		fmt.Fprint(s.c.out, content)
		s.answer.WriteString(content)
	}
}

// Finish ends the reply and returns the answer text without reasoning
func (s *StreamPrinter) Finish() string {
	fmt.Fprintln(s.c.out)
	return s.answer.String()
}

func separator(title string) string {
	bar := strings.Repeat("=", separatorWidth)
	return bar + " " + title + " " + bar
}
