// Package executor mediates shell command execution for the chat client:
// direct commands typed by the operator, commands the model suggests inside
// its replies, the safety checks both go through, and the transcript entry
// that reports a result back to the model.
package executor

import (
	"context"

	"github.com/quocvuong92/ai-chat/internal/conversation"
)

// Tone tells a Presenter how a line should be styled
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
)

// Presenter renders processor output. Formatting and coloring are entirely
// up to the implementation.
type Presenter interface {
	// Status prints a single labelled line
	Status(tone Tone, label, text string)

	// Block prints a labelled title line followed by a verbatim body
	Block(tone Tone, label, title, body string)
}

// LineReader asks the operator for one line of input. Any error, including
// an interrupt or end of input, is treated by the processor as a decline.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// Transcript is the conversation the processor appends command results to
type Transcript interface {
	Append(msg conversation.Message)
}

// Ensure concrete types implement the interfaces
var _ Transcript = (*conversation.Transcript)(nil)
