// Package display handles terminal output: colored status lines, streamed
// assistant replies, markdown rendering, the waiting spinner and the
// one-line confirmation prompts used by the command processor.
package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/quocvuong92/ai-chat/internal/executor"
)

// Colors names the colors of each speaker. Values are color names such as
// "green" or ANSI codes such as "32".
type Colors struct {
	User      string `yaml:"user"`
	Program   string `yaml:"program"`
	Assistant string `yaml:"assistant"`
	Reasoning string `yaml:"reasoning"`
}

// DefaultColors matches the classic palette of the client
func DefaultColors() Colors {
	return Colors{
		User:      "green",
		Program:   "cyan",
		Assistant: "blue",
		Reasoning: "yellow",
	}
}

var colorNames = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

// ParseColor turns a color name or ANSI code into a bold color. Unknown
// values fall back to the given default.
func ParseColor(name string, fallback color.Attribute) *color.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	if attr, ok := colorNames[name]; ok {
		return color.New(attr, color.Bold)
	}
	if code, err := strconv.Atoi(name); err == nil && code > 0 {
		return color.New(color.Attribute(code), color.Bold)
	}
	return color.New(fallback, color.Bold)
}

// Console writes to the terminal and reads confirmation answers.
// It implements executor.Presenter and executor.LineReader.
type Console struct {
	out io.Writer
	in  *bufio.Reader

	user      *color.Color
	program   *color.Color
	assistant *color.Color
	reasoning *color.Color
	success   *color.Color
	warning   *color.Color
	failure   *color.Color

	input   executor.LineReader
	pending chan readResult // read abandoned by a cancelled ReadLine
}

type readResult struct {
	line string
	err  error
}

// Ensure Console implements the processor interfaces
var (
	_ executor.Presenter  = (*Console)(nil)
	_ executor.LineReader = (*Console)(nil)
)

// NewConsole creates a console over the given streams
func NewConsole(out io.Writer, in io.Reader, colors Colors) *Console {
	return &Console{
		out:       out,
		in:        bufio.NewReader(in),
		user:      ParseColor(colors.User, color.FgGreen),
		program:   ParseColor(colors.Program, color.FgCyan),
		assistant: ParseColor(colors.Assistant, color.FgBlue),
		reasoning: ParseColor(colors.Reasoning, color.FgYellow),
		success:   color.New(color.FgGreen, color.Bold),
		warning:   color.New(color.FgYellow, color.Bold),
		failure:   color.New(color.FgRed, color.Bold),
	}
}

// NewStdConsole creates a console on stdout and stdin
func NewStdConsole(colors Colors) *Console {
	return NewConsole(os.Stdout, os.Stdin, colors)
}

func (c *Console) tone(t executor.Tone) *color.Color {
	switch t {
	case executor.ToneSuccess:
		return c.success
	case executor.ToneWarning:
		return c.warning
	case executor.ToneError:
		return c.failure
	default:
		return c.program
	}
}

// Status prints "[label] text" in the tone's color
func (c *Console) Status(tone executor.Tone, label, text string) {
	fmt.Fprintln(c.out, c.tone(tone).Sprint(labelled(label, text)))
}

// Block prints a colored "[label] title" line followed by body as-is
func (c *Console) Block(tone executor.Tone, label, title, body string) {
	fmt.Fprintln(c.out, c.tone(tone).Sprint(labelled(label, title)))
	fmt.Fprint(c.out, body)
	if !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(c.out)
	}
}

func labelled(label, text string) string {
	if label == "" {
		return text
	}
	return "[" + label + "] " + text
}

// Program prints a line in the program color
func (c *Console) Program(text string) {
	fmt.Fprintln(c.out, c.program.Sprint(text))
}

// Notice prints a highlighted informational line
func (c *Console) Notice(text string) {
	fmt.Fprintln(c.out, c.warning.Sprint(text))
}

// Error prints a line in red
func (c *Console) Error(text string) {
	fmt.Fprintln(c.out, c.failure.Sprint(text))
}

// UserLine prints a "User ..." heading followed by text
func (c *Console) UserLine(heading, text string) {
	fmt.Fprintf(c.out, "%s %s\n", c.user.Sprint(heading), text)
}

// UserPrompt returns the REPL prompt prefix
func (c *Console) UserPrompt() string {
	return "User: "
}

// AssistantHeader prints the heading shown before each reply
func (c *Console) AssistantHeader() {
	fmt.Fprintf(c.out, "\n%s\n\n", c.assistant.Sprint("Assistant: "))
}

// Assistant prints a heading in the assistant color followed by text
func (c *Console) Assistant(heading, text string) {
	fmt.Fprintf(c.out, "%s %s\n", c.assistant.Sprint(heading), text)
}

// SetInput routes ReadLine to r, typically a line editor that owns the
// terminal. A nil r restores reading from the console's own stream.
func (c *Console) SetInput(r executor.LineReader) {
	c.input = r
}

// ReadLine prints prompt and reads one line. An interrupt or ctx cancellation
// ends the wait with an error. A line that arrives for a cancelled read is
// discarded, never handed to a later call.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	if c.input != nil {
		return c.input.ReadLine(ctx, prompt)
	}

	fmt.Fprint(c.out, c.program.Sprint(prompt))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// Only one goroutine may read c.in; wait out the abandoned one
	if c.pending != nil {
		select {
		case <-c.pending:
			c.pending = nil
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return "", ctx.Err()
		}
	}

	ch := make(chan readResult, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			fmt.Fprintln(c.out)
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	case <-ctx.Done():
		c.pending = ch
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	}
}
