package display

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

// Spinner shows progress while waiting for the API
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner on stderr with the given message
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start begins animating
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop halts the animation and clears the line. Safe to call twice.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// UpdateMessage changes the text shown next to the spinner
func (sp *Spinner) UpdateMessage(message string) {
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}

var (
	rendererOnce sync.Once
	renderer     *glamour.TermRenderer
	rendererErr  error
)

// InitRenderer prepares the markdown renderer. It is called lazily by
// RenderMarkdown; calling it early keeps the first reply fast.
func InitRenderer() error {
	rendererOnce.Do(func() {
		renderer, rendererErr = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
	})
	return rendererErr
}

// RenderMarkdown renders markdown for the terminal, returning the input
// unchanged when rendering fails
func RenderMarkdown(content string) string {
	if err := InitRenderer(); err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// ShowContentRendered prints a whole reply as rendered markdown
func (c *Console) ShowContentRendered(content string) {
	c.AssistantHeader()
	fmt.Fprint(c.out, RenderMarkdown(content))
}

// ShowContent prints a whole reply as plain text
func (c *Console) ShowContent(content string) {
	fmt.Fprintln(c.out, content)
}

// ShowError prints an error line on stderr
func ShowError(msg string) {
	fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error: "+msg))
}

// ShowWarning prints a warning line on stderr
func ShowWarning(msg string) {
	fmt.Fprintln(os.Stderr, color.New(color.FgYellow, color.Bold).Sprint("Warning: "+msg))
}
