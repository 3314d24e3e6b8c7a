package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNothingToSave is returned when the transcript holds only the system prompt
	ErrNothingToSave = errors.New("no conversation content to save (only system prompt exists)")
	// ErrInvalidSession is returned for session files that cannot be restored
	ErrInvalidSession = errors.New("invalid chat file format")
)

// Metadata describes the settings a session was saved with.
// Temperature is nil when a loaded file omits it.
type Metadata struct {
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	SavedAt      string   `json:"saved_at,omitempty"`
}

// Session is the on-disk form of a saved conversation. Messages exclude the
// system prompt, which travels in the metadata.
type Session struct {
	Metadata Metadata  `json:"metadata"`
	Messages []Message `json:"messages"`
}

// HasImages reports whether any message carries an image part
func (s *Session) HasImages() bool {
	return HasImages(s.Messages)
}

// HasImages reports whether any message carries an image part
func HasImages(msgs []Message) bool {
	for _, m := range msgs {
		if m.HasImage() {
			return true
		}
	}
	return false
}

// FileName builds the session file name for a save at the given time
func FileName(now time.Time, summary string) string {
	stamp := now.Format("20060102_150405")
	if summary == "" {
		return fmt.Sprintf("chat_%s.json", stamp)
	}
	return fmt.Sprintf("chat_%s_%s.json", stamp, summary)
}

// Save writes the transcript, minus its first entry, into dir and returns the
// file path.
func Save(dir, summary string, meta Metadata, msgs []Message, now time.Time) (string, error) {
	if len(msgs) <= 1 {
		return "", ErrNothingToSave
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create saved chats directory: %w", err)
	}

	meta.SavedAt = now.Format("2006-01-02T15:04:05.000000")
	session := Session{
		Metadata: meta,
		Messages: msgs[1:],
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(session); err != nil {
		return "", fmt.Errorf("failed to encode conversation: %w", err)
	}

	path := filepath.Join(dir, FileName(now, summary))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}
	return path, nil
}

// Load reads a session file. The messages list must be present and non-empty.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read chat file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidSession, err)
	}
	if len(session.Messages) == 0 {
		return nil, ErrInvalidSession
	}
	return &session, nil
}
