// Package conversation holds the chat transcript model: roles, messages,
// attachments and the JSON session files written by the save command.
package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message
type Role int

const (
	RoleSystem Role = iota
	RoleUser
	RoleAssistant
)

// String returns the wire tag of the role
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// ParseRole converts a wire tag to a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "system":
		return RoleSystem, nil
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (r Role) MarshalText() ([]byte, error) {
	if r < RoleSystem || r > RoleAssistant {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Content part types used in multimodal messages
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// ImageURL carries an image reference, usually a data URL
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// Message is a single transcript entry. Content holds plain text; Parts is set
// instead for multimodal messages.
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// NewMessage creates a plain text message
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Text returns the plain content, or the first text part of a multimodal message
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	for _, p := range m.Parts {
		if p.Type == PartText {
			return p.Text
		}
	}
	return ""
}

// HasImage reports whether the message carries an image part
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartImageURL {
			return true
		}
	}
	return false
}

type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON writes content as a string, or as an array of parts for
// multimodal messages. HTML characters are kept as they are.
func (m Message) MarshalJSON() ([]byte, error) {
	var content []byte
	var err error
	if len(m.Parts) > 0 {
		content, err = marshalNoEscape(m.Parts)
	} else {
		content, err = marshalNoEscape(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return marshalNoEscape(wireMessage{Role: m.Role, Content: content})
}

// marshalNoEscape is json.Marshal without HTML escaping
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON accepts content as a string, an array of parts, or null
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	msg := Message{Role: w.Role}
	raw := bytes.TrimSpace(w.Content)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &msg.Parts); err != nil {
			return fmt.Errorf("invalid content parts: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &msg.Content); err != nil {
			return fmt.Errorf("invalid content: %w", err)
		}
	}
	*m = msg
	return nil
}
