package conversation

// Transcript is the ordered message list sent to the model. The first entry
// is normally the system prompt.
type Transcript struct {
	messages []Message
}

// NewTranscript starts a transcript with a system prompt
func NewTranscript(systemPrompt string) *Transcript {
	return &Transcript{
		messages: []Message{NewMessage(RoleSystem, systemPrompt)},
	}
}

// Append adds a message to the end of the transcript
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the transcript
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, including the system prompt
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the final message, if any
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// SystemPrompt returns the content of the leading system message
func (t *Transcript) SystemPrompt() string {
	if len(t.messages) > 0 && t.messages[0].Role == RoleSystem {
		return t.messages[0].Content
	}
	return ""
}

// ReplaceSystem rewrites the leading system message. It reports false and
// leaves the transcript untouched when the first entry is not a system message.
func (t *Transcript) ReplaceSystem(prompt string) bool {
	if len(t.messages) == 0 || t.messages[0].Role != RoleSystem {
		return false
	}
	t.messages[0] = NewMessage(RoleSystem, prompt)
	return true
}

// Reset drops everything and starts over with a new system prompt
func (t *Transcript) Reset(systemPrompt string) {
	t.messages = []Message{NewMessage(RoleSystem, systemPrompt)}
}

// Restore replaces the transcript with loaded messages, prepending the given
// system prompt unless the first loaded message already is one.
func (t *Transcript) Restore(systemPrompt string, msgs []Message) {
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		t.messages = append([]Message(nil), msgs...)
		return
	}
	t.messages = append([]Message{NewMessage(RoleSystem, systemPrompt)}, msgs...)
}

// RemoveLast drops the final message unless it is the system prompt.
// Used when a request fails and the pending user turn must be rolled back.
func (t *Transcript) RemoveLast() {
	if len(t.messages) > 1 {
		t.messages = t.messages[:len(t.messages)-1]
	}
}
