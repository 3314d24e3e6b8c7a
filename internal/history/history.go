package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/conversation"
)

// HistoryFileName is the name of the history file in the data directory
const HistoryFileName = "history.json"

// ConversationEntry is one remembered conversation
type ConversationEntry struct {
	ID        string                 `json:"id"`
	Model     string                 `json:"model"`
	Provider  string                 `json:"provider"`
	Messages  []conversation.Message `json:"messages"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// History keeps the most recent conversations, newest first
type History struct {
	mu            sync.Mutex
	path          string
	maxEntries    int
	conversations []ConversationEntry
	now           func() time.Time
}

// historyFile is the on-disk layout
type historyFile struct {
	Conversations []ConversationEntry `json:"conversations"`
}

// NewConversationID returns a fresh conversation ID
func NewConversationID() string {
	return uuid.NewString()
}

// DefaultPath returns $XDG_DATA_HOME/ai-chat/history.json, falling back to
// ~/.local/share/ai-chat/history.json
func DefaultPath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, constants.AppName, HistoryFileName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share", constants.AppName, HistoryFileName)
	}
	return filepath.Join(".", "."+constants.AppName, HistoryFileName)
}

// NewHistory creates a history stored at the default path
func NewHistory() *History {
	return NewHistoryAt(DefaultPath())
}

// NewHistoryAt creates a history stored at path
func NewHistoryAt(path string) *History {
	return &History{
		path:       path,
		maxEntries: constants.MaxHistoryEntries,
		now:        time.Now,
	}
}

// Path returns the history file location
func (h *History) Path() string {
	return h.path
}

// Load reads the history from disk. A missing file is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.conversations = nil
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}

	var stored historyFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse history %s: %w", h.path, err)
	}
	h.conversations = stored.Conversations
	h.trim()
	return nil
}

// Save writes the history to disk, replacing the file atomically
func (h *History) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(historyFile{Conversations: h.conversations}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// AddConversation adds a new conversation to history, or updates it when
// the ID is already known. The entry moves to the front either way.
func (h *History) AddConversation(id, model, provider string, messages []conversation.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	entry := ConversationEntry{
		ID:        id,
		Model:     model,
		Provider:  provider,
		Messages:  append([]conversation.Message(nil), messages...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if i := h.indexOf(id); i >= 0 {
		entry.CreatedAt = h.conversations[i].CreatedAt
		h.conversations = append(h.conversations[:i], h.conversations[i+1:]...)
	}
	h.conversations = append([]ConversationEntry{entry}, h.conversations...)
	h.trim()
}

// UpdateConversation updates an existing conversation
func (h *History) UpdateConversation(id string, messages []conversation.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(id)
	if i < 0 {
		return false
	}
	h.conversations[i].Messages = append([]conversation.Message(nil), messages...)
	h.conversations[i].UpdatedAt = h.now()
	return true
}

// GetConversation retrieves a conversation by ID
func (h *History) GetConversation(id string) *ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.indexOf(id); i >= 0 {
		entry := h.conversations[i]
		return &entry
	}
	return nil
}

// GetLastConversation returns the most recent conversation
func (h *History) GetLastConversation() *ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conversations) == 0 {
		return nil
	}
	entry := h.conversations[0]
	return &entry
}

// GetRecentConversations returns the N most recent conversations
func (h *History) GetRecentConversations(n int) []ConversationEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.conversations) {
		n = len(h.conversations)
	}
	if n <= 0 {
		return nil
	}
	return append([]ConversationEntry(nil), h.conversations[:n]...)
}

// Clear removes all conversation history
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations = nil
}

func (h *History) indexOf(id string) int {
	for i, c := range h.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (h *History) trim() {
	if h.maxEntries > 0 && len(h.conversations) > h.maxEntries {
		h.conversations = h.conversations[:h.maxEntries]
	}
}
