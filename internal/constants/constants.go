// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// AppName is used for config, data and history directories
const AppName = "ai-chat"

// Timeout constants used across the application
const (
	// DefaultAPITimeout is the timeout for AI API requests (streaming can take a while)
	DefaultAPITimeout = 120 * time.Second
	// DefaultCommandTimeoutSeconds is the wall-clock limit for shell commands
	DefaultCommandTimeoutSeconds = 30
	// CommandKillGracePeriod is how long a timed-out command gets between
	// SIGTERM and SIGKILL
	CommandKillGracePeriod = 5 * time.Second
)

// Command execution defaults
const (
	DefaultCommandPrefix   = "!"
	DefaultMaxOutputLength = 10000
)

// Markers the model uses to suggest shell commands inside a reply.
// System prompts in the wild depend on these exact strings.
const (
	CommandBlockStart = "[BASH_COMMAND_START]"
	CommandBlockEnd   = "[BASH_COMMAND_END]"
)

// Application defaults
const (
	DefaultProvider        = "ecnu"
	DefaultTemperature     = 0.3
	SummaryTemperature     = 0.1
	DefaultPromptsDir      = "prompts"
	DefaultSavedChatsDir   = "saved_chats"
	DefaultCommandPrompt   = "ecnu-bash.md"
	DefaultSystemMessage   = "You are a helpful assistant."
	MaxSummaryLength       = 50
	MaxEchoedMessageLength = 300
	MaxHistoryEntries      = 50
)

// MaxAttachmentSize is the maximum size of a text attachment (512KB)
const MaxAttachmentSize = 512 * 1024
