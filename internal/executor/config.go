package executor

import "github.com/quocvuong92/ai-chat/internal/constants"

// SafetyConfig is the execution policy for one platform
type SafetyConfig struct {
	Enabled           bool     `yaml:"enabled"`
	CommandPrefix     string   `yaml:"command_prefix"`
	DangerousCommands []string `yaml:"dangerous_commands"`
	AllowedCommands   []string `yaml:"allowed_commands"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	MaxOutputLength   int      `yaml:"max_output_length"`
}

// DefaultSafetyConfig returns the policy used before any config file is read:
// execution disabled, no lists, "!" prefix, 30 second timeout, 10000 characters
// per stream.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		Enabled:         false,
		CommandPrefix:   constants.DefaultCommandPrefix,
		TimeoutSeconds:  constants.DefaultCommandTimeoutSeconds,
		MaxOutputLength: constants.DefaultMaxOutputLength,
	}
}

// normalized fills zero values with defaults and copies the lists
func (c SafetyConfig) normalized() SafetyConfig {
	if c.CommandPrefix == "" {
		c.CommandPrefix = constants.DefaultCommandPrefix
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = constants.DefaultCommandTimeoutSeconds
	}
	if c.MaxOutputLength <= 0 {
		c.MaxOutputLength = constants.DefaultMaxOutputLength
	}
	c.DangerousCommands = append([]string(nil), c.DangerousCommands...)
	c.AllowedCommands = append([]string(nil), c.AllowedCommands...)
	return c
}

// Mode is whether command execution is currently permitted
type Mode int

const (
	ModeDisabled Mode = iota
	ModeEnabled
)

func (m Mode) String() string {
	if m == ModeEnabled {
		return "enabled"
	}
	return "disabled"
}

func modeOf(enabled bool) Mode {
	if enabled {
		return ModeEnabled
	}
	return ModeDisabled
}
