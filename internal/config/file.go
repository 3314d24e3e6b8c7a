package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/display"
	"github.com/quocvuong92/ai-chat/internal/executor"
)

// ConfigFileName is the name of the config file
const ConfigFileName = "config.yaml"

// FileConfig represents the configuration file structure
type FileConfig struct {
	DefaultProvider string                    `yaml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	Paths           PathsConfig               `yaml:"paths"`
	Colors          display.Colors            `yaml:"colors"`
	Commands        CommandsConfig            `yaml:"commands"`
	Logging         LoggingConfig             `yaml:"logging"`
}

// ProviderConfig describes one OpenAI-compatible endpoint
type ProviderConfig struct {
	BaseURL      string                 `yaml:"base_url"`
	APIKeyEnv    string                 `yaml:"api_key_env"`
	VisionModel  string                 `yaml:"vision_model,omitempty"`
	SummaryModel string                 `yaml:"summary_model,omitempty"`
	DefaultModel string                 `yaml:"default_model"`
	Models       map[string]ModelConfig `yaml:"models"`
}

// ModelConfig holds per-model defaults. A nil Temperature means the
// application default.
type ModelConfig struct {
	Temperature *float64 `yaml:"temperature,omitempty"`
	Prompt      string   `yaml:"prompt,omitempty"`
}

// PathsConfig holds directories, relative to the config directory unless absolute
type PathsConfig struct {
	PromptsDir    string `yaml:"prompts_dir"`
	SavedChatsDir string `yaml:"saved_chats_dir"`
	CommandPrompt string `yaml:"command_prompt"`
}

// CommandsConfig holds the command execution policy per platform
type CommandsConfig struct {
	Linux   executor.SafetyConfig `yaml:"linux"`
	Windows executor.SafetyConfig `yaml:"windows"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func float(v float64) *float64 { return &v }

// DefaultFileConfig returns the configuration used when no file exists.
// Values read from a file are decoded on top of it.
func DefaultFileConfig() *FileConfig {
	linux := executor.DefaultSafetyConfig()
	linux.DangerousCommands = []string{"rm", "dd", "mkfs", "shutdown", "reboot", "halt", "poweroff", "kill", "killall", "chmod", "chown", "sudo", "su"}

	windows := executor.DefaultSafetyConfig()
	windows.DangerousCommands = []string{"del", "erase", "rd", "rmdir", "format", "diskpart", "shutdown", "taskkill", "reg"}

	return &FileConfig{
		DefaultProvider: constants.DefaultProvider,
		Providers: map[string]ProviderConfig{
			constants.DefaultProvider: {
				BaseURL:      "https://chat.ecnu.edu.cn/open/api/v1",
				APIKeyEnv:    "CHATECNU_API_KEY",
				VisionModel:  "ecnu-vl",
				SummaryModel: "ecnu-max",
				DefaultModel: "ecnu-max",
				Models: map[string]ModelConfig{
					"ecnu-max":      {Temperature: float(0.3), Prompt: "ecnu.md"},
					"ecnu-reasoner": {Temperature: float(0.6), Prompt: "ecnu-r1.md"},
					"ecnu-vl":       {Temperature: float(0.3), Prompt: "ecnu.md"},
				},
			},
		},
		Paths: PathsConfig{
			PromptsDir:    constants.DefaultPromptsDir,
			SavedChatsDir: constants.DefaultSavedChatsDir,
			CommandPrompt: constants.DefaultCommandPrompt,
		},
		Colors: display.DefaultColors(),
		Commands: CommandsConfig{
			Linux:   linux,
			Windows: windows,
		},
		Logging: LoggingConfig{
			Level:  "none",
			Format: "text",
		},
	}
}

// DefaultConfigDir is the per-user config directory, also used as the base
// for relative paths when no config file is found
func DefaultConfigDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, constants.AppName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", constants.AppName)
	}
	return "."
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	// 1. Current directory
	paths = append(paths, filepath.Join(".", "."+constants.AppName, ConfigFileName))

	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}

	// 3. Home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}

	return paths
}

// LoadConfigFile loads the first config file found. It returns the defaults
// and an empty path when there is none.
func LoadConfigFile() (*FileConfig, string, error) {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			fc, err := loadConfigFromPath(path)
			return fc, path, err
		}
	}
	return DefaultFileConfig(), "", nil
}

// loadConfigFromPath loads config from a specific path
func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnv loads .env files from the given directories. Variables already set
// in the environment win over the files.
func LoadEnv(dirs ...string) {
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// CreateDefaultConfigFile creates a default config file at the user config directory
func CreateDefaultConfigFile() (string, error) {
	dir := DefaultConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	for _, sub := range []string{constants.DefaultPromptsDir, constants.DefaultSavedChatsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return path, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	return path, nil
}

const defaultConfigTemplate = `# AI Chat Configuration
# Location: ~/.config/ai-chat/config.yaml
# Relative paths are resolved against the directory of this file.

# Provider used when -m does not name one
default_provider: ecnu

providers:
  ecnu:
    base_url: https://chat.ecnu.edu.cn/open/api/v1
    api_key_env: CHATECNU_API_KEY   # may also be set in a .env file next to this one
    vision_model: ecnu-vl           # used when images are attached
    summary_model: ecnu-max         # used to name saved chats
    default_model: ecnu-max
    models:
      ecnu-max:
        temperature: 0.3
        prompt: ecnu.md
      ecnu-reasoner:
        temperature: 0.6
        prompt: ecnu-r1.md
      ecnu-vl:
        temperature: 0.3
        prompt: ecnu.md

  # Any OpenAI-compatible endpoint works
  # openai:
  #   base_url: https://api.openai.com/v1
  #   api_key_env: OPENAI_API_KEY
  #   default_model: gpt-4o
  #   vision_model: gpt-4o
  #   models:
  #     gpt-4o: {temperature: 0.7}

paths:
  prompts_dir: prompts
  saved_chats_dir: saved_chats
  command_prompt: ecnu-bash.md      # system prompt while command execution is on

colors:
  user: green
  program: cyan
  assistant: blue
  reasoning: yellow

# Shell command execution, per platform
commands:
  linux:
    enabled: false
    command_prefix: "!"
    dangerous_commands: [rm, dd, mkfs, shutdown, reboot, halt, poweroff, kill, killall, chmod, chown, sudo, su]
    allowed_commands: []            # when non-empty only these may run
    timeout_seconds: 30
    max_output_length: 10000
  windows:
    enabled: false
    command_prefix: "!"
    dangerous_commands: [del, erase, rd, rmdir, format, diskpart, shutdown, taskkill, reg]
    allowed_commands: []
    timeout_seconds: 30
    max_output_length: 10000

logging:
  level: none                       # debug, info, warn, error or none
  format: text                      # text or json
  # file: /tmp/ai-chat.log
`
