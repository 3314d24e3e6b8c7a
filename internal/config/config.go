package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/executor"
)

// Environment variable names
const (
	EnvProvider = "AI_CHAT_PROVIDER"
	EnvModel    = "AI_CHAT_MODEL"
	EnvLogLevel = "AI_CHAT_LOG_LEVEL"
)

// Defaults - re-exported from constants for convenience
const (
	DefaultSystemMessage = constants.DefaultSystemMessage
	DefaultTemperature   = constants.DefaultTemperature
	DefaultAPITimeout    = constants.DefaultAPITimeout
)

// Errors
var (
	ErrProviderNotFound   = errors.New("provider not found in config")
	ErrModelNotFound      = errors.New("model not found in provider config")
	ErrAPIKeyNotFound     = errors.New("API key not found")
	ErrNoVisionModel      = errors.New("provider has no vision model for image input")
	ErrPromptNotFound     = errors.New("prompt file not found")
	ErrEmptyPrompt        = errors.New("prompt file is empty")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrNoAvailableKeys    = errors.New("all API keys exhausted")
)

// Error codes that should trigger key rotation
var RotatableErrorCodes = []int{401, 403, 429}

// KeyRotator manages a pool of API keys with rotation support
type KeyRotator struct {
	keys       []string
	currentIdx int
	currentKey string
}

// NewKeyRotator creates a new KeyRotator from an environment variable
func NewKeyRotator(envVar string) *KeyRotator {
	keys := getKeysFromEnv(envVar)
	kr := &KeyRotator{keys: keys}
	if len(keys) > 0 {
		kr.currentKey = keys[0]
	}
	return kr
}

// GetCurrentKey returns the current active API key
func (kr *KeyRotator) GetCurrentKey() string {
	return kr.currentKey
}

// GetKeyCount returns the total number of keys
func (kr *KeyRotator) GetKeyCount() int {
	return len(kr.keys)
}

// GetCurrentIndex returns the current key index (0-based)
func (kr *KeyRotator) GetCurrentIndex() int {
	return kr.currentIdx
}

// HasKeys returns true if there are any keys configured
func (kr *KeyRotator) HasKeys() bool {
	return len(kr.keys) > 0
}

// Rotate moves to the next available API key
func (kr *KeyRotator) Rotate() (string, error) {
	nextIndex := kr.currentIdx + 1
	if nextIndex >= len(kr.keys) {
		return "", ErrNoAvailableKeys
	}
	kr.currentIdx = nextIndex
	kr.currentKey = kr.keys[nextIndex]
	return kr.currentKey, nil
}

// getKeysFromEnv retrieves API keys from an environment variable (comma-separated)
func getKeysFromEnv(envVar string) []string {
	if envVar == "" {
		return nil
	}
	keysEnv := os.Getenv(envVar)
	if keysEnv == "" {
		return nil
	}
	var result []string
	for _, key := range strings.Split(keysEnv, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			result = append(result, key)
		}
	}
	return result
}

// ParseModelSpec splits "provider:model" into its parts. A spec without a
// colon names only a model.
func ParseModelSpec(spec string) (provider, model string) {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, ":"); i >= 0 {
		return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])
	}
	return "", spec
}

// Config holds the application configuration
type Config struct {
	File *FileConfig
	Path string // config file in use, empty for built-in defaults
	Dir  string // base directory for relative paths

	// Resolved selection
	Provider    string
	Model       string
	Temperature float64
	Keys        *KeyRotator

	// Flags
	PromptFile     string
	Files          []string
	Images         []string
	LoadFile       string
	PrintFile      string
	SilentText     string
	Render         bool
	Verbose        bool
	temperatureSet bool
}

// NewConfig creates a new Config with defaults
func NewConfig() *Config {
	return &Config{
		File: DefaultFileConfig(),
		Dir:  DefaultConfigDir(),
	}
}

// Load reads the config file and .env files and applies the environment
// overrides. Flags are applied afterwards by the caller.
func Load() (*Config, error) {
	fc, path, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}

	c := NewConfig()
	c.File = fc
	c.Path = path
	if path != "" {
		if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
			c.Dir = abs
		} else {
			c.Dir = filepath.Dir(path)
		}
	}

	LoadEnv(c.Dir, ".")
	c.Provider = strings.TrimSpace(os.Getenv(EnvProvider))
	c.Model = strings.TrimSpace(os.Getenv(EnvModel))
	return c, nil
}

// SetModelSpec applies a -m value. An empty part keeps the current choice.
func (c *Config) SetModelSpec(spec string) {
	provider, model := ParseModelSpec(spec)
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		c.Model = model
	}
}

// SetTemperature fixes the temperature so model defaults no longer apply
func (c *Config) SetTemperature(t float64) {
	c.Temperature = t
	c.temperatureSet = true
}

// TemperatureSet reports whether the temperature was given explicitly
func (c *Config) TemperatureSet() bool {
	return c.temperatureSet
}

// Validate resolves provider, model and temperature against the config file.
// It does not require an API key; see LoadAPIKey.
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = c.File.DefaultProvider
	}
	if c.Provider == "" {
		c.Provider = constants.DefaultProvider
	}
	pc, ok := c.File.Providers[c.Provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, c.Provider)
	}

	if c.Model == "" {
		c.Model = pc.DefaultModel
	}
	if len(c.Images) > 0 {
		if pc.VisionModel == "" {
			return fmt.Errorf("%w: %s", ErrNoVisionModel, c.Provider)
		}
		c.Model = pc.VisionModel
	}
	if !c.ValidateModel(c.Model) {
		return fmt.Errorf("%w: %s (available: %s)", ErrModelNotFound, c.Model, c.GetAvailableModelsString())
	}

	if !c.temperatureSet {
		c.Temperature = c.ModelTemperature(c.Model)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return ErrInvalidTemperature
	}
	return nil
}

// LoadAPIKey reads the provider's API keys from the environment
func (c *Config) LoadAPIKey() error {
	pc := c.ProviderConfig()
	c.Keys = NewKeyRotator(pc.APIKeyEnv)
	if !c.Keys.HasKeys() {
		if pc.APIKeyEnv == "" {
			return fmt.Errorf("%w: provider %s has no api_key_env", ErrAPIKeyNotFound, c.Provider)
		}
		return fmt.Errorf("%w. Set %s environment variable", ErrAPIKeyNotFound, pc.APIKeyEnv)
	}
	return nil
}

// ProviderConfig returns the selected provider's settings
func (c *Config) ProviderConfig() ProviderConfig {
	return c.File.Providers[c.Provider]
}

// BaseURL returns the selected provider's endpoint without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimSuffix(c.ProviderConfig().BaseURL, "/")
}

// SummaryModel is the model used to name saved chats
func (c *Config) SummaryModel() string {
	if m := c.ProviderConfig().SummaryModel; m != "" {
		return m
	}
	return c.Model
}

// VisionModel returns the provider's image-capable model, if any
func (c *Config) VisionModel() string {
	return c.ProviderConfig().VisionModel
}

// ModelTemperature returns the configured temperature of a model
func (c *Config) ModelTemperature(model string) float64 {
	if mc, ok := c.ProviderConfig().Models[model]; ok && mc.Temperature != nil {
		return *mc.Temperature
	}
	return DefaultTemperature
}

// ValidateModel checks if the given model is configured for the provider
func (c *Config) ValidateModel(model string) bool {
	models := c.ProviderConfig().Models
	if len(models) == 0 {
		return model != ""
	}
	_, ok := models[model]
	return ok
}

// AvailableModels lists the provider's models in name order
func (c *Config) AvailableModels() []string {
	models := c.ProviderConfig().Models
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAvailableModelsString returns a formatted string of available models
func (c *Config) GetAvailableModelsString() string {
	names := c.AvailableModels()
	if len(names) == 0 {
		return "(not configured)"
	}
	return strings.Join(names, ", ")
}

// Safety returns the command execution policy for this platform
func (c *Config) Safety() executor.SafetyConfig {
	return c.SafetyFor(runtime.GOOS)
}

// SafetyFor returns the policy for goos: the windows section on Windows and
// the linux section everywhere else
func (c *Config) SafetyFor(goos string) executor.SafetyConfig {
	if goos == "windows" {
		return c.File.Commands.Windows
	}
	return c.File.Commands.Linux
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// PromptsDir returns the absolute prompts directory
func (c *Config) PromptsDir() string {
	return c.resolve(c.File.Paths.PromptsDir)
}

// SavedChatsDir returns the directory saved chats are written to
func (c *Config) SavedChatsDir() string {
	return c.resolve(c.File.Paths.SavedChatsDir)
}

// LogFile returns the configured log file, or empty for stderr
func (c *Config) LogFile() string {
	return c.resolve(c.File.Logging.File)
}

// LogLevel returns the log level, letting the environment override the file
func (c *Config) LogLevel() string {
	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		return lvl
	}
	return c.File.Logging.Level
}

// PromptPath picks the system prompt file. An explicit -p file wins. While
// command execution is on, the command prompt is used when it exists;
// otherwise the model's own prompt. It returns "" when the model has none.
func (c *Config) PromptPath(commandMode bool) string {
	if c.PromptFile != "" {
		return c.PromptFile
	}
	dir := c.PromptsDir()
	if commandMode && c.File.Paths.CommandPrompt != "" {
		path := filepath.Join(dir, c.File.Paths.CommandPrompt)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if mc, ok := c.ProviderConfig().Models[c.Model]; ok && mc.Prompt != "" {
		return filepath.Join(dir, mc.Prompt)
	}
	return ""
}

// SystemPrompt loads the system prompt for the current model. A model
// without a prompt file gets the default system message.
func (c *Config) SystemPrompt(commandMode bool) (string, error) {
	path := c.PromptPath(commandMode)
	if path == "" {
		return DefaultSystemMessage, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPromptNotFound, path)
		}
		return "", fmt.Errorf("failed to read prompt %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyPrompt, path)
	}
	return string(data), nil
}
