package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Helper to set environment variable for test and restore after
func setEnvForTest(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

// Helper to unset environment variable for test and restore after
func unsetEnvForTest(t *testing.T, key string) {
	t.Helper()
	old, existed := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, old)
		}
	})
}

// runInTempDir runs the test in a temporary directory to isolate from config files
func runInTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working dir: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change to temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(oldWd)
	})

	// Override HOME and XDG_CONFIG_HOME to prevent loading user config files
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	unsetEnvForTest(t, EnvProvider)
	unsetEnvForTest(t, EnvModel)
	unsetEnvForTest(t, EnvLogLevel)
	return tmpDir
}

// =============================================================================
// KeyRotator Tests
// =============================================================================

func TestNewKeyRotator_SingleKey(t *testing.T) {
	setEnvForTest(t, "TEST_KEYS", "key1")

	kr := NewKeyRotator("TEST_KEYS")

	if !kr.HasKeys() {
		t.Error("HasKeys() should return true")
	}
	if kr.GetKeyCount() != 1 {
		t.Errorf("GetKeyCount() = %d, want 1", kr.GetKeyCount())
	}
	if kr.GetCurrentKey() != "key1" {
		t.Errorf("GetCurrentKey() = %q, want %q", kr.GetCurrentKey(), "key1")
	}
}

func TestNewKeyRotator_Parsing(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"multiple", "key1,key2,key3", []string{"key1", "key2", "key3"}},
		{"whitespace", " key1 , key2 ", []string{"key1", "key2"}},
		{"empty entries", "key1,,key2,", []string{"key1", "key2"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvForTest(t, "TEST_KEYS", tt.value)
			kr := NewKeyRotator("TEST_KEYS")
			if kr.GetKeyCount() != len(tt.want) {
				t.Fatalf("GetKeyCount() = %d, want %d", kr.GetKeyCount(), len(tt.want))
			}
			for i, want := range tt.want {
				if kr.keys[i] != want {
					t.Errorf("keys[%d] = %q, want %q", i, kr.keys[i], want)
				}
			}
		})
	}
}

func TestKeyRotator_Rotate(t *testing.T) {
	setEnvForTest(t, "TEST_KEYS", "key1,key2")

	kr := NewKeyRotator("TEST_KEYS")
	key, err := kr.Rotate()
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if key != "key2" || kr.GetCurrentIndex() != 1 {
		t.Errorf("Rotate() = %q at %d, want key2 at 1", key, kr.GetCurrentIndex())
	}
	if _, err := kr.Rotate(); !errors.Is(err, ErrNoAvailableKeys) {
		t.Errorf("Rotate() past the end error = %v, want ErrNoAvailableKeys", err)
	}
}

func TestKeyRotator_NoEnvVarName(t *testing.T) {
	kr := NewKeyRotator("")
	if kr.HasKeys() {
		t.Error("an empty variable name should give no keys")
	}
}

// =============================================================================
// ParseModelSpec Tests
// =============================================================================

func TestParseModelSpec(t *testing.T) {
	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"ecnu:ecnu-max", "ecnu", "ecnu-max"},
		{"ecnu-reasoner", "", "ecnu-reasoner"},
		{" openai : gpt-4o ", "openai", "gpt-4o"},
		{"ecnu:", "ecnu", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			provider, model := ParseModelSpec(tt.spec)
			if provider != tt.wantProvider || model != tt.wantModel {
				t.Errorf("ParseModelSpec(%q) = (%q, %q), want (%q, %q)",
					tt.spec, provider, model, tt.wantProvider, tt.wantModel)
			}
		})
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestConfig_Validate_Defaults(t *testing.T) {
	c := NewConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Provider != "ecnu" || c.Model != "ecnu-max" {
		t.Errorf("selection = %s:%s, want ecnu:ecnu-max", c.Provider, c.Model)
	}
	if c.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", c.Temperature)
	}
}

func TestConfig_Validate_ModelTemperature(t *testing.T) {
	c := NewConfig()
	c.SetModelSpec("ecnu-reasoner")
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Temperature != 0.6 {
		t.Errorf("Temperature = %v, want the model default 0.6", c.Temperature)
	}
}

func TestConfig_Validate_ExplicitTemperature(t *testing.T) {
	c := NewConfig()
	c.SetModelSpec("ecnu:ecnu-reasoner")
	c.SetTemperature(1.1)
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Temperature != 1.1 || !c.TemperatureSet() {
		t.Errorf("Temperature = %v, want 1.1", c.Temperature)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Config)
		want  error
	}{
		{"unknown provider", func(c *Config) { c.SetModelSpec("nope:ecnu-max") }, ErrProviderNotFound},
		{"unknown model", func(c *Config) { c.SetModelSpec("gpt-99") }, ErrModelNotFound},
		{"temperature too high", func(c *Config) { c.SetTemperature(2.5) }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.SetTemperature(-0.1) }, ErrInvalidTemperature},
		{"images without vision model", func(c *Config) {
			pc := c.File.Providers["ecnu"]
			pc.VisionModel = ""
			c.File.Providers["ecnu"] = pc
			c.Images = []string{"a.jpg"}
		}, ErrNoVisionModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.setup(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Validate_ImagesSwitchToVisionModel(t *testing.T) {
	c := NewConfig()
	c.Images = []string{"photo.jpg"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Model != "ecnu-vl" {
		t.Errorf("Model = %q, want ecnu-vl", c.Model)
	}
}

func TestConfig_LoadAPIKey(t *testing.T) {
	c := NewConfig()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	unsetEnvForTest(t, "CHATECNU_API_KEY")
	if err := c.LoadAPIKey(); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("LoadAPIKey() error = %v, want ErrAPIKeyNotFound", err)
	}

	setEnvForTest(t, "CHATECNU_API_KEY", "sk-1,sk-2")
	if err := c.LoadAPIKey(); err != nil {
		t.Fatalf("LoadAPIKey() error = %v", err)
	}
	if c.Keys.GetCurrentKey() != "sk-1" || c.Keys.GetKeyCount() != 2 {
		t.Errorf("keys = %q (%d)", c.Keys.GetCurrentKey(), c.Keys.GetKeyCount())
	}
}

func TestConfig_SummaryModel(t *testing.T) {
	c := NewConfig()
	c.SetModelSpec("ecnu-reasoner")
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := c.SummaryModel(); got != "ecnu-max" {
		t.Errorf("SummaryModel() = %q, want ecnu-max", got)
	}

	pc := c.File.Providers["ecnu"]
	pc.SummaryModel = ""
	c.File.Providers["ecnu"] = pc
	if got := c.SummaryModel(); got != "ecnu-reasoner" {
		t.Errorf("SummaryModel() without config = %q, want the current model", got)
	}
}

func TestConfig_AvailableModels(t *testing.T) {
	c := NewConfig()
	c.Provider = "ecnu"
	want := "ecnu-max, ecnu-reasoner, ecnu-vl"
	if got := c.GetAvailableModelsString(); got != want {
		t.Errorf("GetAvailableModelsString() = %q, want %q", got, want)
	}
}

func TestConfig_SafetyFor(t *testing.T) {
	c := NewConfig()
	c.File.Commands.Linux.CommandPrefix = "$"
	c.File.Commands.Windows.CommandPrefix = ">"

	tests := []struct {
		goos string
		want string
	}{
		{"linux", "$"},
		{"darwin", "$"},
		{"freebsd", "$"},
		{"windows", ">"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := c.SafetyFor(tt.goos).CommandPrefix; got != tt.want {
				t.Errorf("SafetyFor(%q).CommandPrefix = %q, want %q", tt.goos, got, tt.want)
			}
		})
	}
}

func TestConfig_LogLevel(t *testing.T) {
	c := NewConfig()
	unsetEnvForTest(t, EnvLogLevel)
	if got := c.LogLevel(); got != "none" {
		t.Errorf("LogLevel() = %q, want none", got)
	}
	setEnvForTest(t, EnvLogLevel, "debug")
	if got := c.LogLevel(); got != "debug" {
		t.Errorf("LogLevel() with env = %q, want debug", got)
	}
}

// =============================================================================
// System prompt Tests
// =============================================================================

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_SystemPrompt(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	prompts := c.PromptsDir()
	writePrompt(t, prompts, "ecnu.md", "chat prompt")

	got, err := c.SystemPrompt(false)
	if err != nil || got != "chat prompt" {
		t.Errorf("SystemPrompt(false) = %q, %v", got, err)
	}

	// Command mode falls back to the model prompt until the command prompt exists
	got, err = c.SystemPrompt(true)
	if err != nil || got != "chat prompt" {
		t.Errorf("SystemPrompt(true) without command prompt = %q, %v", got, err)
	}

	writePrompt(t, prompts, "ecnu-bash.md", "command prompt")
	got, err = c.SystemPrompt(true)
	if err != nil || got != "command prompt" {
		t.Errorf("SystemPrompt(true) = %q, %v", got, err)
	}
}

func TestConfig_SystemPrompt_ExplicitFile(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	c.PromptFile = writePrompt(t, t.TempDir(), "custom.md", "custom")

	got, err := c.SystemPrompt(true)
	if err != nil || got != "custom" {
		t.Errorf("SystemPrompt() = %q, %v; want the -p file", got, err)
	}
}

func TestConfig_SystemPrompt_Errors(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SystemPrompt(false); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("missing prompt error = %v, want ErrPromptNotFound", err)
	}

	writePrompt(t, c.PromptsDir(), "ecnu.md", "  \n\t")
	if _, err := c.SystemPrompt(false); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("empty prompt error = %v, want ErrEmptyPrompt", err)
	}
}

func TestConfig_SystemPrompt_NoModelPrompt(t *testing.T) {
	c := NewConfig()
	c.Dir = t.TempDir()
	c.Provider = "ecnu"
	c.Model = "ecnu-max"
	pc := c.File.Providers["ecnu"]
	pc.Models["ecnu-max"] = ModelConfig{}
	c.File.Providers["ecnu"] = pc

	got, err := c.SystemPrompt(false)
	if err != nil || got != DefaultSystemMessage {
		t.Errorf("SystemPrompt() = %q, %v; want the default message", got, err)
	}
}

func TestConfig_AbsolutePathsKept(t *testing.T) {
	c := NewConfig()
	c.Dir = "/base"
	abs := filepath.Join(t.TempDir(), "chats")
	c.File.Paths.SavedChatsDir = abs

	if got := c.SavedChatsDir(); got != abs {
		t.Errorf("SavedChatsDir() = %q, want %q", got, abs)
	}
	if got := c.PromptsDir(); !strings.HasPrefix(got, "/base") {
		t.Errorf("PromptsDir() = %q, want it under /base", got)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_NoConfigFile(t *testing.T) {
	runInTempDir(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Path != "" {
		t.Errorf("Path = %q, want empty", c.Path)
	}
	if c.File.DefaultProvider != "ecnu" {
		t.Errorf("DefaultProvider = %q, want ecnu", c.File.DefaultProvider)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	runInTempDir(t)
	setEnvForTest(t, EnvProvider, "ecnu")
	setEnvForTest(t, EnvModel, "ecnu-reasoner")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Provider != "ecnu" || c.Model != "ecnu-reasoner" {
		t.Errorf("selection = %s:%s", c.Provider, c.Model)
	}

	// Flags win over the environment
	c.SetModelSpec("ecnu-max")
	if c.Model != "ecnu-max" || c.Provider != "ecnu" {
		t.Errorf("after -m selection = %s:%s", c.Provider, c.Model)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	dir := runInTempDir(t)
	unsetEnvForTest(t, "CHATECNU_API_KEY")

	createTempConfigFile(t, dir, "default_provider: ecnu\n")
	if err := os.WriteFile(filepath.Join(dir, ".ai-chat", ".env"), []byte("CHATECNU_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CHATECNU_API_KEY") })

	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadAPIKey(); err != nil {
		t.Fatalf("LoadAPIKey() error = %v", err)
	}
	if c.Keys.GetCurrentKey() != "from-dotenv" {
		t.Errorf("key = %q, want from-dotenv", c.Keys.GetCurrentKey())
	}
	if !strings.HasSuffix(c.Dir, ".ai-chat") {
		t.Errorf("Dir = %q, want the config file directory", c.Dir)
	}
}
