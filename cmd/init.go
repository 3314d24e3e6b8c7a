package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/ai-chat/internal/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long: `Create a commented default config file in the user config directory,
together with the prompts and saved_chats directories next to it.

An existing config file is never overwritten.

Examples:
  ai-chat init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration status",
		Long: `Show which config file is in use, the selected provider and model,
whether an API key is available and whether shell commands are enabled.

Examples:
  ai-chat status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runInit(out io.Writer) error {
	path, err := config.CreateDefaultConfigFile()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created config file: %s\n", path)
	fmt.Fprintln(out, "Put your system prompts in the prompts directory next to it,")
	fmt.Fprintln(out, "and set the API key variable named by api_key_env (or add it to a .env file).")
	return nil
}

func runStatus(out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration Status:")
	fmt.Fprintln(out)

	if cfg.Path != "" {
		fmt.Fprintf(out, "  Config file: %s\n", cfg.Path)
	} else {
		fmt.Fprintf(out, "  Config file: none (built-in defaults)\n")
		fmt.Fprintf(out, "  Run 'ai-chat init' to create one\n")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "  Provider: %s (%v)\n", cfg.Provider, err)
		return nil
	}
	fmt.Fprintf(out, "  Provider: %s (%s)\n", cfg.Provider, cfg.BaseURL())
	fmt.Fprintf(out, "  Model: %s (temperature %g)\n", cfg.Model, cfg.Temperature)
	fmt.Fprintf(out, "  Available models: %s\n", cfg.GetAvailableModelsString())

	keyEnv := cfg.ProviderConfig().APIKeyEnv
	keys := config.NewKeyRotator(keyEnv)
	if keys.HasKeys() {
		fmt.Fprintf(out, "  API key: %d key(s) in %s\n", keys.GetKeyCount(), keyEnv)
	} else {
		fmt.Fprintf(out, "  API key: not set (export %s)\n", keyEnv)
	}

	safety := cfg.Safety()
	mode := "disabled"
	if safety.Enabled {
		mode = "enabled"
	}
	fmt.Fprintf(out, "  Shell commands (%s): %s, prefix %q\n", runtime.GOOS, mode, safety.CommandPrefix)

	if prompt := cfg.PromptPath(safety.Enabled); prompt != "" {
		if _, err := os.Stat(prompt); err != nil {
			fmt.Fprintf(out, "  System prompt: %s (missing)\n", prompt)
		} else {
			fmt.Fprintf(out, "  System prompt: %s\n", prompt)
		}
	}
	fmt.Fprintf(out, "  Saved chats: %s\n", cfg.SavedChatsDir())

	return nil
}
