package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/ai-chat/internal/api"
	"github.com/quocvuong92/ai-chat/internal/config"
	"github.com/quocvuong92/ai-chat/internal/display"
	"github.com/quocvuong92/ai-chat/internal/history"
	"github.com/quocvuong92/ai-chat/internal/logging"
)

// options are the raw command line flags, applied to the config after it loads
type options struct {
	model          string
	promptFile     string
	temperature    float64
	temperatureSet bool
	files          []string
	images         []string
	loadChat       string
	printChat      string
	silent         string
	render         bool
	verbose        bool
	listModels     bool
}

// App holds the application state
type App struct {
	opts options
	cfg  *config.Config

	// Overridable in tests
	out       io.Writer
	in        io.Reader
	newClient func(cfg *config.Config) (api.AIClient, error)
	history   history.HistoryManager
}

// NewApp creates a new App writing to the process streams
func NewApp() *App {
	return &App{
		out:       os.Stdout,
		in:        os.Stdin,
		newClient: api.NewClient,
	}
}

// Execute runs the root command
func Execute() {
	app := NewApp()
	code := 0

	rootCmd := &cobra.Command{
		Use:   "ai-chat",
		Short: "A terminal chat client for OpenAI-compatible models",
		Long: `ai-chat is a terminal chat client for OpenAI-compatible chat APIs.

It can attach text files and images, save and reload conversations, and run
shell commands: typed directly with the command prefix ("!" by default) or
suggested by the model, always after a safety check and your confirmation.

Examples:
  ai-chat                                  # Interactive chat
  ai-chat -m ecnu:ecnu-reasoner            # Pick provider and model
  ai-chat -f notes.md -f main.go           # Ask about files
  ai-chat -i diagram.png                   # Ask about an image
  ai-chat -l saved_chats/chat_x.json       # Continue a saved chat
  ai-chat -P saved_chats/chat_x.json       # Print a saved chat
  ai-chat -s "Summarize RFC 2119"          # One answer, then exit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			code = app.run(cmd.Context())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&app.opts.model, "model", "m", "", "Model as 'provider:model' or 'model' (default from config)")
	flags.StringVarP(&app.opts.promptFile, "prompt-file", "p", "", "Custom system prompt file")
	flags.Float64VarP(&app.opts.temperature, "temperature", "t", 0, "Sampling temperature (default from the model config)")
	flags.StringSliceVarP(&app.opts.files, "files", "f", nil, "Text files to upload as initial context")
	flags.StringSliceVarP(&app.opts.images, "images", "i", nil, "Images for the vision model")
	flags.StringVarP(&app.opts.loadChat, "load-chat", "l", "", "Saved chat file to load and continue")
	flags.StringVarP(&app.opts.printChat, "print-chat", "P", "", "Saved chat file to print")
	flags.StringVarP(&app.opts.silent, "silent", "s", "", "Answer this text without the interactive session, then exit")
	flags.BoolVarP(&app.opts.render, "render", "r", false, "Render replies as markdown")
	flags.BoolVarP(&app.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&app.opts.listModels, "list-models", false, "List the models of the selected provider")

	// Temperature 0 is a valid choice, so only an explicit flag overrides the model default
	rootCmd.PreRun = func(cmd *cobra.Command, args []string) {
		app.opts.temperatureSet = cmd.Flags().Changed("temperature")
	}

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewStatusCmd())

	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}
	if code != 0 {
		os.Exit(code)
	}
}

// run drives one invocation and returns the process exit code
func (app *App) run(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	console := display.NewConsole(app.out, app.in, display.DefaultColors())

	cfg, err := config.Load()
	if err != nil {
		console.Error("[CONFIG] " + err.Error())
		return 1
	}
	app.cfg = cfg
	app.applyOptions()
	console = display.NewConsole(app.out, app.in, cfg.File.Colors)

	closeLog, err := setupLogging(cfg)
	if err != nil {
		console.Error("[CONFIG] " + err.Error())
		return 1
	}
	defer closeLog()

	logging.Debug("Configuration loaded", logging.Fields{
		"config_file": cfg.Path,
		"provider":    cfg.Provider,
		"model":       cfg.Model,
	})

	// Printing a saved chat needs neither a provider nor a key
	if cfg.PrintFile != "" {
		if err := printChat(console, cfg.PrintFile); err != nil {
			console.Error(err.Error())
			return 1
		}
		return 0
	}

	if err := cfg.Validate(); err != nil {
		console.Error("[CONFIG] " + err.Error())
		return 1
	}

	if app.opts.listModels {
		showModels(console, cfg)
		return 0
	}

	if cfg.Render {
		if err := display.InitRenderer(); err != nil {
			logging.Warn("Failed to initialize renderer", logging.Fields{"error": err.Error()})
		}
	}

	session := newChatSession(cfg, console)
	if err := session.prepare(); err != nil {
		console.Error(err.Error())
		return 1
	}

	if err := cfg.LoadAPIKey(); err != nil {
		console.Error("[INIT] " + err.Error())
		return 1
	}
	client, err := app.newClient(cfg)
	if err != nil {
		console.Error("[INIT] " + err.Error())
		return 1
	}
	defer client.Close()
	session.client = client

	if cfg.SilentText != "" {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		if !session.runSilent(ctx, cfg.SilentText) {
			return 1
		}
		return 0
	}

	session.history = app.historyManager()
	session.runInteractive()
	return 0
}

// applyOptions copies the flags onto the loaded config
func (app *App) applyOptions() {
	cfg := app.cfg
	if app.opts.model != "" {
		cfg.SetModelSpec(app.opts.model)
	}
	if app.opts.temperatureSet {
		cfg.SetTemperature(app.opts.temperature)
	}
	cfg.PromptFile = app.opts.promptFile
	cfg.Files = app.opts.files
	cfg.Images = app.opts.images
	cfg.LoadFile = app.opts.loadChat
	cfg.PrintFile = app.opts.printChat
	cfg.SilentText = app.opts.silent
	cfg.Render = app.opts.render
	cfg.Verbose = app.opts.verbose
}

// historyManager returns the injected history or loads the default one
func (app *App) historyManager() history.HistoryManager {
	if app.history != nil {
		return app.history
	}
	hist := history.NewHistory()
	if err := hist.Load(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not load history: %v", err))
	}
	return hist
}

// setupLogging configures the default logger from the config. The returned
// function flushes the logger and closes the log file, if any.
func setupLogging(cfg *config.Config) (func(), error) {
	level := logging.ParseLevel(cfg.LogLevel())
	if cfg.LogLevel() == "" {
		level = logging.LevelNone
	}
	if cfg.Verbose {
		level = logging.LevelDebug
	}
	logging.SetLevel(level)
	logging.SetFormat(logging.ParseFormat(cfg.File.Logging.Format))

	path := cfg.LogFile()
	if path == "" {
		return func() { _ = logging.DefaultLogger.Sync() }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logging.SetOutput(f)
	return func() {
		_ = logging.DefaultLogger.Sync()
		logging.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

// showModels lists the models of the selected provider
func showModels(console *display.Console, cfg *config.Config) {
	console.Program(fmt.Sprintf("Models of provider %s:", cfg.Provider))
	for _, model := range cfg.AvailableModels() {
		marker := "  "
		if model == cfg.Model {
			marker = "* "
		}
		console.ShowContent(marker + model)
	}
}
