// shsh-chat - terminal client for the chat assistant API
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ashureev/shsh-chat/internal/app"
	"github.com/ashureev/shsh-chat/internal/chat"
	"github.com/ashureev/shsh-chat/internal/config"
	"github.com/ashureev/shsh-chat/internal/render"
	"github.com/ashureev/shsh-chat/internal/transport"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootFlags struct {
	configPath   string
	baseURL      string
	name         string
	quickStart   string
	exportFormat string
	exportDir    string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:          "shsh-chat",
		Short:        "Chat with the assistant from your terminal",
		Long:         "shsh-chat opens an interactive conversation with the chat assistant API.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&flags.baseURL, "base-url", "", "chat API base URL (overrides CHAT_API_BASE_URL)")
	f.StringVar(&flags.name, "name", "", "start chatting under this name without prompting")
	f.StringVar(&flags.quickStart, "quick-start", "", "message to pre-fill after the greeting")
	f.StringVar(&flags.exportFormat, "export-format", "", "default export format: json or yaml")
	f.StringVar(&flags.exportDir, "export-dir", "", "directory for exported conversations")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shsh-chat %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, flags rootFlags) error {
	envErr := godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, flags); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Info("No .env file found, using environment variables")
	}

	logger.Info("Starting chat client", "base_url", cfg.BaseURL, "version", Version)

	convLog, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("init conversation logger: %w", err)
	}
	defer func() {
		if err := convLog.Close(); err != nil {
			logger.Error("Failed to close conversation logger", "error", err)
		}
	}()

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	console := render.NewConsole(render.Options{
		Out:            out,
		In:             in,
		ExportDir:      cfg.ExportDir,
		NoticeDuration: cfg.NoticeDuration,
		Plain:          !isTerminal(out),
	})

	tr := transport.NewHTTP(transport.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})

	ctrl := chat.NewController(tr, console,
		chat.WithLogger(logger),
		chat.WithConversationLogger(convLog),
		chat.WithHealthTimeout(cfg.HealthTimeout),
	)

	return app.New(ctrl, console, app.Options{
		Name:         flags.name,
		Suggestions:  cfg.QuickStart,
		QuickStart:   flags.quickStart,
		ExportFormat: cfg.ExportFormat,
		Sync:         !isTerminal(in),
		Logger:       logger,
	}).Run(ctx)
}

// applyFlags overrides configuration with explicitly set flags.
func applyFlags(cfg *config.Config, flags rootFlags) error {
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.exportFormat != "" {
		cfg.ExportFormat = flags.exportFormat
	}
	if flags.exportDir != "" {
		cfg.ExportDir = flags.exportDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// newLogger builds the JSON logger. Logs go to LOG_FILE when set, else to
// stderr, so they never mix with the transcript on stdout.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	w := stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return logger, closeFn, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
