// Package app runs the interactive chat loop on top of the session controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ashureev/shsh-chat/internal/chat"
)

// Console is the terminal surface the loop drives.
type Console interface {
	chat.Renderer
	AskName() (string, error)
	ReadLine() (string, error)
	Info(text string)
	Welcome(suggestions []string)
}

// Options configures the loop.
type Options struct {
	// Name skips the name prompt when it is a valid username.
	Name string
	// Suggestions are the quick-start chips listed in the welcome banner.
	Suggestions []string
	// QuickStart pre-fills a draft right after the greeting.
	QuickStart   string
	ExportFormat string
	// Sync sends messages on the loop goroutine, so scripted input is
	// processed strictly in order.
	Sync   bool
	Logger *slog.Logger
}

const helpText = `Commands:
  /clear            clear the conversation
  /export [format]  save the conversation (json or yaml)
  /suggest <n|text> pre-fill a message; press Enter to send it
  /restart          end the session and start over
  /help             show this help
  /quit             leave the chat`

// App is the interactive chat loop.
type App struct {
	ctrl    *chat.Controller
	console Console
	opts    Options
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates the loop.
func New(ctrl *chat.Controller, console Console, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = chat.FormatJSON
	}
	return &App{
		ctrl:    ctrl,
		console: console,
		opts:    opts,
		logger:  logger,
	}
}

// Run drives the chat until the user quits, input ends or ctx is cancelled.
// In-flight sends are awaited before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.wg.Wait()

	a.console.Welcome(a.opts.Suggestions)
	a.ctrl.HealthCheck(ctx)

	if err := a.startSession(ctx); err != nil {
		return ignoreEnd(err)
	}
	a.applyQuickStart()

	for {
		line, err := a.readLine(ctx, a.console.ReadLine)
		if err != nil {
			return ignoreEnd(err)
		}
		quit, err := a.handleLine(ctx, line)
		if err != nil {
			return ignoreEnd(err)
		}
		if quit {
			a.console.Info("Goodbye!")
			return nil
		}
	}
}

func (a *App) startSession(ctx context.Context) error {
	if a.opts.Name != "" {
		if err := a.ctrl.StartSession(a.opts.Name); err == nil {
			return nil
		}
	}
	for {
		name, err := a.readLine(ctx, a.console.AskName)
		if err != nil {
			return err
		}
		err = a.ctrl.StartSession(name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, chat.ErrEmptyUsername) {
			return fmt.Errorf("start session: %w", err)
		}
	}
}

func (a *App) applyQuickStart() {
	if a.opts.QuickStart == "" {
		return
	}
	if a.ctrl.Suggest(a.opts.QuickStart) {
		a.console.Info(fmt.Sprintf("Press Enter to send: %q", a.ctrl.Draft()))
	}
}

// handleLine processes one input line and reports whether to quit.
func (a *App) handleLine(ctx context.Context, line string) (bool, error) {
	text := strings.TrimSpace(line)

	if text == "" {
		if draft := a.ctrl.TakeDraft(); draft != "" {
			a.send(ctx, draft)
			return false, nil
		}
		a.console.Focus()
		return false, nil
	}

	if !strings.HasPrefix(text, "/") {
		a.send(ctx, text)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		a.console.Info(helpText)
	case "/clear":
		if a.ctrl.ClearConversation() {
			a.console.Info("Chat cleared. Start a new conversation below.")
		}
	case "/export":
		format := a.opts.ExportFormat
		if arg != "" {
			format = strings.ToLower(arg)
		}
		if _, err := a.ctrl.SaveExport(format); err != nil {
			a.logger.Warn("Export failed", "error", err)
			a.console.ShowTransientError("Export failed: " + err.Error())
		}
	case "/suggest":
		a.suggest(arg)
	case "/restart":
		return false, a.restart(ctx)
	default:
		a.console.ShowTransientError(fmt.Sprintf("Unknown command %s, type /help", cmd))
	}
	a.console.Focus()
	return false, nil
}

func (a *App) suggest(arg string) {
	text := arg
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(a.opts.Suggestions) {
			a.console.ShowTransientError(fmt.Sprintf("No suggestion %d", n))
			return
		}
		text = a.opts.Suggestions[n-1]
	}
	if !a.ctrl.Suggest(text) {
		a.console.ShowTransientError("Nothing to suggest")
		return
	}
	a.console.Info(fmt.Sprintf("Press Enter to send: %q", a.ctrl.Draft()))
}

func (a *App) restart(ctx context.Context) error {
	ended, err := a.ctrl.EndSession()
	if errors.Is(err, chat.ErrSendInFlight) {
		a.console.ShowTransientError("Wait for the reply before restarting")
		a.console.Focus()
		return nil
	}
	if err != nil {
		return err
	}
	if !ended {
		a.console.Focus()
		return nil
	}
	a.console.Info("Conversation ended.")
	a.console.Welcome(a.opts.Suggestions)
	a.opts.Name = ""
	return a.startSession(ctx)
}

func (a *App) send(ctx context.Context, text string) {
	if a.opts.Sync {
		a.deliver(ctx, text)
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.deliver(ctx, text)
	}()
}

func (a *App) deliver(ctx context.Context, text string) {
	err := a.ctrl.SendMessage(ctx, text)
	var terr *chat.TransportError
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrSendInFlight):
		a.console.Info("Still waiting for the previous reply, message not sent.")
	case errors.As(err, &terr):
		// Already rendered as a bot apology.
	case chat.IsValidation(err):
	default:
		a.logger.Error("Send failed", "error", err)
	}
}

// readLine runs a blocking read so that ctx cancellation is observed.
func (a *App) readLine(ctx context.Context, read func() (string, error)) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := read()
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func ignoreEnd(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
