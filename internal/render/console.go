// Package render draws the conversation in a terminal.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/shsh-chat/internal/domain"
	"github.com/charmbracelet/lipgloss"
	input "github.com/tcnksm/go-input"
)

// DefaultNoticeDuration is how long a transient error stays active.
const DefaultNoticeDuration = 5 * time.Second

// Options configures a Console.
type Options struct {
	Out            io.Writer
	In             io.Reader
	ExportDir      string
	NoticeDuration time.Duration
	// Plain disables colours and styling, e.g. when stdout is not a TTY.
	Plain  bool
	Prompt string
}

type styles struct {
	user    lipgloss.Style
	bot     lipgloss.Style
	meta    lipgloss.Style
	badge   lipgloss.Style
	typing  lipgloss.Style
	notice  lipgloss.Style
	info    lipgloss.Style
	botText lipgloss.Style
}

func newStyles(plain bool) styles {
	if plain {
		s := lipgloss.NewStyle()
		return styles{user: s, bot: s, meta: s, badge: s, typing: s, notice: s, info: s, botText: s}
	}
	return styles{
		user:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		bot:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		meta:    lipgloss.NewStyle().Faint(true),
		badge:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("#25A065")).Padding(0, 1),
		typing:  lipgloss.NewStyle().Italic(true).Faint(true),
		notice:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		botText: lipgloss.NewStyle().MarginLeft(3),
	}
}

// Console renders the chat as a line-oriented terminal transcript.
type Console struct {
	out            io.Writer
	lines          *LineReader
	ui             *input.UI
	exportDir      string
	noticeDuration time.Duration
	prompt         string
	styles         styles

	mu          sync.Mutex
	typing      bool
	notice      string
	noticeTimer *time.Timer
}

// NewConsole creates a console renderer.
func NewConsole(opts Options) *Console {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.NoticeDuration <= 0 {
		opts.NoticeDuration = DefaultNoticeDuration
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	lines, ok := opts.In.(*LineReader)
	if !ok {
		lines = NewLineReader(opts.In)
	}
	return &Console{
		out:            opts.Out,
		lines:          lines,
		ui:             &input.UI{Writer: opts.Out, Reader: lines},
		exportDir:      opts.ExportDir,
		noticeDuration: opts.NoticeDuration,
		prompt:         opts.Prompt,
		styles:         newStyles(opts.Plain),
	}
}

// DisplayMessage prints one message bubble.
func (c *Console) DisplayMessage(msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("\n%s\n", c.formatMessage(msg))
}

func (c *Console) formatMessage(msg domain.Message) string {
	ts := c.styles.meta.Render(msg.Timestamp.Format("15:04"))

	if msg.Sender == domain.SenderUser {
		return fmt.Sprintf("%s %s %s\n   %s", "👤", c.styles.user.Render("You"), ts, msg.Text)
	}

	header := fmt.Sprintf("%s %s %s", "🤖", c.styles.bot.Render("Bot"), ts)
	if msg.HasIntentBadge() {
		label := msg.Intent
		if msg.Confidence != nil {
			label = fmt.Sprintf("%s %.0f%%", label, *msg.Confidence*100)
		}
		header += " " + c.styles.badge.Render(label)
	}
	return header + "\n" + c.styles.botText.Render(msg.Text)
}

// SetTyping shows the typing indicator when it switches on.
func (c *Console) SetTyping(typing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if typing && !c.typing {
		c.printf("%s\n", c.styles.typing.Render("🤖 Bot is typing..."))
	}
	c.typing = typing
}

// Typing reports whether the indicator is on.
func (c *Console) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// ShowTransientError prints a notice and keeps it active for the notice
// duration. A newer notice replaces the older one and restarts the timer.
func (c *Console) ShowTransientError(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.printf("%s\n", c.styles.notice.Render("⚠ "+text))
	c.notice = text
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(c.noticeDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.noticeTimer == timer {
			c.notice = ""
			c.noticeTimer = nil
		}
	})
	c.noticeTimer = timer
}

// ActiveNotice returns the notice that has not been dismissed yet, if any.
func (c *Console) ActiveNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// RequestConfirmation asks a yes/no question. Anything but yes is a no.
func (c *Console) RequestConfirmation(prompt string) bool {
	answer, err := c.ui.Ask(prompt+" [y/N]", &input.Options{
		Default:     "n",
		HideDefault: true,
		HideOrder:   true,
		Loop:        true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "y", "yes", "n", "no", "":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		slog.Debug("confirmation aborted", "error", err)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// AskName prompts for the display name. Validation is left to the caller.
func (c *Console) AskName() (string, error) {
	c.mu.Lock()
	c.printf("%s", c.styles.info.Render("What's your name? "))
	c.mu.Unlock()
	return c.lines.ReadLine()
}

// ReadLine reads the next line of user input.
func (c *Console) ReadLine() (string, error) {
	return c.lines.ReadLine()
}

// SaveExport writes data into the export directory.
func (c *Console) SaveExport(data []byte, suggestedFilename string) error {
	if err := os.MkdirAll(c.exportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(c.exportDir, filepath.Base(suggestedFilename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("%s\n", c.styles.info.Render("Conversation saved to "+path))
	return nil
}

// Focus prints the input prompt.
func (c *Console) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("%s", c.prompt)
}

// Info prints an informational line.
func (c *Console) Info(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("%s\n", c.styles.info.Render(text))
}

// Welcome prints the pre-session banner.
func (c *Console) Welcome(suggestions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("%s\n", c.styles.bot.Render("👋 Welcome to the AI chat assistant"))
	if len(suggestions) > 0 {
		c.printf("%s\n", c.styles.info.Render("Try asking:"))
		for i, s := range suggestions {
			c.printf("  %s %s\n", c.styles.meta.Render(fmt.Sprintf("[%d]", i+1)), s)
		}
	}
}

// printf writes to the output; callers hold c.mu.
func (c *Console) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		slog.Debug("console write failed", "error", err)
	}
}
