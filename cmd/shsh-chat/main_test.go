package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/shsh-chat/internal/chattest"
	"github.com/ashureev/shsh-chat/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "shsh-chat dev")
	assert.Contains(t, out, "commit: none")
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "shsh-chat 1.0.0 (commit: abc123, built: 2026-01-01)")
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "base-url", "name", "quick-start", "export-format", "export-dir"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}

func TestRootCmdRejectsInvalidBaseURL(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--base-url", "not-a-url"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute http(s) URL")
}

func TestRootCmdChatsWithServer(t *testing.T) {
	t.Setenv("LOG_FILE", "")
	t.Setenv("CONVERSATION_LOG_ENABLED", "false")

	server := chattest.New(t)
	exportDir := t.TempDir()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader("Hi there\n/export\n/quit\n"))
	cmd.SetArgs([]string{
		"--base-url", server.BaseURL(),
		"--name", "Ana",
		"--export-dir", exportDir,
	})

	require.NoError(t, cmd.Execute())

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hi there", reqs[0].Body.Message)
	assert.Equal(t, "Ana", reqs[0].Body.Username)

	assert.Contains(t, out.String(), "Hello Ana!")
	assert.Contains(t, out.String(), "You said: Hi there")
	assert.Contains(t, stderr.String(), `"msg":"Starting chat client"`)
	assert.Contains(t, stderr.String(), `"msg":"No .env file found, using environment variables"`)

	files, err := filepath.Glob(filepath.Join(exportDir, "chat-export-*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyFlags(cfg, rootFlags{
		baseURL:      "https://chat.example/api/chat",
		exportFormat: "yaml",
		exportDir:    "/tmp/exports",
	}))
	assert.Equal(t, "https://chat.example/api/chat", cfg.BaseURL)
	assert.Equal(t, "yaml", cfg.ExportFormat)
	assert.Equal(t, "/tmp/exports", cfg.ExportDir)

	assert.Error(t, applyFlags(config.Default(), rootFlags{exportFormat: "csv"}))
}

func TestNewLoggerWritesToFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "chat.log")

	logger, closeFn, err := newLogger(cfg, new(bytes.Buffer))
	require.NoError(t, err)
	logger.Info("hello")
	closeFn()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
