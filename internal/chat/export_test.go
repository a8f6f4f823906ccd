package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExportConversationMatchesLog(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{results: []fakeResult{
		ok("Hello", "S1", "GREETING"),
		{err: errors.New("down")},
	}}
	c := startedController(t, tr, newRecordingRenderer())
	require.NoError(t, c.SendMessage(context.Background(), "Hi"))
	_ = c.SendMessage(context.Background(), "Still there?")

	msgs := c.Messages()
	records := c.ExportConversation()
	require.Len(t, records, len(msgs))
	for i, m := range msgs {
		assert.Equal(t, m.Sender.String(), records[i].Sender)
		assert.Equal(t, m.Text, records[i].Text)
		assert.True(t, m.Timestamp.Equal(records[i].Timestamp))
	}
	assert.Equal(t, []string{"bot", "user", "bot", "user", "bot"}, senders(records))

	// Exporting must not change the log.
	assert.Equal(t, msgs, c.Messages())
}

func TestExportEmptyLog(t *testing.T) {
	t.Parallel()

	c := newTestController(&fakeTransport{}, newRecordingRenderer())
	assert.Empty(t, c.ExportConversation())

	data, err := EncodeExport(c.ExportConversation(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestEncodeExportFormats(t *testing.T) {
	t.Parallel()

	c := startedController(t, &fakeTransport{}, newRecordingRenderer())
	records := c.ExportConversation()

	data, err := EncodeExport(records, FormatJSON)
	require.NoError(t, err)
	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "bot", fromJSON[0]["sender"])
	assert.Contains(t, fromJSON[0], "timestamp")

	data, err = EncodeExport(records, FormatYAML)
	require.NoError(t, err)
	var fromYAML []ExportRecord
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, records[0].Text, fromYAML[0].Text)

	_, err = EncodeExport(records, "xml")
	require.Error(t, err)
}

func TestSaveExportHandsBytesToRenderer(t *testing.T) {
	t.Parallel()

	r := newRecordingRenderer()
	c := startedController(t, &fakeTransport{}, r)

	name, err := c.SaveExport("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "chat-export-"))
	assert.True(t, strings.HasSuffix(name, ".json"))
	require.Contains(t, r.saved, name)
	assert.Contains(t, string(r.saved[name]), "Hello Ana!")

	r.saveErr = errors.New("disk full")
	_, err = c.SaveExport(FormatYAML)
	require.Error(t, err)
}

func senders(records []ExportRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Sender
	}
	return out
}
