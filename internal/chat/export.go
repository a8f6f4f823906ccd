package chat

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportConversation maps the message log to export records in display order.
func (c *Controller) ExportConversation() []ExportRecord {
	msgs := c.messages.Messages()
	records := make([]ExportRecord, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, ExportRecord{
			Sender:    m.Sender.String(),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return records
}

// EncodeExport serializes records in the given format.
func EncodeExport(records []ExportRecord, format string) ([]byte, error) {
	if records == nil {
		records = []ExportRecord{}
	}
	switch format {
	case "", FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json export: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("encode yaml export: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// SaveExport exports the conversation and hands the bytes to the Renderer.
// It returns the suggested filename.
func (c *Controller) SaveExport(format string) (string, error) {
	if format == "" {
		format = FormatJSON
	}
	data, err := EncodeExport(c.ExportConversation(), format)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("chat-export-%d.%s", c.now().Unix(), format)
	if err := c.renderer.SaveExport(data, name); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	c.logger.Info("Conversation exported", "file", name, "bytes", len(data))
	return name, nil
}
