package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/leofalp/chatgate/providers/ai"
)

// ChatSettings are the caller's generation settings.
type ChatSettings struct {
	Model                        string   `json:"model"`
	Temperature                  *float32 `json:"temperature,omitempty"`
	ContextLength                int      `json:"contextLength,omitempty"`
	IncludeProfileContext        bool     `json:"includeProfileContext,omitempty"`
	IncludeWorkspaceInstructions bool     `json:"includeWorkspaceInstructions,omitempty"`
	EmbeddingsProvider           string   `json:"embeddingsProvider,omitempty"`
}

// ToolSelection is one tool chosen for a request. It either embeds its
// OpenAPI document or names a stored tool by ID. Schema and CustomHeaders may
// be given as JSON values or as strings holding the encoded document.
type ToolSelection struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
	CustomHeaders json.RawMessage `json:"customHeaders,omitempty"`
}

// UnmarshalJSON also accepts the snake_case custom_headers key.
func (s *ToolSelection) UnmarshalJSON(data []byte) error {
	type plain ToolSelection
	var decoded struct {
		plain
		SnakeHeaders json.RawMessage `json:"custom_headers,omitempty"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ai.WrapError(ai.KindMalformedMessage, err, "invalid tool selection")
	}
	*s = ToolSelection(decoded.plain)
	if len(s.CustomHeaders) == 0 {
		s.CustomHeaders = decoded.SnakeHeaders
	}
	return nil
}

// Document returns the OpenAPI document text, unwrapping a JSON string.
func (s ToolSelection) Document() []byte {
	return unwrapString(s.Schema)
}

// Headers returns the custom headers as JSON object text.
func (s ToolSelection) Headers() string {
	return string(unwrapString(s.CustomHeaders))
}

func unwrapString(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return []byte(text)
		}
	}
	return trimmed
}

// Request is one inbound chat request.
type Request struct {
	ID            string          `json:"-"`
	Vendor        ai.Vendor       `json:"-"`
	ChatSettings  ChatSettings    `json:"chatSettings"`
	Messages      []ai.Message    `json:"messages"`
	SelectedTools []ToolSelection `json:"selectedTools,omitempty"`
	CustomModelID string          `json:"customModelId,omitempty"`
}

// Validate checks the request before any upstream call.
func (r Request) Validate() error {
	// Custom models fall back to the stored model id.
	if r.ChatSettings.Model == "" && r.Vendor != ai.VendorCustom {
		return ai.NewError(ai.KindMalformedMessage, "chatSettings.model is required")
	}
	if len(r.Messages) == 0 {
		return ai.NewError(ai.KindMalformedMessage, "messages must not be empty")
	}
	for i, message := range r.Messages {
		if err := message.Validate(); err != nil {
			return ai.WrapError(ai.KindOf(err), err, "message %d", i)
		}
	}
	if r.Vendor == ai.VendorCustom && r.CustomModelID == "" {
		return ai.NewError(ai.KindMalformedMessage, "customModelId is required for custom models")
	}
	return nil
}
