package ai

import (
	"encoding/json"

	"github.com/leofalp/chatgate/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest is one completion request in canonical form. System messages
// stay in Messages; each adapter moves them to its vendor's system slot.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	Messages         []Message         `json:"messages"`
	Tools            []ToolDescription `json:"tools,omitempty"` // Functions offered to the model, if any
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// ToolDescription is a function the model may call.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`  // Output ceiling; 0 lets the adapter pick from the model table
	Temperature *float32 `json:"temperature,omitempty"` // Sampling temperature, nil keeps the vendor default
}

// Message is a canonical conversation entry.
type Message struct {
	Role    MessageRole
	Content []ContentPart

	ToolCalls  []ToolCall // For role=assistant requesting tools
	ToolCallID string     // For role=tool, links to the tool call being answered
	ToolName   string     // For role=tool, the function that produced the result
}

// messageJSON is the inbound wire shape of a Message.
type messageJSON struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// UnmarshalJSON decodes the inbound shape, normalizing content and validating
// the role.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return WrapError(KindMalformedMessage, err, "invalid message")
	}

	role, err := ParseRole(raw.Role)
	if err != nil {
		return err
	}

	if role == RoleSystem && isJSONArray(raw.Content) {
		return NewError(KindUnsupportedRole, "system messages cannot have array content")
	}

	content, err := Normalize(raw.Content)
	if err != nil {
		return err
	}

	*m = Message{
		Role:       role,
		Content:    content,
		ToolCalls:  raw.ToolCalls,
		ToolCallID: raw.ToolCallID,
		ToolName:   raw.Name,
	}
	return nil
}

// MarshalJSON encodes the message in the inbound shape.
func (m Message) MarshalJSON() ([]byte, error) {
	raw := messageJSON{
		Role:       string(m.Role),
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
		Name:       m.ToolName,
	}
	if len(m.Content) > 0 {
		content, err := encodeContent(m.Content)
		if err != nil {
			return nil, err
		}
		raw.Content = content
	}
	return json.Marshal(raw)
}

// Validate checks the per-role invariants: a system message is exactly one
// text part and a tool message names the call it answers.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem:
		if len(m.Content) != 1 {
			return NewError(KindUnsupportedRole, "system message must carry exactly one text part, got %d parts", len(m.Content))
		}
		if _, ok := m.Content[0].(TextPart); !ok {
			return NewError(KindUnsupportedRole, "system message must carry text content")
		}
	case RoleTool:
		if m.ToolCallID == "" {
			return NewError(KindMalformedMessage, "tool_call_id is required for tool messages")
		}
	case RoleUser, RoleAssistant:
	default:
		return NewError(KindMalformedMessage, "invalid message role %q", m.Role)
	}
	return nil
}

// Text joins the message's text parts with a single space.
func (m Message) Text() string {
	return JoinText(m.Content, " ")
}

// HasImages reports whether any part is an image.
func (m Message) HasImages() bool {
	for _, part := range m.Content {
		if _, ok := part.(ImagePart); ok {
			return true
		}
	}
	return false
}

// NewTextMessage builds a single-text-part message.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Content: []ContentPart{TextPart{Value: text}}}
}

// NewToolMessage builds the tool-result message answering a call.
func NewToolMessage(toolCallID, toolName, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []ContentPart{TextPart{Value: content}},
		ToolCallID: toolCallID,
		ToolName:   toolName,
	}
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// AssistantMessage converts the response into the assistant turn that is
// appended to the transcript.
func (r *ChatResponse) AssistantMessage() Message {
	message := Message{Role: RoleAssistant, ToolCalls: r.ToolCalls}
	if r.Content != "" {
		message.Content = []ContentPart{TextPart{Value: r.Content}}
	}
	return message
}

/*
	##### ENUMS #####
*/

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // Raw JSON text, untrusted until parsed
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// ParseRole validates a role tag.
func ParseRole(tag string) (MessageRole, error) {
	switch role := MessageRole(tag); role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return role, nil
	case "":
		return "", NewError(KindMalformedMessage, "message role is empty")
	default:
		return "", NewError(KindMalformedMessage, "invalid message role %q", tag)
	}
}
