package anthropic

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/leofalp/chatgate/core/parse"
	"github.com/leofalp/chatgate/providers/ai"
)

// fallbackMaxTokens is sent for models missing from the model table, since
// Anthropic rejects requests without max_tokens.
const fallbackMaxTokens = 4096

// emptyObjectSchema stands in for tools that take no parameters; Anthropic
// requires input_schema on every tool.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// requestToMessages converts a canonical request to the Messages API body.
// System messages are lifted out of the conversation into the top-level
// system field.
func requestToMessages(request ai.ChatRequest) (messagesRequest, error) {
	req := messagesRequest{Model: request.Model}

	var system []string
	for i, msg := range request.Messages {
		if err := msg.Validate(); err != nil {
			return messagesRequest{}, withIndex(err, i)
		}

		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, msg.Text())

		case ai.RoleUser:
			content, err := contentBlocks(msg.Content)
			if err != nil {
				return messagesRequest{}, withIndex(err, i)
			}
			req.Messages = append(req.Messages, turn{Role: "user", Content: content})

		case ai.RoleAssistant:
			content, err := contentBlocks(msg.Content)
			if err != nil {
				return messagesRequest{}, withIndex(err, i)
			}
			for _, call := range msg.ToolCalls {
				content = append(content, block{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Function.Name,
					Input: toolInput(call.Function.Arguments),
				})
			}
			// Anthropic rejects turns with no blocks.
			if len(content) > 0 {
				req.Messages = append(req.Messages, turn{Role: "assistant", Content: content})
			}

		case ai.RoleTool:
			result := block{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   ai.JoinText(msg.Content, "\n"),
			}
			// Consecutive results share one user turn: Anthropic does not
			// accept two user turns in a row.
			if last := len(req.Messages) - 1; last >= 0 && onlyToolResults(req.Messages[last]) {
				req.Messages[last].Content = append(req.Messages[last].Content, result)
			} else {
				req.Messages = append(req.Messages, turn{Role: "user", Content: []block{result}})
			}
		}
	}
	req.System = strings.Join(system, "\n")

	req.MaxTokens = fallbackMaxTokens
	if ceiling := ai.MaxOutputTokens(request.Model); ceiling > 0 {
		req.MaxTokens = ceiling
	}
	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.MaxTokens > 0 {
			req.MaxTokens = cfg.MaxTokens
		}
		if cfg.Temperature != nil {
			temperature := float64(*cfg.Temperature)
			req.Temperature = &temperature
		}
	}

	if len(request.Tools) > 0 {
		tools, err := toolSpecs(request.Tools)
		if err != nil {
			return messagesRequest{}, err
		}
		req.Tools = tools
		req.ToolChoice = &toolChoice{Type: "auto"}
	}

	return req, nil
}

// contentBlocks maps canonical parts to text and image blocks. Inline images
// (data URLs or raw base64) become base64 sources carrying the media type
// from the data URL prefix; remote images are passed by URL.
func contentBlocks(parts []ai.ContentPart) ([]block, error) {
	blocks := make([]block, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case ai.TextPart:
			if p.Value == "" {
				continue
			}
			blocks = append(blocks, block{Type: "text", Text: p.Value})
		case ai.ImagePart:
			source := &imageSource{Type: "url", URL: p.URL}
			if mediaType, data, ok := p.Inline(); ok {
				source = &imageSource{Type: "base64", MediaType: mediaType, Data: data}
			}
			blocks = append(blocks, block{Type: "image", Source: source})
		default:
			return nil, ai.NewError(ai.KindMalformedMessage, "unsupported content part %T", part)
		}
	}
	return blocks, nil
}

// toolInput returns the arguments as a JSON object. Models occasionally emit
// arguments that are not valid JSON; those are repaired when possible and
// otherwise replaced by an empty object.
func toolInput(arguments string) json.RawMessage {
	args, err := parse.Arguments(arguments)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return encoded
}

func onlyToolResults(t turn) bool {
	if t.Role != "user" || len(t.Content) == 0 {
		return false
	}
	for _, b := range t.Content {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}

func toolSpecs(tools []ai.ToolDescription) ([]toolSpec, error) {
	specs := make([]toolSpec, 0, len(tools))
	for _, tool := range tools {
		spec := toolSpec{Name: tool.Name, Description: tool.Description, InputSchema: emptyObjectSchema}
		if tool.Parameters != nil {
			schema, err := json.Marshal(tool.Parameters)
			if err != nil {
				return nil, ai.WrapError(ai.KindSchemaConversion, err, "tool %q has an unencodable schema", tool.Name)
			}
			spec.InputSchema = schema
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// messagesToGeneric maps a Messages API response to the canonical form. Text
// blocks are joined with newlines; tool_use inputs become argument strings.
func messagesToGeneric(response messagesResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:           response.ID,
		Model:        response.Model,
		FinishReason: mapStopReason(response.StopReason),
		Usage: &ai.Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		},
	}

	var text []string
	for _, b := range response.Content {
		switch b.Type {
		case "text":
			text = append(text, b.Text)
		case "tool_use":
			arguments := string(b.Input)
			if arguments == "" {
				arguments = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:       b.ID,
				Type:     "function",
				Function: ai.ToolCallFunction{Name: b.Name, Arguments: arguments},
			})
		}
	}
	result.Content = strings.Join(text, "\n")
	return result
}

// mapStopReason converts stop_reason to the OpenAI-style finish reason used
// by ai.ChatResponse.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	case "":
		return ""
	default:
		return "stop"
	}
}

func withIndex(err error, index int) error {
	if gatewayErr, ok := ai.AsError(err); ok {
		annotated := *gatewayErr
		annotated.Message = gatewayErr.Message + " (message " + strconv.Itoa(index) + ")"
		return &annotated
	}
	return err
}
