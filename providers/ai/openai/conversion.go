package openai

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/chatgate/core/parse"
	"github.com/leofalp/chatgate/providers/ai"
)

// requestToChatCompletion renders a canonical request in the chat completions
// schema. System messages keep their position; user images become image_url
// parts; assistant content is flattened to text.
func requestToChatCompletion(request ai.ChatRequest, vendor ai.Vendor) (chatCompletionRequest, error) {
	req := chatCompletionRequest{
		Model:    request.Model,
		Messages: make([]chatMessage, 0, len(request.Messages)),
	}

	for i, msg := range request.Messages {
		converted, err := messageToChat(msg)
		if err != nil {
			return chatCompletionRequest{}, withIndex(err, i)
		}
		req.Messages = append(req.Messages, converted)
	}

	maxTokens := 0
	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.Temperature != nil {
			temperature := float64(*cfg.Temperature)
			req.Temperature = &temperature
		}
		maxTokens = cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = ai.MaxOutputTokens(request.Model)
	}
	if maxTokens > 0 {
		if vendor == ai.VendorOpenAI || vendor == ai.VendorAzure {
			req.MaxCompletionTokens = &maxTokens
		} else {
			req.MaxTokens = &maxTokens
		}
	}

	if len(request.Tools) > 0 {
		for _, tool := range request.Tools {
			req.Tools = append(req.Tools, chatTool{
				Type: "function",
				Function: chatFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		req.ToolChoice = "auto"
	}

	return req, nil
}

func messageToChat(msg ai.Message) (chatMessage, error) {
	if err := msg.Validate(); err != nil {
		return chatMessage{}, err
	}

	out := chatMessage{Role: string(msg.Role)}
	switch msg.Role {
	case ai.RoleSystem:
		out.Content = msg.Text()

	case ai.RoleUser:
		content, err := userContent(msg.Content)
		if err != nil {
			return chatMessage{}, err
		}
		out.Content = content

	case ai.RoleAssistant:
		if text := ai.JoinText(msg.Content, "\n"); text != "" || len(msg.ToolCalls) == 0 {
			out.Content = text
		}
		for _, call := range msg.ToolCalls {
			wire := chatToolCall{ID: call.ID, Type: "function"}
			wire.Function.Name = call.Function.Name
			wire.Function.Arguments = call.Function.Arguments
			out.ToolCalls = append(out.ToolCalls, wire)
		}

	case ai.RoleTool:
		out.ToolCallID = msg.ToolCallID
		out.Name = msg.ToolName
		out.Content = msg.Text()
	}
	return out, nil
}

// userContent keeps single-text messages as a plain string and renders
// anything else as a part array.
func userContent(parts []ai.ContentPart) (any, error) {
	if len(parts) == 0 {
		return "", nil
	}
	if len(parts) == 1 {
		if text, ok := parts[0].(ai.TextPart); ok {
			return text.Value, nil
		}
	}

	wire := make([]contentPart, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case ai.TextPart:
			wire = append(wire, contentPart{Type: "text", Text: p.Value})
		case ai.ImagePart:
			wire = append(wire, contentPart{Type: "image_url", ImageURL: &contentPartImage{URL: p.Ref()}})
		default:
			return nil, ai.NewError(ai.KindMalformedMessage, "unsupported content part %T", part)
		}
	}
	return wire, nil
}

// withIndex adds the message position to a translation error.
func withIndex(err error, index int) error {
	if gatewayErr, ok := ai.AsError(err); ok {
		annotated := *gatewayErr
		annotated.Message = gatewayErr.Message + " (message " + strconv.Itoa(index) + ")"
		return &annotated
	}
	return err
}

// chatCompletionToGeneric converts the first choice of a response. When the
// model answered with tool calls written into its text, and tools were
// offered, those calls are recovered.
func chatCompletionToGeneric(resp chatCompletionResponse, offered []ai.ToolDescription) *ai.ChatResponse {
	choice := resp.Choices[0]
	response := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	if response.Content == "" && choice.Message.Refusal != "" {
		response.Content = choice.Message.Refusal
	}

	for _, call := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}

	if len(response.ToolCalls) == 0 && len(offered) > 0 && response.Content != "" {
		if recovered := toolCallsFromContent(response.Content, offered); len(recovered) > 0 {
			response.ToolCalls = recovered
			response.Content = ""
			response.FinishReason = "tool_calls"
		}
	}

	if resp.Usage != nil {
		response.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return response
}

// contentMarkers are wrappers some OpenRouter-hosted models put around tool
// calls emitted as text.
var contentMarkers = []string{
	"<TOOLCALL>", "</TOOLCALL>", "[/TOOLCALL]",
	"<|END OF THOUGHT|>", "<|END_OF_THOUGHT|>", "<|endofthought|>",
}

type contentToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolCallsFromContent parses `[{"name":..,"arguments":{..}}]` (or a single
// object) out of model text. Calls naming a function that was not offered
// discard the whole recovery, so ordinary JSON answers are left alone.
func toolCallsFromContent(content string, offered []ai.ToolDescription) []ai.ToolCall {
	cleaned := content
	for _, marker := range contentMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	calls, err := parse.ParseStringAs[[]contentToolCall](cleaned)
	if err != nil || len(calls) == 0 {
		single, singleErr := parse.ParseStringAs[contentToolCall](cleaned)
		if singleErr != nil {
			return nil
		}
		calls = []contentToolCall{single}
	}

	known := make(map[string]bool, len(offered))
	for _, tool := range offered {
		known[tool.Name] = true
	}

	result := make([]ai.ToolCall, 0, len(calls))
	for _, call := range calls {
		if !known[call.Name] {
			return nil
		}
		arguments := "{}"
		if len(call.Arguments) > 0 && string(call.Arguments) != "null" {
			arguments = string(call.Arguments)
			// Some models double-encode the arguments object.
			var encoded string
			if json.Unmarshal(call.Arguments, &encoded) == nil {
				arguments = encoded
			}
		}
		result = append(result, ai.ToolCall{
			ID:       "call_" + uuid.NewString(),
			Type:     "function",
			Function: ai.ToolCallFunction{Name: call.Name, Arguments: arguments},
		})
	}
	return result
}
