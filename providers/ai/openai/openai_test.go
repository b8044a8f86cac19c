package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/chatgate/internal/jsonschema"
	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
)

// TestForVendor_DefaultBaseURLs verifies each compatible vendor gets its public endpoint.
func TestForVendor_DefaultBaseURLs(t *testing.T) {
	tests := map[ai.Vendor]string{
		ai.VendorOpenAI:     "https://api.openai.com/v1",
		ai.VendorMistral:    "https://api.mistral.ai/v1",
		ai.VendorLlama:      "https://www.llama-api.com",
		ai.VendorPerplexity: "https://api.perplexity.ai",
		ai.VendorOpenRouter: "https://openrouter.ai/api/v1",
		ai.VendorCustom:     "",
	}
	for vendor, want := range tests {
		provider, err := ForVendor(ai.ProviderConfig{Vendor: vendor, APIKey: "k"})
		if err != nil {
			t.Fatalf("ForVendor(%s): %v", vendor, err)
		}
		if provider.baseURL != want || provider.Vendor() != vendor {
			t.Errorf("%s: baseURL = %q, want %q", vendor, provider.baseURL, want)
		}
	}

	if _, err := ForVendor(ai.ProviderConfig{Vendor: ai.VendorAnthropic}); err == nil {
		t.Error("expected anthropic to be rejected")
	}
}

// TestSendMessage_ValidResponse verifies headers, body and response mapping.
func TestSendMessage_ValidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected Authorization %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("OpenAI-Organization") != "org-1" {
			t.Errorf("unexpected organization %q", r.Header.Get("OpenAI-Organization"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("unexpected model %v", body["model"])
		}
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"4"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`)
	}))
	defer server.Close()

	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorOpenAI, APIKey: "test-key", BaseURL: server.URL, Organization: "org-1"})
	response, err := provider.SendMessage(context.Background(), userRequest("2+2?"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if response.Id != "chatcmpl-1" || response.Content != "4" || response.FinishReason != "stop" {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 6 {
		t.Errorf("unexpected usage %+v", response.Usage)
	}
}

// TestSendMessage_MissingKey verifies no request is made without a key.
func TestSendMessage_MissingKey(t *testing.T) {
	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorMistral})
	_, err := provider.SendMessage(context.Background(), userRequest("hi"))
	if !ai.IsKind(err, ai.KindMissingCredential) {
		t.Fatalf("expected MissingCredential, got %v", err)
	}
	if got := ai.UserMessage(err); got != "Mistral API Key not found. Please set it in your profile settings." {
		t.Errorf("unexpected message %q", got)
	}
}

// TestSendMessage_UpstreamStatus verifies non-2xx statuses are carried through.
func TestSendMessage_UpstreamStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   ai.ErrorKind
	}{
		{http.StatusUnauthorized, ai.KindInvalidCredential},
		{http.StatusTooManyRequests, ai.KindUpstreamRequest},
		{http.StatusBadGateway, ai.KindUpstreamRequest},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"nope"}}`, tt.status)
		}))
		provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorPerplexity, APIKey: "k", BaseURL: server.URL})
		_, err := provider.SendMessage(context.Background(), userRequest("hi"))
		server.Close()

		if !ai.IsKind(err, tt.kind) {
			t.Errorf("status %d: expected %s, got %v", tt.status, tt.kind, err)
		}
		if ai.HTTPStatus(err) != tt.status {
			t.Errorf("status %d: HTTPStatus = %d", tt.status, ai.HTTPStatus(err))
		}
		if utils.StatusCodeOf(err) != tt.status {
			t.Errorf("status %d: StatusError not in chain", tt.status)
		}
	}
}

// TestSendMessage_Azure verifies deployment routing, api-version and the
// api-key header.
func TestSendMessage_Azure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/dep-4o/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api-version") != "2023-12-01-preview" {
			t.Errorf("unexpected api-version %q", r.URL.RawQuery)
		}
		if r.Header.Get("api-key") != "azure-key" || r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected auth headers %v", r.Header)
		}
		_, _ = io.WriteString(w, `{"id":"a","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	provider, _ := ForVendor(ai.ProviderConfig{
		Vendor:      ai.VendorAzure,
		APIKey:      "azure-key",
		BaseURL:     server.URL + "/",
		Deployments: map[string]string{"gpt-4o": "dep-4o", "o3-mini": ""},
	})

	response, err := provider.SendMessage(context.Background(), userRequest("hi"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("unexpected content %q", response.Content)
	}

	_, err = provider.SendMessage(context.Background(), ai.ChatRequest{Model: "gpt-3.5-turbo", Messages: userRequest("hi").Messages})
	if !ai.IsKind(err, ai.KindUnsupportedModel) || ai.HTTPStatus(err) != http.StatusBadRequest {
		t.Errorf("expected UnsupportedModel 400, got %v", err)
	}

	_, err = provider.SendMessage(context.Background(), ai.ChatRequest{Model: "o3-mini", Messages: userRequest("hi").Messages})
	if !ai.IsKind(err, ai.KindMissingCredential) {
		t.Errorf("expected MissingCredential for empty deployment, got %v", err)
	}
}

// TestTranslate_Roles verifies the per-role wire shapes.
func TestTranslate_Roles(t *testing.T) {
	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorOpenRouter, APIKey: "k"})
	temperature := float32(0.5)
	request := ai.ChatRequest{
		Model: "meta-llama/llama-3-70b",
		Messages: []ai.Message{
			ai.NewTextMessage(ai.RoleSystem, "be terse"),
			{Role: ai.RoleUser, Content: []ai.ContentPart{ai.TextPart{Value: "what is"}, ai.ImagePart{Data: "AAAA", MediaType: "image/jpeg"}}},
			{Role: ai.RoleAssistant, Content: []ai.ContentPart{ai.TextPart{Value: "a"}, ai.TextPart{Value: "b"}}},
			{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Type: "function", Function: ai.ToolCallFunction{Name: "f", Arguments: "{}"}}}},
			ai.NewToolMessage("c1", "f", `{"ok":true}`),
		},
		GenerationConfig: &ai.GenerationConfig{Temperature: &temperature, MaxTokens: 100},
	}

	translated, err := provider.Translate(request)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	encoded, _ := json.Marshal(translated)
	var body struct {
		Messages            []map[string]any `json:"messages"`
		Temperature         float64          `json:"temperature"`
		MaxTokens           int              `json:"max_tokens"`
		MaxCompletionTokens int              `json:"max_completion_tokens"`
	}
	if err := json.Unmarshal(encoded, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Messages[0]["role"] != "system" || body.Messages[0]["content"] != "be terse" {
		t.Errorf("unexpected system message %v", body.Messages[0])
	}
	parts, ok := body.Messages[1]["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected two user parts, got %v", body.Messages[1]["content"])
	}
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" || image["image_url"].(map[string]any)["url"] != "data:image/jpeg;base64,AAAA" {
		t.Errorf("unexpected image part %v", image)
	}
	if body.Messages[2]["content"] != "a\nb" {
		t.Errorf("expected flattened assistant content, got %v", body.Messages[2]["content"])
	}
	if _, present := body.Messages[3]["content"]; present {
		t.Errorf("expected no content on tool-call-only assistant message, got %v", body.Messages[3])
	}
	if body.Messages[4]["tool_call_id"] != "c1" || body.Messages[4]["content"] != `{"ok":true}` {
		t.Errorf("unexpected tool message %v", body.Messages[4])
	}
	if body.Temperature != 0.5 || body.MaxTokens != 100 || body.MaxCompletionTokens != 0 {
		t.Errorf("unexpected generation settings %+v", body)
	}
}

// TestTranslate_Errors verifies caller-side translation failures.
func TestTranslate_Errors(t *testing.T) {
	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorOpenAI, APIKey: "k"})

	_, err := provider.Translate(ai.ChatRequest{Model: "gpt-4o", Messages: []ai.Message{ai.NewToolMessage("", "f", "{}")}})
	if !ai.IsKind(err, ai.KindMalformedMessage) {
		t.Errorf("expected MalformedMessage for tool message without id, got %v", err)
	}

	system := ai.Message{Role: ai.RoleSystem, Content: []ai.ContentPart{ai.ImagePart{URL: "https://x/y.png"}}}
	_, err = provider.Translate(ai.ChatRequest{Model: "gpt-4o", Messages: []ai.Message{system}})
	if !ai.IsKind(err, ai.KindUnsupportedRole) {
		t.Errorf("expected UnsupportedRole for image system message, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "(message 0)") {
		t.Errorf("expected message index in %q", err.Error())
	}
}

// TestTranslate_ModelTableCeiling verifies the output ceiling comes from the
// model table when the caller sets none.
func TestTranslate_ModelTableCeiling(t *testing.T) {
	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorOpenAI, APIKey: "k"})
	translated, err := provider.Translate(userRequest("hi"))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	body := translated.(chatCompletionRequest)
	if body.MaxCompletionTokens == nil || *body.MaxCompletionTokens != ai.MaxOutputTokens("gpt-4o") {
		t.Errorf("expected ceiling %d, got %v", ai.MaxOutputTokens("gpt-4o"), body.MaxCompletionTokens)
	}
	if body.MaxTokens != nil {
		t.Error("max_tokens must not be sent to OpenAI")
	}
}

// TestTranslate_Tools verifies functions are offered with tool_choice auto.
func TestTranslate_Tools(t *testing.T) {
	provider, _ := ForVendor(ai.ProviderConfig{Vendor: ai.VendorOpenAI, APIKey: "k"})
	request := userRequest("weather in Rome?")
	request.Tools = []ai.ToolDescription{{
		Name:        "getWeather",
		Description: "Current weather",
		Parameters:  &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"city": {Type: "string"}}},
	}}

	translated, err := provider.Translate(request)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	body := translated.(chatCompletionRequest)
	if len(body.Tools) != 1 || body.Tools[0].Type != "function" || body.Tools[0].Function.Name != "getWeather" {
		t.Errorf("unexpected tools %+v", body.Tools)
	}
	if body.ToolChoice != "auto" {
		t.Errorf("unexpected tool_choice %v", body.ToolChoice)
	}
}

// TestChatCompletionToGeneric_RecoversContentToolCalls verifies tool calls
// written into content are recovered only for offered functions.
func TestChatCompletionToGeneric_RecoversContentToolCalls(t *testing.T) {
	offered := []ai.ToolDescription{{Name: "getWeather"}}
	resp := chatCompletionResponse{Choices: []chatChoice{{
		Message:      chatResponseMessage{Content: `<TOOLCALL>[{"name": "getWeather", "arguments": {"city": "Rome"}}]</TOOLCALL>`},
		FinishReason: "stop",
	}}}

	response := chatCompletionToGeneric(resp, offered)
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 recovered call, got %+v", response)
	}
	call := response.ToolCalls[0]
	if !strings.HasPrefix(call.ID, "call_") || call.Function.Name != "getWeather" {
		t.Errorf("unexpected call %+v", call)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args["city"] != "Rome" {
		t.Errorf("unexpected arguments %q", call.Function.Arguments)
	}
	if response.FinishReason != "tool_calls" || response.Content != "" {
		t.Errorf("expected tool_calls finish with empty content, got %+v", response)
	}

	unknown := chatCompletionResponse{Choices: []chatChoice{{Message: chatResponseMessage{Content: `{"name":"deleteAll","arguments":{}}`}}}}
	if got := chatCompletionToGeneric(unknown, offered); len(got.ToolCalls) != 0 {
		t.Errorf("expected no recovery for unknown function, got %+v", got.ToolCalls)
	}
	if got := chatCompletionToGeneric(resp, nil); len(got.ToolCalls) != 0 {
		t.Error("expected no recovery when no tools were offered")
	}
}
