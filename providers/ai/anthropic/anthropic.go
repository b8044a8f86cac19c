package anthropic

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	messagesEndpoint = "/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements [ai.StreamProvider] for the Messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamProvider = (*AnthropicProvider)(nil)

// New returns a provider configured from ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// FromConfig builds a provider from a vendor profile. An empty base URL
// selects the public endpoint.
func FromConfig(cfg ai.ProviderConfig) *AnthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{apiKey: cfg.APIKey, baseURL: baseURL, client: &http.Client{}}
}

func (p *AnthropicProvider) Vendor() ai.Vendor {
	return ai.VendorAnthropic
}

// WithAPIKey sets the key sent in the x-api-key header.
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL.
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the HTTP client used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// Translate returns the Messages API body SendMessage would post.
func (p *AnthropicProvider) Translate(request ai.ChatRequest) (any, error) {
	return requestToMessages(request)
}

// headers carries the credential in x-api-key; Anthropic does not accept
// Bearer tokens.
func (p *AnthropicProvider) headers() []utils.HeaderOption {
	return []utils.HeaderOption{
		utils.WithHeader("x-api-key", p.apiKey),
		utils.WithHeader("anthropic-version", anthropicVersion),
	}
}

func (p *AnthropicProvider) endpoint() string {
	return strings.TrimRight(p.baseURL, "/") + messagesEndpoint
}

// SendMessage posts a non-streaming request to the Messages API.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	observer := observability.ObserverFromContext(ctx)
	p.annotateSpan(ctx, request, false)

	if p.apiKey == "" {
		return nil, ai.MissingCredentialError(ai.VendorAnthropic)
	}
	body, err := requestToMessages(request)
	if err != nil {
		return nil, err
	}

	if observer != nil {
		observer.Trace(ctx, "sending messages request",
			observability.String(observability.AttrLLMProvider, string(ai.VendorAnthropic)),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(body.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(body.Tools)),
			observability.Int(observability.AttrLLMMaxTokens, body.MaxTokens),
		)
	}

	// An empty apiKey keeps DoPostSync from adding a Bearer header.
	_, resp, err := utils.DoPostSync[messagesResponse](ctx, p.client, p.endpoint(), "", body, p.headers()...)
	if err != nil {
		return nil, classify(err)
	}
	if resp == nil {
		return nil, ai.UpstreamError(ai.VendorAnthropic, 0, errors.New("empty response body"))
	}

	result := messagesToGeneric(*resp)
	if result.Model == "" {
		result.Model = request.Model
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.Id),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrRequestToolCalls, len(result.ToolCalls)),
			observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
		)
	}
	return result, nil
}

func classify(err error) error {
	return ai.UpstreamError(ai.VendorAnthropic, utils.StatusCodeOf(err), err)
}

func (p *AnthropicProvider) annotateSpan(ctx context.Context, request ai.ChatRequest, streaming bool) {
	span := observability.SpanFromContext(ctx)
	if span == nil {
		return
	}
	span.SetAttributes(
		observability.String(observability.AttrLLMProvider, string(ai.VendorAnthropic)),
		observability.String(observability.AttrLLMEndpoint, p.baseURL),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Bool("llm.streaming", streaming),
	)
}
