package openai

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"

	// defaultAzureAPIVersion is sent when the Azure profile does not pin one.
	defaultAzureAPIVersion = "2023-12-01-preview"
)

// vendorBaseURLs holds the public endpoint of each OpenAI-compatible vendor.
// Azure and custom have no default: their endpoint comes from configuration.
var vendorBaseURLs = map[ai.Vendor]string{
	ai.VendorOpenAI:     defaultBaseURL,
	ai.VendorMistral:    "https://api.mistral.ai/v1",
	ai.VendorLlama:      "https://www.llama-api.com",
	ai.VendorPerplexity: "https://api.perplexity.ai",
	ai.VendorOpenRouter: "https://openrouter.ai/api/v1",
}

// DefaultBaseURL returns the public endpoint of vendor, or "" for vendors
// whose endpoint is configured per profile.
func DefaultBaseURL(vendor ai.Vendor) string {
	return vendorBaseURLs[vendor]
}

// OpenAIProvider talks to any endpoint implementing the chat completions
// schema. The vendor only changes the endpoint, the auth header and, for
// Azure, how a model id maps to a deployment.
type OpenAIProvider struct {
	vendor       ai.Vendor
	apiKey       string
	baseURL      string
	organization string
	apiVersion   string
	deployments  map[string]string
	client       *http.Client
}

var _ ai.StreamProvider = (*OpenAIProvider)(nil)

// New creates an OpenAI provider from OPENAI_API_KEY and OPENAI_API_BASE_URL.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIProvider{
		vendor:  ai.VendorOpenAI,
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// ForVendor builds a provider for an OpenAI-compatible vendor from its
// profile. A missing key is reported when a request is sent, not here, so
// that the error carries the vendor's user-facing message.
func ForVendor(cfg ai.ProviderConfig) (*OpenAIProvider, error) {
	if !cfg.Vendor.OpenAICompatible() {
		return nil, ai.NewError(ai.KindUnsupportedModel, "vendor %q does not speak the chat completions schema", cfg.Vendor)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL(cfg.Vendor)
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" && cfg.Vendor == ai.VendorAzure {
		apiVersion = defaultAzureAPIVersion
	}
	return &OpenAIProvider{
		vendor:       cfg.Vendor,
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		organization: cfg.Organization,
		apiVersion:   apiVersion,
		deployments:  cfg.Deployments,
		client:       &http.Client{},
	}, nil
}

func (p *OpenAIProvider) Vendor() ai.Vendor {
	return p.vendor
}

// WithAPIKey sets the API key for the provider
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// Translate returns the request body SendMessage would post.
func (p *OpenAIProvider) Translate(request ai.ChatRequest) (any, error) {
	return requestToChatCompletion(request, p.vendor)
}

// SendMessage posts a non-streaming completion.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	observer := observability.ObserverFromContext(ctx)
	p.annotateSpan(ctx, request, false)

	target, err := p.resolveTarget(request.Model)
	if err != nil {
		return nil, err
	}
	body, err := requestToChatCompletion(request, p.vendor)
	if err != nil {
		return nil, err
	}

	if observer != nil {
		observer.Trace(ctx, "sending chat completion",
			observability.String(observability.AttrLLMProvider, string(p.vendor)),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(body.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(body.Tools)),
		)
	}

	_, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, target.url, target.bearer, body, target.headers...)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.UpstreamError(p.vendor, 0, errors.New("no choices in response"))
	}

	response := chatCompletionToGeneric(*resp, request.Tools)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, response.Id),
			observability.String(observability.AttrLLMFinishReason, response.FinishReason),
			observability.Int(observability.AttrRequestToolCalls, len(response.ToolCalls)),
		)
	}
	return response, nil
}

// target is a fully resolved endpoint for one request.
type target struct {
	url     string
	bearer  string // sent as "Authorization: Bearer"; empty for Azure
	headers []utils.HeaderOption
}

// resolveTarget checks credentials and works out the URL and auth headers.
func (p *OpenAIProvider) resolveTarget(model string) (target, error) {
	if p.apiKey == "" {
		return target{}, ai.MissingCredentialError(p.vendor)
	}
	if p.baseURL == "" {
		return target{}, &ai.Error{
			Kind:       ai.KindMissingCredential,
			Vendor:     p.vendor,
			StatusCode: http.StatusUnauthorized,
			Message:    p.vendor.DisplayName() + " endpoint not found. Please set it in your profile settings.",
		}
	}

	base := strings.TrimRight(p.baseURL, "/")
	if p.vendor != ai.VendorAzure {
		t := target{url: base + chatCompletionsEndpoint, bearer: p.apiKey}
		if p.organization != "" {
			t.headers = append(t.headers, utils.WithHeader("OpenAI-Organization", p.organization))
		}
		return t, nil
	}

	deployment, known := p.deployments[model]
	if !known {
		return target{}, &ai.Error{
			Kind:       ai.KindUnsupportedModel,
			Vendor:     p.vendor,
			StatusCode: http.StatusBadRequest,
			Message:    "Model not found",
		}
	}
	if deployment == "" {
		return target{}, &ai.Error{
			Kind:       ai.KindMissingCredential,
			Vendor:     p.vendor,
			StatusCode: http.StatusUnauthorized,
			Message:    "Azure resources not found",
		}
	}
	return target{
		url: base + "/openai/deployments/" + url.PathEscape(deployment) + chatCompletionsEndpoint +
			"?api-version=" + url.QueryEscape(p.apiVersion),
		headers: []utils.HeaderOption{utils.WithHeader("api-key", p.apiKey)},
	}, nil
}

// classify turns a transport or status failure into the gateway taxonomy.
func (p *OpenAIProvider) classify(err error) error {
	return ai.UpstreamError(p.vendor, utils.StatusCodeOf(err), err)
}

func (p *OpenAIProvider) annotateSpan(ctx context.Context, request ai.ChatRequest, streaming bool) {
	span := observability.SpanFromContext(ctx)
	if span == nil {
		return
	}
	span.SetAttributes(
		observability.String(observability.AttrLLMProvider, string(p.vendor)),
		observability.String(observability.AttrLLMEndpoint, p.baseURL),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Bool("llm.streaming", streaming),
	)
}
