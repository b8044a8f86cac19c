package ai

import (
	"context"
	"net/http"
)

// StreamProvider is implemented by adapters that can stream a completion.
// Callers detect it via type assertion and fall back to SendMessage otherwise.
type StreamProvider interface {
	Provider
	// StreamMessage sends a chat request and returns a ChatStream that yields
	// incremental deltas as they arrive from the API. Pre-stream errors
	// (auth, bad request, network) are returned as a normal error. Mid-stream
	// errors are yielded through the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// Provider is the capability set every vendor adapter offers: translating a
// canonical request to the vendor wire format and completing it.
type Provider interface {
	// Vendor identifies the upstream API served by the adapter.
	Vendor() Vendor

	// SendMessage sends a chat request to the provider and returns the
	// completed response. Failures are *Error values of kind
	// UpstreamRequest, InvalidCredential or a translation kind.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// Translate renders the request body exactly as it would be sent, without
	// issuing it.
	Translate(request ChatRequest) (any, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}
