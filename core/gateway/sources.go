package gateway

import (
	"context"
	"time"

	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/ai/anthropic"
	"github.com/leofalp/chatgate/providers/ai/openai"
)

// CredentialSource supplies the provider profile of a vendor. Implementations
// return a MissingCredential error when the vendor is not configured.
type CredentialSource interface {
	Credentials(ctx context.Context, vendor ai.Vendor) (ai.ProviderConfig, error)
}

// CredentialsFunc adapts a function to CredentialSource.
type CredentialsFunc func(ctx context.Context, vendor ai.Vendor) (ai.ProviderConfig, error)

func (f CredentialsFunc) Credentials(ctx context.Context, vendor ai.Vendor) (ai.ProviderConfig, error) {
	return f(ctx, vendor)
}

// ToolRecord is a stored tool: an OpenAPI document plus the headers sent with
// every call. CustomHeaders is a JSON object encoded as a string.
type ToolRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Schema        string    `json:"schema"`
	CustomHeaders string    `json:"custom_headers,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToolSource looks up stored tools for selections that carry only an id.
type ToolSource interface {
	ToolSchema(ctx context.Context, id string) (ToolRecord, error)
}

// CustomModel is a caller-defined OpenAI-compatible endpoint.
type CustomModel struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ModelID       string    `json:"model_id"`
	BaseURL       string    `json:"base_url"`
	APIKey        string    `json:"-"`
	ContextLength int       `json:"context_length,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModelSource resolves custom models for the custom route.
type ModelSource interface {
	CustomModel(ctx context.Context, id string) (CustomModel, error)
}

// ProviderFactory builds the adapter serving a profile.
type ProviderFactory func(cfg ai.ProviderConfig) (ai.Provider, error)

// NewProvider selects the adapter for cfg.Vendor.
func NewProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	switch cfg.Vendor {
	case ai.VendorAnthropic:
		return anthropic.FromConfig(cfg), nil
	case ai.VendorOpenAI, ai.VendorAzure, ai.VendorMistral, ai.VendorLlama,
		ai.VendorPerplexity, ai.VendorOpenRouter, ai.VendorCustom:
		return openai.ForVendor(cfg)
	default:
		return nil, ai.NewError(ai.KindUnsupportedModel, "unknown vendor %q", cfg.Vendor)
	}
}
