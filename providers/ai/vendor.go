package ai

import "strings"

// Vendor identifies an upstream LLM API. The set is closed; adapters are
// selected by switching over it.
type Vendor string

const (
	VendorOpenAI     Vendor = "openai"
	VendorAzure      Vendor = "azure"
	VendorAnthropic  Vendor = "anthropic"
	VendorMistral    Vendor = "mistral"
	VendorLlama      Vendor = "llama"
	VendorPerplexity Vendor = "perplexity"
	VendorOpenRouter Vendor = "openrouter"
	VendorCustom     Vendor = "custom"
)

// Vendors lists every supported vendor in a stable order.
func Vendors() []Vendor {
	return []Vendor{
		VendorOpenAI, VendorAzure, VendorAnthropic, VendorMistral,
		VendorLlama, VendorPerplexity, VendorOpenRouter, VendorCustom,
	}
}

// ParseVendor resolves a route segment to a Vendor.
func ParseVendor(name string) (Vendor, bool) {
	candidate := Vendor(strings.ToLower(strings.TrimSpace(name)))
	for _, vendor := range Vendors() {
		if vendor == candidate {
			return vendor, true
		}
	}
	return "", false
}

// DisplayName is the human-facing vendor name used in error messages.
func (v Vendor) DisplayName() string {
	switch v {
	case VendorOpenAI:
		return "OpenAI"
	case VendorAzure:
		return "Azure OpenAI"
	case VendorAnthropic:
		return "Anthropic"
	case VendorMistral:
		return "Mistral"
	case VendorLlama:
		return "Llama"
	case VendorPerplexity:
		return "Perplexity"
	case VendorOpenRouter:
		return "OpenRouter"
	case VendorCustom:
		return "Custom"
	default:
		return string(v)
	}
}

// OpenAICompatible reports whether the vendor speaks the chat-completions wire schema.
func (v Vendor) OpenAICompatible() bool {
	return v != VendorAnthropic
}

// ProviderConfig carries the credentials and endpoint settings for one vendor.
// It is supplied per request and never persisted by the gateway.
type ProviderConfig struct {
	Vendor       Vendor            `json:"vendor" mapstructure:"-"`
	APIKey       string            `json:"-" mapstructure:"api_key"`
	BaseURL      string            `json:"base_url,omitempty" mapstructure:"base_url"`
	Organization string            `json:"organization,omitempty" mapstructure:"organization"`
	APIVersion   string            `json:"api_version,omitempty" mapstructure:"api_version"`
	Deployments  map[string]string `json:"deployments,omitempty" mapstructure:"deployments"` // model id -> Azure deployment id
}
