// Package openai is the adapter for every vendor that speaks the chat
// completions schema: OpenAI, Azure OpenAI, Mistral, Llama API, Perplexity,
// OpenRouter and user-configured custom endpoints.
//
// [ForVendor] builds a provider from an [ai.ProviderConfig]; vendors differ
// only in base URL, auth header and (Azure) deployment resolution. Streaming
// is available through [OpenAIProvider.StreamMessage].
package openai
