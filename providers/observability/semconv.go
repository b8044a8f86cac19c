package observability

// Attribute keys, span names and metric names shared by the gateway
// components.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the vendor serving the request (e.g., "openai", "anthropic")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4o", "claude-3-5-haiku-20241022")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier from the provider
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMMaxTokens is the output ceiling sent upstream
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensTotal is the total number of tokens reported by the vendor
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Tool Attributes ---

const (
	// AttrToolName is the function name issued by the model
	AttrToolName = "tool.name"

	// AttrToolCallID is the vendor id of the tool call
	AttrToolCallID = "tool.call_id"

	// AttrToolTitle is the title of the OpenAPI document the function belongs to
	AttrToolTitle = "tool.title"

	// AttrToolError is the error message if dispatch failed
	AttrToolError = "tool.error"

	// AttrToolErrorKind is the taxonomy kind of a dispatch failure
	AttrToolErrorKind = "tool.error_kind"
)

// --- Gateway Attributes ---

const (
	// AttrRequestID is the id assigned to an inbound chat request
	AttrRequestID = "request.id"

	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrRequestToolsCount is the number of functions offered to the model
	AttrRequestToolsCount = "request.tools_count"

	// AttrRequestToolCalls is the number of tool calls returned in round one
	AttrRequestToolCalls = "request.tool_calls"

	// AttrGatewayState is the orchestrator state entered
	AttrGatewayState = "gateway.state"

	// AttrStreamChunks is the number of chunks delivered to the caller
	AttrStreamChunks = "stream.chunks"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrErrorKind is the taxonomy kind of an error
	AttrErrorKind = "error.kind"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanChatRequest covers one inbound chat request end to end
	SpanChatRequest = "gateway.chat"

	// SpanLLMRequest is the span name for vendor API requests
	SpanLLMRequest = "llm.request"

	// SpanToolDispatch is the span name for one tool call
	SpanToolDispatch = "tool.dispatch"
)

// --- Metric Names ---

const (
	// MetricChatRequests counts inbound chat requests by vendor and outcome
	MetricChatRequests = "chatgate.chat.requests"

	// MetricChatDuration records request duration in seconds
	MetricChatDuration = "chatgate.chat.duration"

	// MetricToolDispatches counts tool calls by outcome
	MetricToolDispatches = "chatgate.tool.dispatches"
)
