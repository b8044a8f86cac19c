// Package anthropic implements [ai.Provider] and [ai.StreamProvider] for
// Anthropic's Messages API.
//
// The Messages schema differs from chat completions in three ways that the
// translation handles: system text goes in a top-level "system" field, images
// are base64 blocks whose media type is taken from the data URL prefix, and
// tool results are tool_result blocks inside a user turn, merged when several
// answer the same assistant turn. Requests always carry max_tokens, taken from
// the model table when the caller sets no ceiling.
//
// Streaming reads the named SSE events (message_start, content_block_delta,
// message_delta, message_stop, error) and maps them to [ai.StreamEvent]s.
package anthropic
