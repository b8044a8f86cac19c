// Package parse recovers JSON from model output: tool call arguments that are
// not quite valid JSON, and tool calls a model wrote into its text content
// instead of the structured tool_calls field.
package parse
