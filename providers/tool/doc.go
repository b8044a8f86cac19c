// Package tool executes the function calls a model issues against external
// HTTP services.
//
// A [Descriptor] describes one service: its server URL, an ordered route map
// from ":name" path templates to operation ids, whether arguments travel in a
// JSON body, and custom headers. Descriptors are normally produced by the
// openapi subpackage. A [Catalog] holds the descriptors selected for one
// request and resolves function names to routes.
//
// [Dispatcher.Dispatch] turns one ai.ToolCall into one HTTP request and one
// Tool message. Failures are data: the message always exists and carries the
// error as JSON, so the conversation can continue.
package tool
