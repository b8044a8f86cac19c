// Package openapi converts OpenAPI documents into the function descriptions
// offered to a model and the route map the tool dispatcher uses to call them.
//
// [Convert] accepts JSON or YAML. Operations are visited in sorted path order
// and a fixed method order, so the same document always yields the same
// functions. Path placeholders are rewritten from "{id}" to ":id".
// [BuildDescriptor] packages a [Result] as a tool.Descriptor.
package openapi
