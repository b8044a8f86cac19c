// Package jsonschema holds the JSON Schema subset used for tool parameter
// descriptions and decodes it from the generic trees produced by JSON or YAML
// OpenAPI documents.
//
// [Decode] builds a [Schema] from a decoded node and inlines local "$ref"
// pointers through a caller-supplied [Resolver]; recursive references are cut
// at the first repetition.
package jsonschema
