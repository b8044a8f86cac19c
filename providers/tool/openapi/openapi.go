package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/chatgate/internal/jsonschema"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/tool"
)

// methods is the order operations of one path are visited in.
var methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

var (
	placeholderPattern = regexp.MustCompile(`\{([^{}/]+)\}`)
	unsafeNameChars    = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	repeatedUnderscore = regexp.MustCompile(`__+`)
)

// Info is the document-level metadata of a converted tool.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Server      string `json:"server"`
}

// Route maps one path template to the function generated for it.
type Route struct {
	Path          string `json:"path"`
	Method        string `json:"method"`
	OperationID   string `json:"operationId"`
	RequestInBody bool   `json:"requestInBody"`
}

// Result is the outcome of converting one OpenAPI document.
type Result struct {
	Info      Info                 `json:"info"`
	Functions []ai.ToolDescription `json:"functions"`
	Routes    []Route              `json:"routes"`
}

// Convert turns an OpenAPI 3 (or Swagger 2) document, JSON or YAML, into
// function descriptions and a route map. Every path+method pair yields one
// function and one route; both lists are in the same deterministic order.
// Structural problems are reported as SchemaConversion errors.
func Convert(document []byte) (*Result, error) {
	root, err := decodeDocument(document)
	if err != nil {
		return nil, err
	}

	// YAML may decode an unquoted version such as 2.0 as a number.
	if root["openapi"] == nil && root["swagger"] == nil {
		return nil, ai.NewError(ai.KindSchemaConversion, "document declares neither an openapi nor a swagger version")
	}

	info, _ := root["info"].(map[string]any)
	server, err := serverURL(root)
	if err != nil {
		return nil, err
	}

	paths, ok := root["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return nil, ai.NewError(ai.KindSchemaConversion, "document has no paths")
	}

	converter := &converter{
		resolve: jsonschema.LocalResolver(root),
		names:   map[string]int{},
	}
	result := &Result{
		Info: Info{
			Title:       stringField(info, "title"),
			Description: stringField(info, "description"),
			Server:      server,
		},
	}

	pathNames := make([]string, 0, len(paths))
	for path := range paths {
		pathNames = append(pathNames, path)
	}
	sort.Strings(pathNames)

	for _, path := range pathNames {
		item, ok := paths[path].(map[string]any)
		if !ok {
			return nil, ai.NewError(ai.KindSchemaConversion, "path %s is not an object", path)
		}
		shared, _ := item["parameters"].([]any)

		for _, method := range methods {
			operation, ok := item[method].(map[string]any)
			if !ok {
				continue
			}
			function, route, err := converter.operation(path, method, operation, shared)
			if err != nil {
				return nil, err
			}
			result.Functions = append(result.Functions, function)
			result.Routes = append(result.Routes, route)
		}
	}

	if len(result.Routes) == 0 {
		return nil, ai.NewError(ai.KindSchemaConversion, "document has no operations")
	}
	return result, nil
}

// BuildDescriptor turns a conversion result into a dispatchable descriptor.
// A descriptor has a single body mode, taken from its first route.
func BuildDescriptor(result *Result, headers map[string]string) *tool.Descriptor {
	descriptor := &tool.Descriptor{
		Title:       result.Info.Title,
		Description: result.Info.Description,
		ServerURL:   result.Info.Server,
		Headers:     headers,
		Functions:   result.Functions,
	}
	for _, route := range result.Routes {
		descriptor.Routes = append(descriptor.Routes, tool.Route{Path: route.Path, OperationID: route.OperationID})
	}
	if len(result.Routes) > 0 {
		descriptor.RequestInBody = result.Routes[0].RequestInBody
	}
	return descriptor
}

func decodeDocument(document []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 {
		return nil, ai.NewError(ai.KindSchemaConversion, "empty document")
	}

	var root map[string]any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, ai.WrapError(ai.KindSchemaConversion, err, "invalid JSON document")
		}
		return root, nil
	}

	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, ai.WrapError(ai.KindSchemaConversion, err, "invalid YAML document")
	}
	if root == nil {
		return nil, ai.NewError(ai.KindSchemaConversion, "document is not an object")
	}
	return root, nil
}

// serverURL returns servers[0].url, or for Swagger 2 documents the URL built
// from schemes, host and basePath.
func serverURL(root map[string]any) (string, error) {
	if servers, ok := root["servers"].([]any); ok && len(servers) > 0 {
		if server, ok := servers[0].(map[string]any); ok {
			if url := stringField(server, "url"); url != "" {
				return url, nil
			}
		}
	}

	if host := stringField(root, "host"); host != "" {
		scheme := "https"
		if schemes, ok := root["schemes"].([]any); ok && len(schemes) > 0 {
			if first, ok := schemes[0].(string); ok {
				scheme = first
			}
		}
		return scheme + "://" + host + stringField(root, "basePath"), nil
	}

	return "", ai.NewError(ai.KindSchemaConversion, "could not find a valid URL in servers")
}

type converter struct {
	resolve jsonschema.Resolver
	names   map[string]int // function names handed out so far
}

func (c *converter) operation(path, method string, operation map[string]any, shared []any) (ai.ToolDescription, Route, error) {
	name := c.functionName(path, method, stringField(operation, "operationId"))
	where := fmt.Sprintf("%s %s", strings.ToUpper(method), path)

	declared, _ := operation["parameters"].([]any)
	parameters, body, err := c.parameters(append(append([]any{}, shared...), declared...), where)
	if err != nil {
		return ai.ToolDescription{}, Route{}, err
	}

	bodyRequired := false
	if requestBody, ok := operation["requestBody"]; ok {
		body, bodyRequired, err = c.requestBody(requestBody, where)
		if err != nil {
			return ai.ToolDescription{}, Route{}, err
		}
	}

	schema := jsonschema.Object()
	if len(parameters.Properties) > 0 {
		schema.Properties["parameters"] = parameters
		if len(parameters.Required) > 0 {
			schema.Required = append(schema.Required, "parameters")
		}
	}
	if body != nil {
		schema.Properties["requestBody"] = body
		if bodyRequired {
			schema.Required = append(schema.Required, "requestBody")
		}
	}

	description := stringField(operation, "description")
	if summary := stringField(operation, "summary"); summary != "" && description == "" {
		description = summary
	}

	function := ai.ToolDescription{Name: name, Description: description, Parameters: schema}
	route := Route{
		Path:          placeholderPattern.ReplaceAllString(path, ":$1"),
		Method:        method,
		OperationID:   name,
		RequestInBody: body != nil,
	}
	return function, route, nil
}

// parameters builds the "parameters" object schema. Later declarations of the
// same name and location override earlier ones. A Swagger 2 "in: body"
// parameter is returned separately as the body schema.
func (c *converter) parameters(declared []any, where string) (*jsonschema.Schema, *jsonschema.Schema, error) {
	parameters := jsonschema.Object()
	var body *jsonschema.Schema
	required := map[string]bool{}

	for i, node := range declared {
		parameter, err := c.deref(node)
		if err != nil {
			return nil, nil, ai.WrapError(ai.KindSchemaConversion, err, "%s: parameter %d", where, i)
		}
		name := stringField(parameter, "name")
		if name == "" {
			return nil, nil, ai.NewError(ai.KindSchemaConversion, "%s: parameter %d has no name", where, i)
		}

		var schema *jsonschema.Schema
		if schemaNode, ok := parameter["schema"]; ok {
			if schema, err = jsonschema.Decode(schemaNode, c.resolve); err != nil {
				return nil, nil, ai.WrapError(ai.KindSchemaConversion, err, "%s: parameter %s", where, name)
			}
		} else {
			// Swagger 2 keeps the type on the parameter itself.
			schema = &jsonschema.Schema{Type: stringField(parameter, "type")}
			if schema.Type == "" {
				schema.Type = "string"
			}
		}
		if description := stringField(parameter, "description"); description != "" {
			schema.Description = description
		}

		if stringField(parameter, "in") == "body" {
			body = schema
			continue
		}

		parameters.Properties[name] = schema
		isRequired, _ := parameter["required"].(bool)
		if isRequired || stringField(parameter, "in") == "path" {
			required[name] = true
		} else {
			delete(required, name)
		}
	}

	for name := range required {
		parameters.Required = append(parameters.Required, name)
	}
	sort.Strings(parameters.Required)
	return parameters, body, nil
}

// requestBody picks the JSON media type of an OpenAPI 3 request body, or the
// first declared one when there is no JSON variant.
func (c *converter) requestBody(node any, where string) (*jsonschema.Schema, bool, error) {
	requestBody, err := c.deref(node)
	if err != nil {
		return nil, false, ai.WrapError(ai.KindSchemaConversion, err, "%s: requestBody", where)
	}
	required, _ := requestBody["required"].(bool)

	content, _ := requestBody["content"].(map[string]any)
	mediaTypes := make([]string, 0, len(content))
	for mediaType := range content {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)
	for i, mediaType := range mediaTypes {
		if strings.Contains(mediaType, "json") {
			mediaTypes[0], mediaTypes[i] = mediaTypes[i], mediaTypes[0]
			break
		}
	}

	if len(mediaTypes) == 0 {
		return &jsonschema.Schema{Type: "object"}, required, nil
	}
	media, _ := content[mediaTypes[0]].(map[string]any)
	schemaNode, ok := media["schema"]
	if !ok {
		return &jsonschema.Schema{Type: "object"}, required, nil
	}
	schema, err := jsonschema.Decode(schemaNode, c.resolve)
	if err != nil {
		return nil, false, ai.WrapError(ai.KindSchemaConversion, err, "%s: requestBody", where)
	}
	if description := stringField(requestBody, "description"); description != "" && schema.Description == "" {
		schema.Description = description
	}
	return schema, required, nil
}

// deref follows a "$ref" on a parameter or request body object.
func (c *converter) deref(node any) (map[string]any, error) {
	object, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", node)
	}
	for depth := 0; depth < 8; depth++ {
		ref, ok := object["$ref"].(string)
		if !ok {
			return object, nil
		}
		target, found := c.resolve(ref)
		if !found {
			return nil, fmt.Errorf("unresolved reference %q", ref)
		}
		if object, ok = target.(map[string]any); !ok {
			return nil, fmt.Errorf("reference %q is not an object", ref)
		}
	}
	return nil, fmt.Errorf("reference chain too deep")
}

// functionName returns the operationId, or "<method>_<path segments>", made
// safe for vendor function-name rules and unique within the document.
func (c *converter) functionName(path, method, operationID string) string {
	name := unsafeNameChars.ReplaceAllString(operationID, "_")
	if operationID == "" {
		name = repeatedUnderscore.ReplaceAllString(unsafeNameChars.ReplaceAllString(method+"_"+path, "_"), "_")
	}
	name = strings.Trim(name, "_")
	if name == "" {
		name = method
	}

	candidate := name
	for n := 2; c.names[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	c.names[candidate]++
	return candidate
}

func stringField(object map[string]any, key string) string {
	if object == nil {
		return ""
	}
	text, _ := object[key].(string)
	return text
}
