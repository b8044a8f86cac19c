package jsonschema

import (
	"fmt"
	"sort"
	"strings"
)

// Resolver looks up the node a "$ref" pointer designates.
type Resolver func(ref string) (any, bool)

// Decode builds a Schema from a generic node (map[string]any as produced by
// encoding/json or yaml.v3). References are inlined through resolve; a nil
// resolver leaves them unresolved as an untyped schema carrying only the
// description.
func Decode(node any, resolve Resolver) (*Schema, error) {
	decoder := &decoder{resolve: resolve, active: map[string]bool{}}
	return decoder.decode(node, "#")
}

type decoder struct {
	resolve Resolver
	active  map[string]bool // refs currently being expanded
}

func (d *decoder) decode(node any, path string) (*Schema, error) {
	object, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: schema must be an object, got %T", path, node)
	}

	if ref, ok := object["$ref"].(string); ok {
		return d.decodeRef(ref, path)
	}

	schema := &Schema{
		Type:        typeName(object["type"]),
		Description: stringValue(object["description"]),
		Format:      stringValue(object["format"]),
		Default:     object["default"],
	}

	if enum, ok := object["enum"].([]any); ok {
		schema.Enum = enum
	}
	if required, ok := object["required"].([]any); ok {
		for _, name := range required {
			if text, ok := name.(string); ok {
				schema.Required = append(schema.Required, text)
			}
		}
	}
	schema.Minimum = numberValue(object["minimum"])
	schema.Maximum = numberValue(object["maximum"])

	if properties, ok := object["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*Schema, len(properties))
		names := make([]string, 0, len(properties))
		for name := range properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			property, err := d.decode(properties[name], path+"/properties/"+name)
			if err != nil {
				return nil, err
			}
			schema.Properties[name] = property
		}
	}

	if items, ok := object["items"]; ok {
		itemSchema, err := d.decode(items, path+"/items")
		if err != nil {
			return nil, err
		}
		schema.Items = itemSchema
	}

	switch additional := object["additionalProperties"].(type) {
	case bool:
		schema.AdditionalProperties = additional
	case map[string]any:
		additionalSchema, err := d.decode(additional, path+"/additionalProperties")
		if err != nil {
			return nil, err
		}
		schema.AdditionalProperties = additionalSchema
	}

	var err error
	if schema.AnyOf, err = d.decodeList(object["anyOf"], path+"/anyOf"); err != nil {
		return nil, err
	}
	if schema.OneOf, err = d.decodeList(object["oneOf"], path+"/oneOf"); err != nil {
		return nil, err
	}
	if schema.AllOf, err = d.decodeList(object["allOf"], path+"/allOf"); err != nil {
		return nil, err
	}

	return schema, nil
}

func (d *decoder) decodeRef(ref, path string) (*Schema, error) {
	if d.resolve == nil {
		return &Schema{Description: "reference " + ref}, nil
	}
	if d.active[ref] {
		// Recursive reference: stop expanding and accept any object.
		return &Schema{Type: "object", Description: "recursive reference " + ref}, nil
	}

	target, ok := d.resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%s: unresolved reference %q", path, ref)
	}

	d.active[ref] = true
	defer delete(d.active, ref)
	return d.decode(target, ref)
}

func (d *decoder) decodeList(node any, path string) ([]*Schema, error) {
	list, ok := node.([]any)
	if !ok {
		return nil, nil
	}
	schemas := make([]*Schema, 0, len(list))
	for i, item := range list {
		schema, err := d.decode(item, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

// LocalResolver resolves "#/a/b/c" pointers against a decoded document root.
func LocalResolver(root map[string]any) Resolver {
	return func(ref string) (any, bool) {
		pointer, ok := strings.CutPrefix(ref, "#/")
		if !ok {
			return nil, false
		}
		var current any = root
		for _, token := range strings.Split(pointer, "/") {
			token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
			object, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = object[token]; !ok {
				return nil, false
			}
		}
		return current, true
	}
}

func typeName(node any) string {
	switch value := node.(type) {
	case string:
		return value
	case []any:
		// JSON Schema 2020 type arrays: keep the first non-null entry.
		for _, entry := range value {
			if text, ok := entry.(string); ok && text != "null" {
				return text
			}
		}
	}
	return ""
}

func stringValue(node any) string {
	text, _ := node.(string)
	return text
}

func numberValue(node any) *float64 {
	var number float64
	switch value := node.(type) {
	case float64:
		number = value
	case int:
		number = float64(value)
	case int64:
		number = float64(value)
	default:
		return nil
	}
	return &number
}
