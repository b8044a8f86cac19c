package tool

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/chatgate/providers/ai"
)

// Route maps a path template to the function that calls it. Templates use
// ":name" placeholders, e.g. "/users/:id".
type Route struct {
	Path        string `json:"path"`
	OperationID string `json:"operation_id"`
}

// Descriptor is one HTTP service the model may call, derived from an OpenAPI
// document. Routes is ordered: when two routes share an operation id the
// first wins.
type Descriptor struct {
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	ServerURL     string               `json:"server_url"`
	Routes        []Route              `json:"routes"`
	RequestInBody bool                 `json:"request_in_body"`
	Headers       map[string]string    `json:"headers,omitempty"`
	Functions     []ai.ToolDescription `json:"functions,omitempty"`
}

// PathFor returns the path template of function, if the descriptor has one.
func (d *Descriptor) PathFor(function string) (string, bool) {
	for _, route := range d.Routes {
		if route.OperationID == function {
			return route.Path, true
		}
	}
	return "", false
}

// ParseHeaders decodes custom headers stored as a JSON object string. Values
// that are not strings are re-encoded as JSON text. An empty input yields no
// headers.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, ai.WrapError(ai.KindSchemaConversion, err, "custom headers must be a JSON object")
	}
	headers := make(map[string]string, len(decoded))
	for name, value := range decoded {
		if text, ok := value.(string); ok {
			headers[name] = text
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, ai.WrapError(ai.KindSchemaConversion, err, "custom header %q", name)
		}
		headers[name] = string(encoded)
	}
	return headers, nil
}
