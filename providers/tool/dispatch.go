package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

const (
	// MaxResultSize caps how much of a tool response is fed back to the model.
	MaxResultSize = 1 << 20

	// DefaultTimeout bounds one tool call when the dispatcher builds its own client.
	DefaultTimeout = 30 * time.Second

	userAgent = "chatgate-tools/1.0"
)

// PlaceholderPattern matches a ":name" route placeholder. The name runs to the
// end of the path segment, so it may contain hyphens and dots.
var PlaceholderPattern = regexp.MustCompile(`:([^/]+)`)

// Dispatcher executes model-issued tool calls against the services in its
// catalog. Each call makes exactly one HTTP request and is never retried.
type Dispatcher struct {
	Client  *http.Client
	Catalog *Catalog
}

// NewDispatcher returns a dispatcher over catalog with a client bounded by
// DefaultTimeout.
func NewDispatcher(catalog *Catalog) *Dispatcher {
	return &Dispatcher{
		Client:  &http.Client{Timeout: DefaultTimeout},
		Catalog: catalog,
	}
}

// Dispatch runs one tool call and returns the Tool message answering it.
//
// The message is returned even when dispatch fails: its content then encodes
// the failure as {"error": ..., "kind": ...} so the model can react in the
// next round. The error is returned alongside for logging; it is an *ai.Error
// of kind ArgumentParse, UnknownFunction, MissingPathParameter or
// UpstreamRequest (the service could not be reached). A non-2xx answer from
// the service is not an error: it becomes {"error": <status text>}.
func (d *Dispatcher) Dispatch(ctx context.Context, call ai.ToolCall) (ai.Message, error) {
	name := call.Function.Name
	observer := observability.ObserverFromContext(ctx)

	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanToolDispatch,
			observability.String(observability.AttrToolName, name),
			observability.String(observability.AttrToolCallID, call.ID),
		)
		defer span.End()
	}

	start := time.Now()
	content, err := d.execute(ctx, call, span)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		content = errorPayload(err)
		if span != nil {
			span.RecordError(err)
			span.SetAttributes(
				observability.String(observability.AttrToolError, err.Error()),
				observability.String(observability.AttrToolErrorKind, string(ai.KindOf(err))),
			)
		}
		if observer != nil {
			observer.Warn(ctx, "tool dispatch failed",
				observability.String(observability.AttrToolName, name),
				observability.String(observability.AttrErrorKind, string(ai.KindOf(err))),
				observability.Error(err),
			)
		}
	}

	if observer != nil {
		observer.Counter(observability.MetricToolDispatches).Add(ctx, 1,
			observability.String(observability.AttrToolName, name),
			observability.String(observability.AttrStatus, outcome),
		)
		observer.Debug(ctx, "tool dispatched",
			observability.String(observability.AttrToolName, name),
			observability.Duration(observability.AttrDuration, time.Since(start)),
			observability.Int(observability.AttrHTTPResponseBodySize, len(content)),
		)
	}

	return ai.NewToolMessage(call.ID, name, content), err
}

func (d *Dispatcher) execute(ctx context.Context, call ai.ToolCall, span observability.Span) (string, error) {
	name := call.Function.Name

	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		return "", err
	}

	if d.Catalog == nil {
		return "", ai.NewError(ai.KindUnknownFunction, "function %s not found in any schema", name)
	}
	descriptor, template, err := d.Catalog.Resolve(name)
	if err != nil {
		return "", err
	}

	params, err := parametersOf(args)
	if err != nil {
		return "", err
	}
	path, used, err := expandPath(template, params, name)
	if err != nil {
		return "", err
	}

	request, err := buildRequest(ctx, descriptor, path, args, params, used)
	if err != nil {
		return "", err
	}
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolTitle, descriptor.Title),
			observability.String(observability.AttrHTTPMethod, request.Method),
			observability.String(observability.AttrHTTPURL, request.URL.String()),
		)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(request)
	if err != nil {
		return "", ai.WrapError(ai.KindUpstreamRequest, err, "calling %s", name)
	}
	defer utils.CloseWithLog(response.Body)

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, response.StatusCode))
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		statusText := http.StatusText(response.StatusCode)
		if statusText == "" {
			statusText = response.Status
		}
		return encodeJSON(map[string]string{"error": statusText}), nil
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxResultSize))
	if err != nil {
		return "", ai.WrapError(ai.KindUpstreamRequest, err, "reading %s response", name)
	}
	return resultPayload(response.Header.Get("Content-Type"), body), nil
}

// decodeArguments parses the model's argument text as a JSON object. An empty
// string means no arguments.
func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, ai.WrapError(ai.KindArgumentParse, err, "arguments are not a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func parametersOf(args map[string]any) (map[string]any, error) {
	switch params := args["parameters"].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return params, nil
	default:
		return nil, ai.NewError(ai.KindArgumentParse, "parameters must be an object, got %T", params)
	}
}

// expandPath substitutes ":name" placeholders with URL-escaped parameter
// values. used reports which parameters went into the path.
func expandPath(template string, params map[string]any, function string) (string, map[string]bool, error) {
	used := make(map[string]bool)
	missing := ""
	path := PlaceholderPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		name := placeholder[1:]
		value := formatValue(params[name])
		if value == "" {
			if missing == "" {
				missing = name
			}
			return placeholder
		}
		used[name] = true
		return url.PathEscape(value)
	})
	if missing != "" {
		return "", nil, ai.NewError(ai.KindMissingPathParameter, "parameter %s not found for function %s", missing, function)
	}
	return path, used, nil
}

func buildRequest(ctx context.Context, descriptor *Descriptor, path string, args, params map[string]any, used map[string]bool) (*http.Request, error) {
	target := strings.TrimRight(descriptor.ServerURL, "/") + path

	var request *http.Request
	var err error
	if descriptor.RequestInBody {
		payload, ok := args["requestBody"]
		if !ok || payload == nil {
			payload = args
		}
		body, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, ai.WrapError(ai.KindArgumentParse, marshalErr, "encoding request body")
		}
		request, err = http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err == nil {
			request.Header.Set("Content-Type", "application/json")
		}
	} else {
		query := url.Values{}
		for name, value := range params {
			if !used[name] && value != nil {
				query.Set(name, formatValue(value))
			}
		}
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
		request, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}
	if err != nil {
		return nil, ai.WrapError(ai.KindUpstreamRequest, err, "building request for %s", target)
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)
	for name, value := range descriptor.Headers {
		request.Header.Set(name, value)
	}
	return request, nil
}

// formatValue renders a decoded JSON value for a URL. nil renders as "".
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return encodeJSON(v)
	}
}

// resultPayload turns a successful response body into the JSON text of the
// tool message. HTML is converted to markdown; anything that is not JSON is
// sent as a JSON string.
func resultPayload(contentType string, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/html" {
		if markdown, err := htmltomarkdown.ConvertString(string(body)); err == nil {
			return encodeJSON(markdown)
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return string(trimmed)
	}
	return encodeJSON(string(body))
}

func errorPayload(err error) string {
	payload := map[string]string{"error": err.Error()}
	if kind := ai.KindOf(err); kind != "" {
		payload["kind"] = string(kind)
	}
	return encodeJSON(payload)
}

func encodeJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return `{"error":"unencodable tool result"}`
	}
	return string(encoded)
}
