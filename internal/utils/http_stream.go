package utils

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/chatgate/providers/observability"
)

// DoPostStream performs an HTTP POST request and returns the response with its
// body left open for SSE reading; the caller closes it. On every error path the
// body is drained and closed here.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := newJSONRequest(ctx, url, apiKey, jsonBody, append([]HeaderOption{WithHeader("Accept", "text/event-stream")}, headers...))
	if err != nil {
		return nil, err
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.stream_request.error",
				observability.Error(err),
				observability.Duration(observability.AttrDuration, requestDuration),
			)
		}
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	// The body is only handed to the caller on success.
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			errorBody = []byte(fmt.Sprintf("failed to read body: %v", readErr))
		}
		return response, &StatusError{StatusCode: response.StatusCode, Status: response.Status, Body: string(errorBody)}
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrDuration, requestDuration),
		)
	}

	return response, nil
}

// maxResponseBodySize caps how much of an error body is read.
const maxResponseBodySize int64 = 10 << 20

// maxSSELine bounds one SSE line; tool-call arguments can be long.
const maxSSELine = 1 << 20

// SSEEvent is one dispatched Server-Sent Event.
type SSEEvent struct {
	Name string // the "event:" field, empty for unnamed events
	Data string // "data:" lines joined with newlines
}

// SSEReader splits a text/event-stream body into events. Comments, id and
// retry fields are dropped. The OpenAI "[DONE]" sentinel ends the stream.
type SSEReader struct {
	lines *bufio.Scanner
}

// NewSSEReader reads events from r.
func NewSSEReader(r io.Reader) *SSEReader {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64<<10), maxSSELine)
	return &SSEReader{lines: lines}
}

// Next returns the next event carrying data, or io.EOF at the end of the
// stream. A final event without a trailing blank line is still returned.
func (r *SSEReader) Next() (SSEEvent, error) {
	var event SSEEvent
	var data []string

	for r.lines.Scan() {
		line := r.lines.Text()
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch {
		case line == "":
			if len(data) > 0 {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			event = SSEEvent{}
		case field == "":
			// comment
		case field == "event":
			event.Name = strings.TrimSpace(value)
		case field == "data":
			if strings.TrimSpace(value) == "[DONE]" {
				return SSEEvent{}, io.EOF
			}
			data = append(data, strings.TrimSpace(value))
		}
	}
	if err := r.lines.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("reading event stream: %w", err)
	}
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}
	return SSEEvent{}, io.EOF
}
