package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func readAll(t *testing.T, reader *SSEReader) []SSEEvent {
	t.Helper()
	var events []SSEEvent
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, event)
	}
}

// TestSSEReader covers event framing: multi-line data, comments, named
// events, ignored fields, the [DONE] sentinel and an unterminated tail.
func TestSSEReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []SSEEvent
	}{
		{"empty", "", nil},
		{"single", "data: hello\n\n", []SSEEvent{{Data: "hello"}}},
		{"ordered", "data: a\n\ndata: b\n\ndata: c\n\n", []SSEEvent{{Data: "a"}, {Data: "b"}, {Data: "c"}}},
		{"multi-line data", "data: one\ndata: two\n\n", []SSEEvent{{Data: "one\ntwo"}}},
		{"comments", ": keep-alive\n\ndata: x\n\n", []SSEEvent{{Data: "x"}}},
		{"other fields", "id: 7\nretry: 100\ndata: x\n\n", []SSEEvent{{Data: "x"}}},
		{"done sentinel", "data: a\n\ndata: [DONE]\n\ndata: after\n\n", []SSEEvent{{Data: "a"}}},
		{"unterminated tail", "data: a\n\ndata: tail", []SSEEvent{{Data: "a"}, {Data: "tail"}}},
		{
			"named events",
			"event: message_start\ndata: {\"a\":1}\n\ndata: {\"b\":2}\n\nevent: ping\n\n",
			[]SSEEvent{{Name: "message_start", Data: `{"a":1}`}, {Data: `{"b":2}`}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, NewSSEReader(strings.NewReader(tt.input)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestSSEReader_LineTooLong verifies oversized lines fail instead of being
// silently truncated.
func TestSSEReader_LineTooLong(t *testing.T) {
	input := "data: " + strings.Repeat("x", maxSSELine+1) + "\n\n"
	_, err := NewSSEReader(strings.NewReader(input)).Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected a read error, got %v", err)
	}
}

// TestDoPostStream_OpenBody verifies a 2xx answer is returned unread with
// SSE request headers set.
func TestDoPostStream_OpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected SSE accept header, got %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Vendor") != "custom" {
			t.Errorf("expected custom header, got %q", r.Header.Get("X-Vendor"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: chunk1\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), server.Client(), server.URL, "secret",
		map[string]string{"q": "test"}, WithHeader("X-Vendor", "custom"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer CloseWithLog(response.Body)

	events := readAll(t, NewSSEReader(response.Body))
	if len(events) != 1 || events[0].Data != "chunk1" {
		t.Errorf("unexpected events %+v", events)
	}
}

// TestDoPostStream_StatusError verifies non-2xx answers carry their status
// and body.
func TestDoPostStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", 529)
	}))
	defer server.Close()

	_, err := DoPostStream(context.Background(), server.Client(), server.URL, "", map[string]string{})
	if StatusCodeOf(err) != 529 {
		t.Fatalf("expected status 529, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !strings.Contains(statusErr.Body, "overloaded") {
		t.Errorf("expected body in status error, got %v", err)
	}
}

// TestDoPostStream_Cancelled verifies a cancelled context fails the request.
func TestDoPostStream_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DoPostStream(ctx, server.Client(), server.URL, "", map[string]string{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
