package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/leofalp/chatgate/providers/ai"
)

// writeEvent writes one named SSE event and flushes.
func writeEvent(writer http.ResponseWriter, name, data string) {
	fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", name, data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

// TestStreamMessage_Text verifies text deltas, usage and the stop reason.
func TestStreamMessage_Text(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected SSE accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","usage":{"input_tokens":9,"output_tokens":0}}}`)
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(w, "ping", `{"type":"ping"}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"2+2"}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"=4"}}`)
		writeEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":3}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	})

	stream, err := provider.StreamMessage(context.Background(), claudeRequest("2+2?"))
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}
	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if response.Content != "2+2=4" || response.FinishReason != "stop" {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 12 {
		t.Errorf("unexpected usage %+v", response.Usage)
	}
}

// TestStreamMessage_ToolUse verifies a tool_use block is assembled from its
// start event and input_json_delta fragments.
func TestStreamMessage_ToolUse(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"getWeather","input":{}}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"Rome\"}"}}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":7}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	})

	stream, err := provider.StreamMessage(context.Background(), claudeRequest("weather?"))
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}
	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if response.FinishReason != "tool_calls" || len(response.ToolCalls) != 1 {
		t.Fatalf("unexpected response %+v", response)
	}
	call := response.ToolCalls[0]
	if call.ID != "toolu_1" || call.Function.Name != "getWeather" || call.Function.Arguments != `{"city":"Rome"}` {
		t.Errorf("unexpected tool call %+v", call)
	}
}

// TestStreamMessage_ErrorEvent verifies an in-band error ends the chunk
// sequence with a done marker and an upstream error.
func TestStreamMessage_ErrorEvent(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"par"}}`)
		writeEvent(w, "error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	})

	stream, err := provider.StreamMessage(context.Background(), claudeRequest("hi"))
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}

	var chunks []ai.StreamChunk
	var streamErr error
	for chunk, err := range stream.Chunks() {
		chunks = append(chunks, chunk)
		if err != nil {
			streamErr = err
		}
	}
	if !ai.IsKind(streamErr, ai.KindUpstreamRequest) {
		t.Fatalf("expected upstream error, got %v", streamErr)
	}
	if !strings.Contains(streamErr.Error(), "Overloaded") {
		t.Errorf("expected vendor message in error, got %q", streamErr.Error())
	}
	if len(chunks) != 2 || chunks[0].TextDelta != "par" || !chunks[1].Done {
		t.Errorf("unexpected chunks %+v", chunks)
	}
}

// TestStreamMessage_MalformedPayload verifies an unparseable event becomes an
// upstream error.
func TestStreamMessage_MalformedPayload(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvent(w, "content_block_delta", `{not json`)
	})

	stream, err := provider.StreamMessage(context.Background(), claudeRequest("hi"))
	if err != nil {
		t.Fatalf("StreamMessage returned error: %v", err)
	}
	_, err = stream.Collect()
	if !ai.IsKind(err, ai.KindUpstreamRequest) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

// TestStreamMessage_PreStreamError verifies a 401 before streaming is returned
// directly.
func TestStreamMessage_PreStreamError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"message":"invalid x-api-key"}}`, http.StatusUnauthorized)
	})

	_, err := provider.StreamMessage(context.Background(), claudeRequest("hi"))
	if !ai.IsKind(err, ai.KindInvalidCredential) {
		t.Fatalf("expected InvalidCredential, got %v", err)
	}
}

// TestStreamState_Apply covers event mapping without a server.
func TestStreamState_Apply(t *testing.T) {
	state := &streamState{}

	events, done := state.apply(&streamEvent{Type: "input_json_delta_without_block", Delta: &streamDelta{Type: "input_json_delta", PartialJSON: "{}"}})
	if len(events) != 0 || done {
		t.Errorf("unexpected events %+v", events)
	}

	events, _ = state.apply(&streamEvent{Type: "content_block_delta", Delta: &streamDelta{Type: "input_json_delta", PartialJSON: "{}"}})
	if len(events) != 0 {
		t.Errorf("expected argument fragment without an open tool block to be dropped, got %+v", events)
	}

	events, done = state.apply(&streamEvent{Type: "message_stop"})
	if !done || len(events) != 1 || events[0].Type != ai.StreamEventDone || events[0].FinishReason != "stop" {
		t.Errorf("unexpected stop events %+v (done=%v)", events, done)
	}
}

// TestDecodeStreamEvent_NamePrecedence verifies the SSE event name wins over
// the payload type.
func TestDecodeStreamEvent_NamePrecedence(t *testing.T) {
	event, err := decodeStreamEvent("message_stop", `{"type":"ping"}`)
	if err != nil || event.Type != "message_stop" {
		t.Fatalf("unexpected result %+v, %v", event, err)
	}
	event, err = decodeStreamEvent("", `{"type":"ping"}`)
	if err != nil || event.Type != "ping" {
		t.Fatalf("unexpected result %+v, %v", event, err)
	}
	if _, err := decodeStreamEvent("", `{}`); err == nil {
		t.Error("expected missing type to fail")
	}
}
