package ai

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// StreamEventType tags the payload of a StreamEvent.
type StreamEventType string

const (
	StreamEventContent  StreamEventType = "content"
	StreamEventToolCall StreamEventType = "tool_call" // one fragment of a tool call
	StreamEventUsage    StreamEventType = "usage"
	StreamEventDone     StreamEventType = "done"
	StreamEventError    StreamEventType = "error" // an error reported inside the stream body
)

// ToolCallDelta is a fragment of the tool call at Index. ID and Name arrive
// with the first fragment; later ones only extend Arguments.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent is one upstream delta, normalized across vendors.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ChatStream is a single-use sequence of stream events. Adapters hold the
// upstream body open until the sequence ends or the consumer stops early, so
// every stream must be ranged over (Iter, Chunks) or drained (Collect).
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream wraps an adapter iterator. A non-nil error ends the stream.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream replays a complete response as a stream, for
// providers or middleware that only answer synchronously.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	events := make([]StreamEvent, 0, len(response.ToolCalls)+3)
	if response.Content != "" {
		events = append(events, StreamEvent{Type: StreamEventContent, Content: response.Content})
	}
	for i, call := range response.ToolCalls {
		events = append(events, StreamEvent{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{
			Index:     i,
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}})
	}
	if response.Usage != nil {
		events = append(events, StreamEvent{Type: StreamEventUsage, Usage: response.Usage})
	}
	events = append(events, StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason})

	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	})
}

// Iter exposes the raw event sequence.
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect drains the stream into one response, assembling tool call
// fragments by index. On failure the partial response is returned with the
// error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	response := &ChatResponse{}
	var calls []toolCallBuilder

	for event, err := range stream.iterator {
		if err != nil {
			return response, err
		}
		switch event.Type {
		case StreamEventContent:
			response.Content += event.Content
		case StreamEventToolCall:
			if event.ToolCall != nil {
				calls = accumulateToolCallDelta(calls, event.ToolCall)
			}
		case StreamEventUsage:
			if event.Usage != nil {
				response.Usage = event.Usage
			}
		case StreamEventDone:
			response.FinishReason = event.FinishReason
		case StreamEventError:
			return response, NewError(KindUpstreamRequest, "stream error: %s", event.Error)
		}
	}

	for _, call := range calls {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:       call.id,
			Type:     "function",
			Function: ToolCallFunction{Name: call.name, Arguments: call.arguments.String()},
		})
	}
	return response, nil
}

// StreamChunk is one ordered text delta delivered to the caller. The final
// chunk of every stream has Done set and carries no text.
type StreamChunk struct {
	Sequence  int    `json:"sequence"`
	TextDelta string `json:"text_delta,omitempty"`
	Done      bool   `json:"done"`
}

// Chunks converts the event stream into caller-facing text chunks. Sequence
// numbers start at zero and increase by one per chunk. Non-text events are
// dropped. A mid-stream failure ends the sequence with a Done chunk paired
// with the error; no partial chunk follows it.
func (stream *ChatStream) Chunks() iter.Seq2[StreamChunk, error] {
	return func(yield func(StreamChunk, error) bool) {
		sequence := 0
		for event, err := range stream.iterator {
			if err != nil {
				yield(StreamChunk{Sequence: sequence, Done: true}, asStreamError(err))
				return
			}

			switch event.Type {
			case StreamEventContent:
				if event.Content == "" {
					continue
				}
				if !yield(StreamChunk{Sequence: sequence, TextDelta: event.Content}, nil) {
					return
				}
				sequence++

			case StreamEventError:
				yield(StreamChunk{Sequence: sequence, Done: true}, NewError(KindUpstreamRequest, "stream error: %s", event.Error))
				return

			case StreamEventDone:
				yield(StreamChunk{Sequence: sequence, Done: true}, nil)
				return
			}
		}
		yield(StreamChunk{Sequence: sequence, Done: true}, nil)
	}
}

// asStreamError keeps typed and context errors as they are and classifies
// anything else as an interrupted upstream stream.
func asStreamError(err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return WrapError(KindUpstreamRequest, err, "stream interrupted")
}

type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// accumulateToolCallDelta applies delta to builders, growing the slice when a
// new index shows up.
func accumulateToolCallDelta(builders []toolCallBuilder, delta *ToolCallDelta) []toolCallBuilder {
	if delta.Index < 0 {
		return builders
	}
	for len(builders) <= delta.Index {
		builders = append(builders, toolCallBuilder{})
	}
	builder := &builders[delta.Index]
	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	builder.arguments.WriteString(delta.Arguments)
	return builders
}
