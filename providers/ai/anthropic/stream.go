package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
)

// StreamMessage posts the request with stream=true and returns a ChatStream
// over the SSE events. Failures before the first byte are returned directly;
// later ones are yielded through the stream.
func (p *AnthropicProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)
	p.annotateSpan(ctx, request, true)

	if p.apiKey == "" {
		return nil, ai.MissingCredentialError(ai.VendorAnthropic)
	}
	body, err := requestToMessages(request)
	if err != nil {
		return nil, err
	}
	body.Stream = true

	if observer != nil {
		observer.Trace(ctx, "opening messages stream",
			observability.String(observability.AttrLLMProvider, string(ai.VendorAnthropic)),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(body.Messages)),
		)
	}

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.endpoint(), "", body, p.headers()...)
	if err != nil {
		return nil, classify(err)
	}

	events := utils.NewSSEReader(httpResponse.Body)
	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		state := &streamState{}
		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			sse, sseErr := events.Next()
			if errors.Is(sseErr, io.EOF) {
				return
			}
			if sseErr != nil {
				if ctx.Err() != nil {
					yield(ai.StreamEvent{}, ctx.Err())
					return
				}
				yield(ai.StreamEvent{}, ai.UpstreamError(ai.VendorAnthropic, 0, sseErr))
				return
			}

			event, parseErr := decodeStreamEvent(sse.Name, sse.Data)
			if parseErr != nil {
				yield(ai.StreamEvent{}, ai.UpstreamError(ai.VendorAnthropic, 0, fmt.Errorf("failed to parse stream event: %w", parseErr)))
				return
			}

			out, done := state.apply(event)
			for _, emitted := range out {
				if !yield(emitted, nil) {
					return
				}
			}
			if done {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

// streamState carries what spans several events: the tool call counter, the
// input token count from message_start and the stop reason from
// message_delta.
type streamState struct {
	toolCalls    int
	inputTokens  int
	finishReason string
}

// apply converts one SSE event to stream events. done reports that the
// message is complete and nothing more should be read.
func (s *streamState) apply(event *streamEvent) (events []ai.StreamEvent, done bool) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			s.inputTokens = event.Message.Usage.InputTokens
		}

	case "content_block_start":
		// ID and name only appear here, never on the argument deltas.
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index: s.toolCalls,
					ID:    event.ContentBlock.ID,
					Name:  event.ContentBlock.Name,
				},
			})
			s.toolCalls++
		}

	case "content_block_delta":
		if event.Delta == nil {
			break
		}
		switch event.Delta.Type {
		case "text_delta":
			if event.Delta.Text != "" {
				events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: event.Delta.Text})
			}
		case "input_json_delta":
			if event.Delta.PartialJSON != "" && s.toolCalls > 0 {
				events = append(events, ai.StreamEvent{
					Type:     ai.StreamEventToolCall,
					ToolCall: &ai.ToolCallDelta{Index: s.toolCalls - 1, Arguments: event.Delta.PartialJSON},
				})
			}
		}

	case "message_delta":
		if event.Delta != nil && event.Delta.StopReason != "" {
			s.finishReason = mapStopReason(event.Delta.StopReason)
		}
		if event.Usage != nil {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventUsage,
				Usage: &ai.Usage{
					PromptTokens:     s.inputTokens,
					CompletionTokens: event.Usage.OutputTokens,
					TotalTokens:      s.inputTokens + event.Usage.OutputTokens,
				},
			})
		}

	case "message_stop":
		finishReason := s.finishReason
		if finishReason == "" {
			finishReason = "stop"
		}
		return []ai.StreamEvent{{Type: ai.StreamEventDone, FinishReason: finishReason}}, true

	case "error":
		message := "unknown stream error"
		if event.Error != nil && event.Error.Message != "" {
			message = event.Error.Message
		}
		return []ai.StreamEvent{{Type: ai.StreamEventError, Error: message}}, true
	}
	return events, false
}
