package openai

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
// later failures are yielded through the stream.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := observability.ObserverFromContext(ctx)
	p.annotateSpan(ctx, request, true)

	target, err := p.resolveTarget(request.Model)
	if err != nil {
		return nil, err
	}
	body, err := requestToChatCompletion(request, p.vendor)
	if err != nil {
		return nil, err
	}
	streamEnabled := true
	body.Stream = &streamEnabled
	// Perplexity and Llama reject unknown top-level fields.
	if p.vendor == ai.VendorOpenAI || p.vendor == ai.VendorAzure || p.vendor == ai.VendorOpenRouter {
		body.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	if observer != nil {
		observer.Trace(ctx, "opening chat completion stream",
			observability.String(observability.AttrLLMProvider, string(p.vendor)),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(body.Messages)),
		)
	}

	httpResponse, err := utils.DoPostStream(ctx, p.client, target.url, target.bearer, body, target.headers...)
	if err != nil {
		return nil, p.classify(err)
	}

	events := utils.NewSSEReader(httpResponse.Body)
	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

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
				yield(ai.StreamEvent{}, ai.UpstreamError(p.vendor, 0, sseErr))
				return
			}

			chunk, parseErr := unmarshalStreamChunk(sse.Data)
			if parseErr != nil {
				yield(ai.StreamEvent{}, ai.UpstreamError(p.vendor, 0, fmt.Errorf("failed to parse streaming chunk: %w", parseErr)))
				return
			}

			for _, event := range chunkToStreamEvents(chunk) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

// chunkToStreamEvents converts one SSE payload into stream events. A chunk may
// carry content, tool call fragments, usage and a finish reason at once.
func chunkToStreamEvents(chunk *chatCompletionStreamChunk) []ai.StreamEvent {
	if chunk.Error != nil {
		return []ai.StreamEvent{{Type: ai.StreamEventError, Error: chunk.Error.Message}}
	}

	var events []ai.StreamEvent
	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type: ai.StreamEventUsage,
			Usage: &ai.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			},
		})
	}

	for _, choice := range chunk.Choices {
		delta := choice.Delta
		if delta.Content != nil && *delta.Content != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: *delta.Content})
		}
		for _, part := range delta.ToolCalls {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     part.Index,
					ID:        part.ID,
					Name:      part.Function.Name,
					Arguments: part.Function.Arguments,
				},
			})
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: *choice.FinishReason})
		}
	}
	return events
}
