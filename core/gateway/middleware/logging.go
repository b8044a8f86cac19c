package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/internal/utils"
	"github.com/leofalp/chatgate/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits.
type LogLevel int

const (
	// LogLevelMinimal logs the model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds message and tool counts and the finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the last message and the response text, truncated.
	// It logs conversation content and is meant for local debugging only.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware logs every vendor call. For streams the completion
// entry is written when the stream ends.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) gateway.MiddlewareConfig {
	return gateway.MiddlewareConfig{
		Send:   sendLogging(logger, level),
		Stream: streamLogging(logger, level),
	}
}

func sendLogging(logger *slog.Logger, level LogLevel) gateway.Middleware {
	return func(next gateway.SendFunc) gateway.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "llm send failed", failureAttrs(request.Model, start, err)...)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", responseAttrs(response, time.Since(start), level)...)
			return response, nil
		}
	}
}

func streamLogging(logger *slog.Logger, level LogLevel) gateway.StreamMiddleware {
	return func(next gateway.StreamFunc) gateway.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			logger.InfoContext(ctx, "llm stream", requestAttrs(request, level)...)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed", failureAttrs(request.Model, start, err)...)
				return nil, err
			}
			return logOnEnd(ctx, stream, logger, request.Model, level, start), nil
		}
	}
}

func logOnEnd(ctx context.Context, stream *ai.ChatStream, logger *slog.Logger, model string, level LogLevel, start time.Time) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		var finishReason string
		var usage *ai.Usage
		chunks := 0

		for event, err := range stream.Iter() {
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed", failureAttrs(model, start, err)...)
				yield(event, err)
				return
			}

			switch event.Type {
			case ai.StreamEventContent:
				chunks++
			case ai.StreamEventUsage:
				usage = event.Usage
			case ai.StreamEventDone:
				finishReason = event.FinishReason
			}

			if !yield(event, nil) {
				logger.InfoContext(ctx, "llm stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
				)
				return
			}
			if event.Type == ai.StreamEventDone {
				break
			}
		}

		attrs := []any{
			slog.String("model", model),
			slog.Duration("duration", time.Since(start)),
			slog.Int("chunks", chunks),
		}
		if level >= LogLevelStandard && finishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", finishReason))
		}
		attrs = append(attrs, usageAttrs(usage)...)
		logger.InfoContext(ctx, "llm stream completed", attrs...)
	})
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", utils.TruncateString(last.Text(), truncateLen)),
		)
	}
	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}
	attrs = append(attrs, usageAttrs(response.Usage)...)

	if level >= LogLevelStandard {
		if response.FinishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
		}
		attrs = append(attrs, slog.Int("tool_calls", len(response.ToolCalls)))
	}
	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
	}
	return attrs
}

func failureAttrs(model string, start time.Time, err error) []any {
	return []any{
		slog.String("model", model),
		slog.Duration("duration", time.Since(start)),
		slog.String("error_kind", string(ai.KindOf(err))),
		slog.String("error", err.Error()),
	}
}

func usageAttrs(usage *ai.Usage) []any {
	if usage == nil {
		return nil
	}
	return []any{
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
		slog.Int("total_tokens", usage.TotalTokens),
	}
}
