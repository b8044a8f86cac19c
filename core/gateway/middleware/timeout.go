package middleware

import (
	"context"
	"time"

	"github.com/leofalp/chatgate/core/gateway"
	"github.com/leofalp/chatgate/providers/ai"
)

// NewTimeoutMiddleware bounds each vendor call with a deadline.
//
// For streams the deadline covers the whole stream: the context is cancelled
// when the stream ends, fails or is abandoned, not when the first byte
// arrives. A shorter deadline already on the caller's context still wins.
func NewTimeoutMiddleware(timeout time.Duration) gateway.MiddlewareConfig {
	return gateway.MiddlewareConfig{
		Send:   sendTimeout(timeout),
		Stream: streamTimeout(timeout),
	}
}

func sendTimeout(timeout time.Duration) gateway.Middleware {
	return func(next gateway.SendFunc) gateway.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, request)
		}
	}
}

func streamTimeout(timeout time.Duration) gateway.StreamMiddleware {
	return func(next gateway.StreamFunc) gateway.StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				cancel()
				return nil, err
			}
			return cancelOnEnd(stream, cancel), nil
		}
	}
}

// cancelOnEnd wraps stream so cancel runs once iteration stops for any reason.
func cancelOnEnd(stream *ai.ChatStream, cancel context.CancelFunc) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer cancel()
		for event, err := range stream.Iter() {
			if !yield(event, err) || err != nil || event.Type == ai.StreamEventDone {
				return
			}
		}
	})
}
