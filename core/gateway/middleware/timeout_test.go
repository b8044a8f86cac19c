package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/chatgate/providers/ai"
)

// slowSend returns a SendFunc that answers after sleep unless cancelled first.
func slowSend(sleep time.Duration) func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		select {
		case <-time.After(sleep):
			return &ai.ChatResponse{Content: "ok"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// slowStream returns a StreamFunc whose first event arrives after sleep.
func slowStream(sleep time.Duration) func(context.Context, ai.ChatRequest) (*ai.ChatStream, error) {
	return func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatStream, error) {
		return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
			select {
			case <-time.After(sleep):
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: "hello"}, nil) {
					return
				}
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: "stop"}, nil)
			case <-ctx.Done():
				yield(ai.StreamEvent{}, ctx.Err())
			}
		}), nil
	}
}

// TestTimeoutMiddleware_Send covers a call finishing in time and one running over.
func TestTimeoutMiddleware_Send(t *testing.T) {
	mw := NewTimeoutMiddleware(50 * time.Millisecond)

	response, err := mw.Send(slowSend(0))(context.Background(), ai.ChatRequest{})
	if err != nil || response.Content != "ok" {
		t.Fatalf("expected fast call to succeed, got %v %v", response, err)
	}

	_, err = mw.Send(slowSend(time.Second))(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

// TestTimeoutMiddleware_StreamLifetime verifies the deadline keeps running
// after the stream is returned and governs its consumption.
func TestTimeoutMiddleware_StreamLifetime(t *testing.T) {
	mw := NewTimeoutMiddleware(30 * time.Millisecond)

	stream, err := mw.Stream(slowStream(time.Second))(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected pre-stream error: %v", err)
	}
	if _, err := stream.Collect(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded while consuming, got %v", err)
	}

	stream, err = mw.Stream(slowStream(0))(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected pre-stream error: %v", err)
	}
	response, err := stream.Collect()
	if err != nil || response.Content != "hello" {
		t.Errorf("expected fast stream to complete, got %v %v", response, err)
	}
}

// TestTimeoutMiddleware_PreStreamError verifies a failing call is passed through.
func TestTimeoutMiddleware_PreStreamError(t *testing.T) {
	failure := ai.NewError(ai.KindUpstreamRequest, "boom")
	next := func(context.Context, ai.ChatRequest) (*ai.ChatStream, error) { return nil, failure }

	if _, err := NewTimeoutMiddleware(time.Second).Stream(next)(context.Background(), ai.ChatRequest{}); !errors.Is(err, failure) {
		t.Errorf("expected the provider error, got %v", err)
	}
}
