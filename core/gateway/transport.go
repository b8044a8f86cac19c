package gateway

import (
	"context"
	"fmt"

	"github.com/leofalp/chatgate/providers/ai"
)

// Sink receives the chunks of a streamed answer in order. A Write error stops
// the stream.
type Sink interface {
	Write(chunk ai.StreamChunk) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(chunk ai.StreamChunk) error

func (f SinkFunc) Write(chunk ai.StreamChunk) error {
	return f(chunk)
}

// Forward pumps stream into sink until the Done chunk, a write failure or
// cancellation of ctx, and returns how many chunks were written. Nothing is
// written once ctx is cancelled. A mid-stream upstream failure is delivered
// as a Done chunk and then returned.
func Forward(ctx context.Context, stream *ai.ChatStream, sink Sink) (int, error) {
	written := 0
	for chunk, streamErr := range stream.Chunks() {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		if err := sink.Write(chunk); err != nil {
			return written, fmt.Errorf("writing chunk %d: %w", chunk.Sequence, err)
		}
		written++

		if streamErr != nil {
			return written, streamErr
		}
		if chunk.Done {
			return written, nil
		}
	}
	return written, ctx.Err()
}
