package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leofalp/chatgate/providers/ai"
)

func jsonUnmarshal(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// TestForward_Order verifies chunks arrive in order and end with Done.
func TestForward_Order(t *testing.T) {
	var got []ai.StreamChunk
	sink := SinkFunc(func(chunk ai.StreamChunk) error {
		got = append(got, chunk)
		return nil
	})

	written, err := Forward(context.Background(), textStream("a", "b", "c"), sink)
	require.NoError(t, err)
	require.Equal(t, 4, written)
	require.Equal(t, []ai.StreamChunk{
		{Sequence: 0, TextDelta: "a"},
		{Sequence: 1, TextDelta: "b"},
		{Sequence: 2, TextDelta: "c"},
		{Sequence: 3, Done: true},
	}, got)
}

// TestForward_WriteFailure verifies a failing sink stops the stream.
func TestForward_WriteFailure(t *testing.T) {
	broken := errors.New("client went away")
	calls := 0
	sink := SinkFunc(func(ai.StreamChunk) error {
		calls++
		return broken
	})

	written, err := Forward(context.Background(), textStream("a", "b"), sink)
	require.ErrorIs(t, err, broken)
	require.Equal(t, 0, written)
	require.Equal(t, 1, calls)
}

// TestForward_Cancelled verifies nothing is written once the context is done.
func TestForward_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, err := Forward(ctx, textStream("a"), SinkFunc(func(ai.StreamChunk) error {
		t.Error("unexpected write after cancellation")
		return nil
	}))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, written)
}
