package server

import (
	"io"
	"net/http"

	"github.com/leofalp/chatgate/providers/ai"
)

// streamWriter writes text deltas to the response as they arrive. Headers
// are committed with the first non-empty delta, so a request that fails
// before producing text can still answer with an error status.
type streamWriter struct {
	w       http.ResponseWriter
	flush   func()
	started bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	var flushFn func()
	if f, ok := w.(http.Flusher); ok {
		flushFn = f.Flush
	}
	return &streamWriter{w: w, flush: flushFn}
}

// Write implements gateway.Sink.
func (s *streamWriter) Write(chunk ai.StreamChunk) error {
	if chunk.TextDelta == "" {
		return nil
	}
	s.commit()
	if _, err := io.WriteString(s.w, chunk.TextDelta); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}

func (s *streamWriter) committed() bool {
	return s.started
}

// commit sends the streaming headers once.
func (s *streamWriter) commit() {
	if s.started {
		return
	}
	s.started = true
	headers := s.w.Header()
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	if s.flush != nil {
		s.flush()
	}
}
