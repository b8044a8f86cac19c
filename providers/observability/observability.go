package observability

import (
	"context"
	"time"
)

// Provider bundles the three signals the gateway emits. slogobs.Observer is
// the implementation shipped with chatgate; tests pass their own.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer opens spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one timed unit of work: a chat request, an upstream call or a tool
// dispatch. End must be called exactly once.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics hands out named instruments. Asking twice for the same name returns
// the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger writes leveled, structured records. Trace sits below Debug and is
// reserved for wire dumps.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key/value pair attached to spans, metrics and log records.
// Keys should come from semconv.go.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute                 { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute                { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute            { return Attribute{Key: key, Value: value} }
func Float64(key string, value float64) Attribute        { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute              { return Attribute{Key: key, Value: value} }
func Duration(key string, value time.Duration) Attribute { return Attribute{Key: key, Value: value} }

// Error records err under AttrError; a nil error records an empty string.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}
