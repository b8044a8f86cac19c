// Package observability defines the tracing, metrics and logging interfaces
// used across the gateway, plus the attribute keys in semconv.go.
//
// [Provider] composes [Tracer], [Metrics] and [Logger]. The active provider and
// span travel in a [context.Context] via [ContextWithObserver] and
// [ContextWithSpan].
package observability
