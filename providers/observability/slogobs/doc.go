// Package slogobs implements observability.Provider with log/slog.
//
// Records are written in a compact logfmt-like layout or as JSON, to stderr
// or to a rotating file ([WithFile]). Counter and histogram totals stay in
// memory and can be read back with [Observer.Snapshot], which the HTTP server
// exposes on /metrics.
package slogobs
