// Package utils provides the low-level HTTP helpers shared by the vendor
// adapters: [DoPostSync] for JSON round-trips, [DoPostStream] with
// [SSEReader] for Server-Sent Events, and [StatusError] for non-2xx answers.
// TruncateString keeps logged payloads short.
package utils
