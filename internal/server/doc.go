// Package server exposes the gateway over HTTP.
//
//	POST /chat/{provider}  run one chat request, streaming text/plain
//	GET  /healthz          liveness
//	GET  /models           the model table
//	GET  /metrics          counter and histogram totals, when configured
//
// Errors are returned as {"message": "..."} with the status derived from the
// error kind.
package server
