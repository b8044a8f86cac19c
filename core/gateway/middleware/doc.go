// Package middleware provides provider middlewares for the gateway
// orchestrator. Each constructor returns a [gateway.MiddlewareConfig] to pass
// to [gateway.WithMiddleware].
//
//   - [NewTimeoutMiddleware] bounds each vendor call, including the whole
//     lifetime of a stream.
//   - [NewLoggingMiddleware] emits slog entries before and after each call.
//
// Middlewares run outermost-first:
//
//	orchestrator, err := gateway.New(credentials,
//	    gateway.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Vendor calls are never retried: a failed round fails the request.
package middleware
