// Package server ties the proxy together: it wires routes and middleware,
// owns the http.Server, and manages lifecycle.
//
// # Routes
//
//   - POST /call_model - Authenticated generate proxy (cached)
//   - GET /health - Liveness probe, reports upstream reachability
//   - GET /metrics - Prometheus scrape endpoint (when metrics are enabled)
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. Logging: Logs request/response details
//  2. RequestID: Generates unique request ID for tracing
//  3. Recovery: Recovers from panics and returns 500 error
//
// Authentication applies to /call_model only, so orchestrators can probe
// /health without a key.
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, SIGTERM/SIGINT arrives, or
// Shutdown is called. Shutdown stops accepting connections, waits up to the
// configured shutdown timeout for in-flight requests, then forces closure.
package server
