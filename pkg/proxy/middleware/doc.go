// Package middleware provides HTTP middleware for the proxy server:
// request ID propagation, structured request logging, and panic recovery.
//
// Middleware is applied outermost-first in the order recovery, request ID,
// logging, so that a panic anywhere in the chain still produces a response
// and every log line carries a request ID.
package middleware
