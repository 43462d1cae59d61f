// Package middleware provides the gin middleware of the HTTP API: CORS,
// per-client rate limiting, request IDs and access logging.
package middleware
