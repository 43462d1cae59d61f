// Package http implements the REST surface of the sandbox service.
//
// Every route below /workspaces/:id resolves the live instance first and
// answers 404 when it does not exist. Domain errors are translated by kind:
//
//	invalid_path   -> 400
//	not_found      -> 404
//	errored        -> 409 (the panel's boundary is Errored)
//	too_large      -> 413
//
// Error bodies are {"error": message, "kind": kind}.
package http
