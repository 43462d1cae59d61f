// Package main is the entry point for the sandpad server.
//
// sandpad hosts live code sandboxes: each workspace is a virtual file set
// with an explorer, an editor, a debounced preview that runs in an embedded
// JavaScript runtime, and a console fed by the running program.
//
// The server provides:
//   - REST API for workspaces, files and panels
//   - WebSocket event stream per workspace
//   - Prometheus metrics
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -template ./templates/vanilla.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
