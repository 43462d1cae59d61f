// Package server wires the sandbox service together.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Load the workspace template
//  4. Start the JavaScript runtime pool
//  5. Setup HTTP routes, the event stream and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Middleware order: recovery, request ID, access log, metrics, CORS and,
// when enabled, per-IP rate limiting.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	go srv.Run()
package server
