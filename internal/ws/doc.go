// Package ws streams workspace events over WebSocket.
//
// A client connects to /workspaces/:id/stream and first receives a
// "snapshot" message with the full workspace state, followed by every
// instance event as it happens.
//
// Message Types (Server → Client):
//   - snapshot: Full workspace state
//   - files.changed: A file mutation
//   - preview.status: Preview status change
//   - preview.result: Finished compile
//   - console.record: Captured console output
//   - boundary.state: A panel errored or recovered
//   - layout.changed: Layout toggle
//   - pong: Answer to ping
//   - error: Rejected client message
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - files.update: Replace the content of a file {path, content}
//
// Every message uses the envelope {type, workspace_id, payload, timestamp}
// where timestamp is in Unix milliseconds. Slow clients drop events rather
// than stall the workspace.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, logger, maxFileBytes)
//	handler.Register(router)
package ws
