// Package types provides shared data structures for the sandbox service.
//
// These types cross package boundaries: the workspace store emits them,
// the preview scheduler and panels consume them, and the API layers
// serialize them unchanged.
//
// Core Types:
//   - File, FileChange: The virtual file set and its mutations
//   - Options, EnvironmentPreset: Per-workspace preview configuration
//   - LayoutState: Split, console and fullscreen toggles
//   - ConsoleRecord: One line of captured program output
//   - ExecutionResult, ExecutionError: Outcome of a preview compile
//   - BoundaryInfo: State of a panel's failure boundary
//
// Error Kinds:
//
//	invalid_path, not_found, protected_file, runtime_execution, internal
package types
