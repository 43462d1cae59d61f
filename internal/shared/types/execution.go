package types

import "time"

// ConsoleLevel is the console method a record was produced by
type ConsoleLevel string

const (
	LevelLog   ConsoleLevel = "log"
	LevelInfo  ConsoleLevel = "info"
	LevelWarn  ConsoleLevel = "warn"
	LevelError ConsoleLevel = "error"
	LevelDebug ConsoleLevel = "debug"
)

// ConsoleRecord is one captured console call.
// Seq is assigned by the workspace console and strictly increases.
type ConsoleRecord struct {
	Seq     uint64       `json:"seq"`
	Level   ConsoleLevel `json:"level"`
	Message string       `json:"message"`
	Time    time.Time    `json:"time"`
}

// ExecutionError is the payload of a failed compile or execution
type ExecutionError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ExecutionResult is what the runtime produced for one revision
type ExecutionResult struct {
	CompileID string          `json:"compile_id"`
	Revision  uint64          `json:"revision"`
	Value     interface{}     `json:"value,omitempty"`
	HTML      string          `json:"html"`
	Console   []ConsoleRecord `json:"console"`
	Duration  time.Duration   `json:"duration"`
	Error     *ExecutionError `json:"error,omitempty"`
	At        time.Time       `json:"at"`
}

// PreviewStatus drives the loading indicator of the preview pane
type PreviewStatus string

const (
	PreviewIdle      PreviewStatus = "idle"
	PreviewPending   PreviewStatus = "pending"
	PreviewCompiling PreviewStatus = "compiling"
)

// BoundaryState is the state of a failure boundary
type BoundaryState string

const (
	BoundaryNormal  BoundaryState = "normal"
	BoundaryErrored BoundaryState = "errored"
)

// Panel names a subtree wrapped by a failure boundary
type Panel string

const (
	PanelEditor  Panel = "editor"
	PanelPreview Panel = "preview"
)

// Valid reports enum membership
func (p Panel) Valid() bool {
	return p == PanelEditor || p == PanelPreview
}

// BoundaryInfo is the externally visible state of one boundary
type BoundaryInfo struct {
	Panel    Panel         `json:"panel"`
	State    BoundaryState `json:"state"`
	Error    string        `json:"error,omitempty"`
	FailedAt *time.Time    `json:"failed_at,omitempty"`
}

// ErrorKind classifies failures crossing the workspace API
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindInvalidPath      ErrorKind = "invalid_path"
	KindNotFound         ErrorKind = "not_found"
	KindProtectedFile    ErrorKind = "protected_file"
	KindRuntimeExecution ErrorKind = "runtime_execution"
	KindInternal         ErrorKind = "internal"
)
