package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

var (
	ErrRuntimeExecution = errors.New("runtime execution failed")
	ErrPoolClosed       = errors.New("sandbox pool is closed")
	ErrTimeout          = errors.New("sandbox acquisition timeout")
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Execution timeout, zero leaves it to the context
	MaxCallStackSize int           // Maximum JS call depth
	AcquireTimeout   time.Duration // How long Pool.Acquire waits when the context has no deadline
	MaxConsole       int           // Console entries kept per run, newest first; zero keeps all
	EnableConsole    bool          // Capture console.*
	EnableDOM        bool          // Expose the document surface
	SanitizeHTML     bool          // Run rendered HTML through bluemonday
}

// DefaultConfig returns the configuration used by the preview pipeline
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		MaxCallStackSize: 1024,
		AcquireTimeout:   5 * time.Second,
		MaxConsole:       1000,
		EnableConsole:    true,
		EnableDOM:        true,
		SanitizeHTML:     true,
	}
}

// Program is a linked set of files with one entry module
type Program struct {
	Entry        string
	Files        map[string]string
	Dependencies map[string]string
	Environment  types.EnvironmentPreset
}

// Result holds execution result
type Result struct {
	Value    json.RawMessage // JSON form of the entry module's exports, if serialisable
	HTML     string          // Rendered surface
	Console  []LogEntry      // Console output
	Duration time.Duration   // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   types.ConsoleLevel
	Message string
	Time    time.Time
}

// Executor runs programs. Both Runtime and Pool implement it.
type Executor interface {
	Execute(ctx context.Context, program Program) (*Result, error)
}

// ExecutionError describes a failed compile or run.
// It matches ErrRuntimeExecution and its underlying cause with errors.Is.
type ExecutionError struct {
	Message string
	Stack   string
	cause   error
}

// NewExecutionError creates an ExecutionError caused by cause
func NewExecutionError(message string, cause error) *ExecutionError {
	return &ExecutionError{Message: message, cause: cause}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRuntimeExecution, e.Message)
}

func (e *ExecutionError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrRuntimeExecution}
	}
	return []error{ErrRuntimeExecution, e.cause}
}

// Payload converts the error to its wire form
func (e *ExecutionError) Payload() *types.ExecutionError {
	return &types.ExecutionError{Message: e.Message, Stack: e.Stack}
}

// AsExecutionError extracts an ExecutionError from err, wrapping foreign errors
func AsExecutionError(err error) *ExecutionError {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	return &ExecutionError{Message: err.Error(), cause: err}
}
