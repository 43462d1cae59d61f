package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

var ErrClosed = errors.New("sandbox runtime is closed")

// Runtime wraps a goja VM with security controls.
// Each Execute starts from a fresh VM, so runs never observe each other.
type Runtime struct {
	config Config
	mu     sync.Mutex
	vm     *goja.Runtime
	closed bool

	// Console output
	console   []LogEntry
	dropped   int // entries discarded by the MaxConsole cap
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute links and runs program. On failure the partial result (console
// output, rendered HTML so far) is returned together with an *ExecutionError.
func (r *Runtime) Execute(ctx context.Context, program Program) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if err := r.reset(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{}

	program.Entry = path.Clean("/" + strings.TrimPrefix(program.Entry, "/"))
	if _, ok := program.Files[program.Entry]; !ok {
		return result, &ExecutionError{Message: fmt.Sprintf("entry file %s not found", program.Entry)}
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	vm := r.vm
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	surface := NewSurface()
	var exports goja.Value
	var err error
	if program.Environment == types.EnvStatic && isMarkup(program.Entry) {
		surface.LoadHTML(program.Files[program.Entry])
	} else {
		if r.config.EnableDOM && program.Environment != types.EnvNode {
			vm.Set("document", newDocument(vm, surface).object())
		}
		exports, err = newLinker(vm, program).run()
	}

	result.Duration = time.Since(start)
	result.Console = r.drainConsole()
	if r.config.SanitizeHTML {
		result.HTML = surface.SanitizedHTML()
	} else {
		result.HTML = surface.HTML()
	}

	if err != nil {
		return result, r.executionError(ctx, err)
	}

	result.Value = r.exportJSON(exports)
	return result, nil
}

// Reset clears the runtime state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.vm = nil
	r.console = nil
	return nil
}

func (r *Runtime) reset() error {
	r.vm = goja.New()
	if r.config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}

	r.consoleMu.Lock()
	r.console = nil
	r.dropped = 0
	r.consoleMu.Unlock()

	return r.setupGlobals()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []types.ConsoleLevel{
			types.LevelLog, types.LevelInfo, types.LevelWarn, types.LevelError, types.LevelDebug,
		} {
			console.Set(string(level), r.makeConsoleFunc(level))
		}
		r.vm.Set("console", console)
	}

	// Timers never fire
	inert := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		r.vm.Set(name, inert)
	}

	return nil
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level types.ConsoleLevel) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, r.format(arg))
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		// compact once the slice holds twice the cap
		if limit := r.config.MaxConsole; limit > 0 && len(r.console) >= 2*limit {
			r.dropped += len(r.console) - limit
			r.console = append(r.console[:0], r.console[len(r.console)-limit:]...)
		}
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// format renders plain objects and arrays as JSON, everything else with String()
func (r *Runtime) format(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return v.String()
	}
	switch obj.ClassName() {
	case "Object", "Array":
		if s, ok := r.stringify(obj); ok {
			return s
		}
	}
	return v.String()
}

func (r *Runtime) stringify(v goja.Value) (string, bool) {
	stringify, ok := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("stringify"))
	if !ok {
		return "", false
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil || out == nil || goja.IsUndefined(out) {
		return "", false
	}
	return out.String(), true
}

// exportJSON converts the entry exports to JSON, dropping what JSON cannot express
func (r *Runtime) exportJSON(v goja.Value) json.RawMessage {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	s, ok := r.stringify(v)
	if !ok || s == "{}" {
		return nil
	}
	return json.RawMessage(s)
}

// drainConsole returns at most MaxConsole entries. When output was dropped the
// oldest kept entry is replaced by a warning that counts the loss.
func (r *Runtime) drainConsole() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()

	entries, dropped := r.console, r.dropped
	r.console, r.dropped = nil, 0

	limit := r.config.MaxConsole
	if limit <= 0 {
		return entries
	}
	if len(entries) > limit {
		dropped += len(entries) - limit
		entries = entries[len(entries)-limit:]
	}
	if dropped == 0 {
		return entries
	}

	kept := make([]LogEntry, 0, len(entries))
	kept = append(kept, LogEntry{
		Level:   types.LevelWarn,
		Message: fmt.Sprintf("%d earlier console messages were dropped", dropped+1),
		Time:    entries[0].Time,
	})
	return append(kept, entries[1:]...)
}

func (r *Runtime) executionError(ctx context.Context, err error) *ExecutionError {
	var interrupted *goja.InterruptedError
	var exception *goja.Exception

	switch {
	case errors.As(err, &interrupted):
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		msg := "execution interrupted"
		if errors.Is(cause, context.DeadlineExceeded) {
			msg = "execution timed out"
		} else if errors.Is(cause, context.Canceled) {
			msg = "execution cancelled"
		}
		return &ExecutionError{Message: msg, cause: cause}
	case errors.As(err, &exception):
		return &ExecutionError{
			Message: exception.Value().String(),
			Stack:   exception.String(),
			cause:   err,
		}
	default:
		return &ExecutionError{Message: err.Error(), cause: err}
	}
}

func isMarkup(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".html" || ext == ".htm"
}
