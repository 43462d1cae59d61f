// Package preview drives recompilation of a workspace into its preview pane.
//
// Every content change schedules a compile. In delayed mode the compile is
// debounced: a newer change cancels the pending timer (and any compile in
// flight) and re-arms it. A compile snapshots the files when it fires, so
// the last write always wins, and runs under the workspace's timeout. Failures
// and timeouts move the preview boundary to Errored; while it is Errored no
// compile runs.
package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/boundary"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/id"
	"github.com/GriffinCanCode/sandpad/internal/shared/listeners"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

var (
	ErrClosed = errors.New("preview scheduler is closed")
)

// Event is published on every status change and every finished compile
type Event struct {
	Status types.PreviewStatus
	Result *types.ExecutionResult
}

// Listener receives scheduler events
type Listener func(Event)

// Scheduler owns the compile timer of one workspace
type Scheduler struct {
	ws       *workspace.Workspace
	exec     sandbox.Executor
	boundary *boundary.Boundary
	options  types.Options
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu          sync.Mutex
	timer       *time.Timer
	cancel      context.CancelFunc // cancels the compile in flight
	generation  uint64             // bumped by every schedule; older compiles are stale
	status      types.PreviewStatus
	last        *types.ExecutionResult
	closed      bool
	unsubscribe func()
	wg          sync.WaitGroup

	listeners listeners.Set[Listener]
}

// New creates a scheduler. Call Start to begin watching the workspace.
func New(ws *workspace.Workspace, exec sandbox.Executor, b *boundary.Boundary, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		ws:       ws,
		exec:     exec,
		boundary: b,
		options:  ws.Options(),
		logger:   logger.With(zap.String("workspace_id", ws.ID().String())),
		status:   types.PreviewIdle,
	}
}

// WithMetrics adds metrics tracking to the scheduler
func (s *Scheduler) WithMetrics(metrics *monitoring.Metrics) *Scheduler {
	s.metrics = metrics
	return s
}

// Start subscribes to file changes and schedules the first compile
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.unsubscribe != nil || s.closed {
		s.mu.Unlock()
		return
	}
	s.unsubscribe = s.ws.OnFilesChanged(s.onFilesChanged)
	s.mu.Unlock()

	s.schedule(true)
}

// Refresh compiles now, regardless of the recompile mode
func (s *Scheduler) Refresh() error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.boundary.State() == boundary.StateErrored {
		return boundary.ErrErrored
	}
	s.schedule(true)
	return nil
}

// Recovered schedules a fresh compile after the boundary returns to Normal
func (s *Scheduler) Recovered() {
	s.schedule(true)
}

// Status returns the current preview status
func (s *Scheduler) Status() types.PreviewStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Last returns the most recent compile result, or nil
func (s *Scheduler) Last() *types.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil
	}
	result := *s.last
	return &result
}

// Subscribe registers l and returns a function that removes it
func (s *Scheduler) Subscribe(l Listener) func() {
	return s.listeners.Add(l)
}

// Close stops the timer, cancels any compile and waits for it to return
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	s.stopLocked()
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.wg.Wait()
}

func (s *Scheduler) onFilesChanged(change types.FileChange) {
	if !change.ContentChanged() {
		return
	}
	s.schedule(false)
}

// schedule cancels pending work and arms the next compile
func (s *Scheduler) schedule(now bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	s.stopLocked()

	if s.boundary.State() == boundary.StateErrored {
		changed := s.setStatusLocked(types.PreviewIdle)
		s.mu.Unlock()
		if changed {
			s.publish(Event{Status: types.PreviewIdle})
		}
		return
	}

	delay := s.options.Debounce()
	if now || s.options.RecompileMode == types.RecompileImmediate || delay <= 0 {
		s.wg.Add(1)
		changed := s.setStatusLocked(types.PreviewPending)
		s.mu.Unlock()
		if changed {
			s.publish(Event{Status: types.PreviewPending})
		}
		go s.compile(gen)
		return
	}

	s.wg.Add(1)
	s.timer = time.AfterFunc(delay, func() { s.compile(gen) })
	changed := s.setStatusLocked(types.PreviewPending)
	s.mu.Unlock()
	if changed {
		s.publish(Event{Status: types.PreviewPending})
	}
}

// stopLocked must be called with mu held
func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		if s.timer.Stop() {
			// the timer's compile will never run
			s.wg.Done()
		}
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) compile(gen uint64) {
	defer s.wg.Done()

	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		return
	}
	if s.boundary.State() == boundary.StateErrored {
		s.setStatusLocked(types.PreviewIdle)
		s.mu.Unlock()
		s.publish(Event{Status: types.PreviewIdle})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.options.Timeout())
	s.cancel = cancel
	s.timer = nil
	s.setStatusLocked(types.PreviewCompiling)
	s.mu.Unlock()
	defer cancel()

	s.publish(Event{Status: types.PreviewCompiling})

	files, revision := s.ws.Snapshot()
	program := sandbox.Program{
		Entry:        s.ws.EntryFile(),
		Files:        files,
		Dependencies: s.ws.Dependencies(),
		Environment:  s.ws.Environment(),
	}

	timer := monitoring.NewTimer(s.metrics)
	res, err := s.execute(ctx, program)

	s.mu.Lock()
	if gen != s.generation {
		// superseded by a newer change; its cancellation is not a failure
		s.mu.Unlock()
		s.logger.Debug("Dropped stale compile", zap.Uint64("revision", revision))
		return
	}
	s.cancel = nil
	s.mu.Unlock()

	result := &types.ExecutionResult{
		CompileID: id.NewCompileID().String(),
		Revision:  revision,
		At:        time.Now(),
	}
	if res != nil {
		result.Value = res.Value
		result.HTML = res.HTML
		result.Console = s.appendConsole(res.Console)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		result.Error = sandbox.AsExecutionError(err).Payload()
	}
	result.Duration = timer.Stop(outcome)

	s.mu.Lock()
	s.last = result
	s.setStatusLocked(types.PreviewIdle)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Compile failed",
			zap.Uint64("revision", revision),
			zap.String("outcome", outcome),
			zap.Error(err))
		s.boundary.Fail(err)
	} else {
		s.logger.Debug("Compiled",
			zap.Uint64("revision", revision),
			zap.Duration("duration", result.Duration))
	}

	s.publish(Event{Status: types.PreviewIdle, Result: result})
}

// execute runs the program but gives up when ctx expires, even if the
// executor ignores cancellation
func (s *Scheduler) execute(ctx context.Context, program sandbox.Program) (*sandbox.Result, error) {
	type outcome struct {
		res *sandbox.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.exec.Execute(ctx, program)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, sandbox.NewExecutionError("execution timed out after "+s.options.Timeout().String(), ctx.Err())
	}
}

func (s *Scheduler) appendConsole(entries []sandbox.LogEntry) []types.ConsoleRecord {
	if len(entries) == 0 {
		return nil
	}
	records := make([]types.ConsoleRecord, len(entries))
	for i, e := range entries {
		records[i] = types.ConsoleRecord{Level: e.Level, Message: e.Message, Time: e.Time}
		if s.metrics != nil {
			s.metrics.RecordConsoleRecord(string(e.Level))
		}
	}
	return s.ws.Console().Append(records...)
}

// setStatusLocked must be called with mu held
func (s *Scheduler) setStatusLocked(status types.PreviewStatus) bool {
	if s.status == status {
		return false
	}
	s.status = status
	return true
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scheduler) publish(event Event) {
	for _, l := range s.listeners.Snapshot() {
		l(event)
	}
}
