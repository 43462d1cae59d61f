package boundary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

var (
	ErrErrored = errors.New("panel is in the errored state")
)

// State represents the boundary state
type State int

const (
	StateNormal State = iota
	StateErrored
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// External maps the state onto its wire representation
func (s State) External() types.BoundaryState {
	if s == StateErrored {
		return types.BoundaryErrored
	}
	return types.BoundaryNormal
}

// Settings configures the boundary behavior
type Settings struct {
	// Recover restores a known-good state before the boundary returns to Normal
	Recover func(ctx context.Context) error
	// OnStateChange is called after every transition, outside the boundary lock
	OnStateChange func(panel types.Panel, from State, to State)
}

// Counts holds the statistics for the boundary
type Counts struct {
	Failures uint32
	Resets   uint32
}

// Boundary catches failures of one panel
type Boundary struct {
	panel    types.Panel
	settings Settings

	mu       sync.Mutex
	state    State
	err      error
	failedAt time.Time
	counts   Counts
}

// New creates a boundary in the Normal state
func New(panel types.Panel, settings Settings) *Boundary {
	if settings.Recover == nil {
		settings.Recover = func(context.Context) error { return nil }
	}

	return &Boundary{
		panel:    panel,
		settings: settings,
		state:    StateNormal,
	}
}

// Panel returns the wrapped panel
func (b *Boundary) Panel() types.Panel {
	return b.panel
}

// State returns the current state
func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the failure that moved the boundary to Errored, or nil
func (b *Boundary) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Counts returns a copy of the internal counts
func (b *Boundary) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Info returns the externally visible state
func (b *Boundary) Info() types.BoundaryInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	info := types.BoundaryInfo{
		Panel: b.panel,
		State: b.state.External(),
	}
	if b.err != nil {
		info.Error = b.err.Error()
		at := b.failedAt
		info.FailedAt = &at
	}
	return info
}

// Fail moves the boundary to Errored. Failing an errored boundary keeps the
// first error and reports false.
func (b *Boundary) Fail(err error) bool {
	if err == nil {
		return false
	}

	b.mu.Lock()
	if b.state == StateErrored {
		b.mu.Unlock()
		return false
	}
	b.err = err
	b.failedAt = time.Now()
	b.counts.Failures++
	from := b.setState(StateErrored)
	b.mu.Unlock()

	b.notify(from, StateErrored)
	return true
}

// Guard runs fn if the boundary is Normal. An error or panic from fn fails the boundary.
func (b *Boundary) Guard(fn func() error) (err error) {
	if b.State() == StateErrored {
		return ErrErrored
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s panel: %v", b.panel, r)
			b.Fail(err)
		}
	}()

	if err = fn(); err != nil {
		b.Fail(err)
	}
	return err
}

// Reset recovers the panel and returns the boundary to Normal.
// Resetting a Normal boundary is a no-op.
func (b *Boundary) Reset(ctx context.Context) error {
	if b.State() == StateNormal {
		return nil
	}

	if err := b.settings.Recover(ctx); err != nil {
		return fmt.Errorf("recover %s panel: %w", b.panel, err)
	}

	b.mu.Lock()
	if b.state == StateNormal {
		b.mu.Unlock()
		return nil
	}
	b.err = nil
	b.failedAt = time.Time{}
	b.counts.Resets++
	from := b.setState(StateNormal)
	b.mu.Unlock()

	b.notify(from, StateNormal)
	return nil
}

// setState must be called with mu held
func (b *Boundary) setState(state State) State {
	prev := b.state
	b.state = state
	return prev
}

func (b *Boundary) notify(from, to State) {
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.panel, from, to)
	}
}
