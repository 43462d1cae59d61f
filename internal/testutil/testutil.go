// Package testutil provides testing utilities and helpers for package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// MockExecutor is a mock implementation of sandbox.Executor for testing.
// Every program it receives is recorded.
type MockExecutor struct {
	mock.Mock

	mu       sync.Mutex
	programs []sandbox.Program
}

// Execute mocks the Execute method.
func (m *MockExecutor) Execute(ctx context.Context, program sandbox.Program) (*sandbox.Result, error) {
	m.mu.Lock()
	m.programs = append(m.programs, program)
	m.mu.Unlock()

	args := m.Called(ctx, program)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sandbox.Result), args.Error(1)
}

// Programs returns the programs received so far.
func (m *MockExecutor) Programs() []sandbox.Program {
	m.mu.Lock()
	defer m.mu.Unlock()

	programs := make([]sandbox.Program, len(m.programs))
	copy(programs, m.programs)
	return programs
}

// Calls returns the number of Execute calls so far.
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.programs)
}

// NewMockExecutor creates a new mock executor whose default behavior is an empty successful run.
func NewMockExecutor(t *testing.T) *MockExecutor {
	t.Helper()
	m := new(MockExecutor)

	m.On("Execute", mock.Anything, mock.Anything).
		Return(&sandbox.Result{}, nil).
		Maybe()

	return m
}

// BlockingExecutor returns an Execute implementation that ignores its
// context and blocks until release is closed.
func BlockingExecutor(release <-chan struct{}) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		<-release
	}
}

// SeedFiles is the file set used by NewWorkspace.
func SeedFiles() map[string]string {
	return map[string]string{
		"/App.js":     "console.log('seed')",
		"/styles.css": "body { margin: 0 }",
	}
}

// NewWorkspace creates a workspace seeded with SeedFiles and /App.js as entry.
func NewWorkspace(t *testing.T, options types.Options) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(workspace.Config{
		Entry:   "/App.js",
		Files:   SeedFiles(),
		Options: options,
	}, nil)
	require.NoError(t, err)
	return ws
}
