package boundary

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

func TestBoundaryStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		steps         []func(b *Boundary)
		expectedState State
	}{
		{
			name:          "starts normal",
			expectedState: StateNormal,
		},
		{
			name: "fail moves to errored",
			steps: []func(b *Boundary){
				func(b *Boundary) { b.Fail(errors.New("boom")) },
			},
			expectedState: StateErrored,
		},
		{
			name: "reset returns to normal",
			steps: []func(b *Boundary){
				func(b *Boundary) { b.Fail(errors.New("boom")) },
				func(b *Boundary) { _ = b.Reset(context.Background()) },
			},
			expectedState: StateNormal,
		},
		{
			name: "nil error is ignored",
			steps: []func(b *Boundary){
				func(b *Boundary) { b.Fail(nil) },
			},
			expectedState: StateNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(types.PanelPreview, Settings{})
			for _, step := range tt.steps {
				step(b)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBoundaryKeepsFirstError(t *testing.T) {
	b := New(types.PanelPreview, Settings{})

	assert.True(t, b.Fail(errors.New("first")))
	assert.False(t, b.Fail(errors.New("second")))

	assert.EqualError(t, b.Err(), "first")
	assert.Equal(t, uint32(1), b.Counts().Failures)

	info := b.Info()
	assert.Equal(t, types.BoundaryErrored, info.State)
	assert.Equal(t, "first", info.Error)
	require.NotNil(t, info.FailedAt)
}

func TestBoundaryResetRunsRecoverFirst(t *testing.T) {
	var order []string
	var b *Boundary
	b = New(types.PanelPreview, Settings{
		Recover: func(ctx context.Context) error {
			order = append(order, "recover:"+b.State().String())
			return nil
		},
		OnStateChange: func(panel types.Panel, from, to State) {
			order = append(order, from.String()+"->"+to.String())
		},
	})

	b.Fail(errors.New("timeout"))
	require.NoError(t, b.Reset(context.Background()))

	assert.Equal(t, []string{"normal->errored", "recover:errored", "errored->normal"}, order)
	assert.Nil(t, b.Err())
	assert.Nil(t, b.Info().FailedAt)
	assert.Equal(t, uint32(1), b.Counts().Resets)
}

func TestBoundaryResetInNormalIsNoop(t *testing.T) {
	calls := 0
	b := New(types.PanelEditor, Settings{
		Recover: func(ctx context.Context) error {
			calls++
			return nil
		},
	})

	require.NoError(t, b.Reset(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Equal(t, uint32(0), b.Counts().Resets)
}

func TestBoundaryResetRecoverFailure(t *testing.T) {
	b := New(types.PanelPreview, Settings{
		Recover: func(ctx context.Context) error {
			return errors.New("seed unavailable")
		},
	})
	b.Fail(errors.New("boom"))

	err := b.Reset(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateErrored, b.State())
}

func TestBoundaryGuard(t *testing.T) {
	b := New(types.PanelPreview, Settings{})

	require.NoError(t, b.Guard(func() error { return nil }))
	assert.Equal(t, StateNormal, b.State())

	err := b.Guard(func() error { return errors.New("compile failed") })
	assert.EqualError(t, err, "compile failed")
	assert.Equal(t, StateErrored, b.State())

	ran := false
	err = b.Guard(func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrErrored)
	assert.False(t, ran)
}

func TestBoundaryGuardRecoversPanic(t *testing.T) {
	b := New(types.PanelEditor, Settings{})

	err := b.Guard(func() error { panic("render failed") })

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "render failed")
	assert.Equal(t, StateErrored, b.State())
}

func TestBoundaryConcurrentFail(t *testing.T) {
	transitions := 0
	var mu sync.Mutex
	b := New(types.PanelPreview, Settings{
		OnStateChange: func(panel types.Panel, from, to State) {
			mu.Lock()
			transitions++
			mu.Unlock()
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Fail(errors.New("boom"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, transitions)
	assert.Equal(t, uint32(1), b.Counts().Failures)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "normal", StateNormal.String())
	assert.Equal(t, "errored", StateErrored.String())
	assert.Equal(t, "unknown", State(9).String())
	assert.Equal(t, types.BoundaryErrored, StateErrored.External())
}
