package studio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sandpad/internal/domain/boundary"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
	"github.com/GriffinCanCode/sandpad/internal/templates"
	"github.com/GriffinCanCode/sandpad/internal/testutil"
)

var fastOptions = &types.Options{
	TimeoutDelay:   1000,
	RecompileDelay: 10,
	RecompileMode:  types.RecompileDelayed,
}

func newTestManager(t *testing.T, exec sandbox.Executor) *Manager {
	t.Helper()
	m := NewManager(exec, templates.Default(), nil)
	t.Cleanup(m.Close)
	return m
}

func TestCreateFromTemplate(t *testing.T) {
	exec := testutil.NewMockExecutor(t)
	m := newTestManager(t, exec)

	inst, err := m.Create(nil)
	require.NoError(t, err)

	snap := inst.Snapshot()
	assert.Equal(t, templates.DefaultName, snap.Name)
	assert.Equal(t, "/App.js", snap.Entry)
	assert.Equal(t, "/App.js", snap.ActiveFile)
	assert.Equal(t, []string{"/App.js"}, snap.Tabs)
	assert.Len(t, snap.Files, 2)
	assert.Equal(t, types.LayoutState{Split: types.SplitHorizontal}, snap.Layout)
	require.Len(t, snap.Boundaries, 2)
	assert.Equal(t, types.PanelEditor, snap.Boundaries[0].Panel)
	assert.Equal(t, types.BoundaryNormal, snap.Boundaries[1].State)

	// the first compile runs straight away
	require.Eventually(t, func() bool { return exec.Calls() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCreateWithOverrides(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))

	inst, err := m.Create(&Overrides{
		Name:        "scratch",
		Files:       map[string]string{"index.js": "module.exports = 1"},
		Entry:       "index.js",
		Environment: types.EnvNode,
		Options:     fastOptions,
	})
	require.NoError(t, err)

	assert.Equal(t, "scratch", inst.Workspace.Name())
	assert.Equal(t, "/index.js", inst.Workspace.EntryFile())
	assert.Equal(t, types.EnvNode, inst.Workspace.Environment())
	assert.Equal(t, 10, inst.Workspace.Options().RecompileDelay)
	// dependencies fall back to the template
	assert.Contains(t, inst.Workspace.Dependencies(), "react")
}

func TestCreateRejectsInvalidOverrides(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))

	_, err := m.Create(&Overrides{Files: map[string]string{"/other.js": ""}})

	assert.ErrorIs(t, err, workspace.ErrInvalidPath)
	assert.ErrorIs(t, err, templates.ErrInvalidTemplate)
	assert.Empty(t, m.List())
}

func TestGetListDelete(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))

	first, err := m.Create(nil)
	require.NoError(t, err)
	second, err := m.Create(nil)
	require.NoError(t, err)

	got, ok := m.Get(first.ID().String())
	require.True(t, ok)
	assert.Same(t, first, got)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID)
	assert.Equal(t, second.ID(), list[1].ID)

	assert.True(t, m.Delete(first.ID().String()))
	assert.False(t, m.Delete(first.ID().String()))
	_, ok = m.Get(first.ID().String())
	assert.False(t, ok)
	assert.Len(t, m.List(), 1)
}

func TestStats(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))

	_, err := m.Create(nil)
	require.NoError(t, err)
	inst, err := m.Create(nil)
	require.NoError(t, err)
	require.NoError(t, inst.Workspace.AddFile("/extra.js", ""))

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalWorkspaces)
	assert.Equal(t, 5, stats.TotalFiles)
	assert.Equal(t, 0, stats.ErroredPanels)
}

func TestPreviewFailureAndRecovery(t *testing.T) {
	exec := new(testutil.MockExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(nil, errors.New("ReferenceError: React is not defined")).Once()
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(&sandbox.Result{HTML: "<h1>ok</h1>"}, nil)

	m := newTestManager(t, exec)
	inst, err := m.Create(&Overrides{Options: fastOptions})
	require.NoError(t, err)

	previewBoundary, ok := inst.Boundary(types.PanelPreview)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return previewBoundary.State() == boundary.StateErrored
	}, time.Second, 5*time.Millisecond)

	assert.True(t, inst.Errored())
	assert.Equal(t, 1, m.Stats().ErroredPanels)
	assert.Contains(t, inst.Boundaries()[1].Error, "React is not defined")

	require.NoError(t, inst.Workspace.UpdateFile("/App.js", "broken("))
	require.NoError(t, inst.Reset(context.Background(), types.PanelPreview))

	assert.False(t, inst.Errored())
	assert.Equal(t, templates.Default().Files, inst.Workspace.Files())
	require.Eventually(t, func() bool {
		last := inst.Preview.Last()
		return last != nil && last.Error == nil && last.HTML == "<h1>ok</h1>"
	}, time.Second, 5*time.Millisecond)
}

func TestResetUnknownPanel(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))
	inst, err := m.Create(nil)
	require.NoError(t, err)

	err = inst.Reset(context.Background(), types.Panel("sidebar"))
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestEditorBoundaryGuardsEdits(t *testing.T) {
	m := newTestManager(t, testutil.NewMockExecutor(t))
	inst, err := m.Create(nil)
	require.NoError(t, err)

	require.NoError(t, inst.UpdateCode("module.exports = 2"))
	code, err := inst.Code()
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 2", code.Content)

	editorBoundary, _ := inst.Boundary(types.PanelEditor)
	editorBoundary.Fail(errors.New("editor crashed"))

	assert.ErrorIs(t, inst.UpdateCode("lost"), boundary.ErrErrored)
	_, err = inst.Code()
	assert.ErrorIs(t, err, boundary.ErrErrored)

	require.NoError(t, inst.Reset(context.Background(), types.PanelEditor))
	code, err = inst.Code()
	require.NoError(t, err)
	assert.Equal(t, templates.Default().Files["/App.js"], code.Content)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) has(t EventType) bool {
	for _, got := range r.kinds() {
		if got == t {
			return true
		}
	}
	return false
}

func TestEventStream(t *testing.T) {
	exec := new(testutil.MockExecutor)
	exec.On("Execute", mock.Anything, mock.Anything).Return(&sandbox.Result{
		Console: []sandbox.LogEntry{{Level: types.LevelInfo, Message: "rendered"}},
	}, nil)

	m := newTestManager(t, exec)
	inst, err := m.Create(&Overrides{Options: fastOptions})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return exec.Calls() == 1 }, time.Second, 5*time.Millisecond)

	rec := &recorder{}
	unsubscribe := inst.Subscribe(rec.listen)

	require.NoError(t, inst.Workspace.UpdateFile("/App.js", "module.exports = 3"))
	inst.Layout.ToggleConsole()

	require.Eventually(t, func() bool {
		return rec.has(EventPreviewResult) && rec.has(EventConsoleRecord)
	}, time.Second, 5*time.Millisecond)

	assert.True(t, rec.has(EventFilesChanged))
	assert.True(t, rec.has(EventPreviewStatus))
	assert.True(t, rec.has(EventLayoutChanged))

	unsubscribe()
	before := len(rec.kinds())
	inst.Layout.ToggleConsole()
	assert.Len(t, rec.kinds(), before)
}

func TestDeleteStopsPreview(t *testing.T) {
	exec := testutil.NewMockExecutor(t)
	m := newTestManager(t, exec)
	inst, err := m.Create(&Overrides{Options: fastOptions})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return exec.Calls() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, m.Delete(inst.ID().String()))
	require.NoError(t, inst.Workspace.UpdateFile("/App.js", "ignored"))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, exec.Calls())
}
