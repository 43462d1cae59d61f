package studio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/boundary"
	"github.com/GriffinCanCode/sandpad/internal/domain/layout"
	"github.com/GriffinCanCode/sandpad/internal/domain/panels"
	"github.com/GriffinCanCode/sandpad/internal/domain/preview"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/id"
	"github.com/GriffinCanCode/sandpad/internal/shared/listeners"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// panelOrder fixes the order boundaries are reported in
var panelOrder = []types.Panel{types.PanelEditor, types.PanelPreview}

// PreviewView is the preview pane as the front end renders it
type PreviewView struct {
	Status types.PreviewStatus    `json:"status"`
	Last   *types.ExecutionResult `json:"last,omitempty"`
}

// Snapshot is the full observable state of an instance
type Snapshot struct {
	ID           id.WorkspaceID          `json:"id"`
	Name         string                  `json:"name"`
	Environment  types.EnvironmentPreset `json:"environment"`
	Entry        string                  `json:"entry"`
	ActiveFile   string                  `json:"active_file"`
	Files        []types.File            `json:"files"`
	Tabs         []string                `json:"tabs"`
	Dependencies map[string]string       `json:"dependencies"`
	Options      types.Options           `json:"options"`
	Layout       types.LayoutState       `json:"layout"`
	Boundaries   []types.BoundaryInfo    `json:"boundaries"`
	Preview      PreviewView             `json:"preview"`
	Revision     uint64                  `json:"revision"`
	CreatedAt    time.Time               `json:"created_at"`
}

// Summary is the list form of an instance
type Summary struct {
	ID        id.WorkspaceID `json:"id"`
	Name      string         `json:"name"`
	Files     int            `json:"files"`
	Errored   bool           `json:"errored"`
	CreatedAt time.Time      `json:"created_at"`
}

// Instance is one live sandbox
type Instance struct {
	Workspace *workspace.Workspace
	Explorer  *panels.Explorer
	Editor    *panels.Editor
	Console   *panels.Console
	Layout    *layout.Controller
	Preview   *preview.Scheduler

	boundaries map[types.Panel]*boundary.Boundary
	logger     *zap.Logger
	metrics    *monitoring.Metrics

	listeners listeners.Set[Listener]

	unsubscribe []func()
	closeOnce   sync.Once
}

func newInstance(ws *workspace.Workspace, exec sandbox.Executor, logger *zap.Logger, metrics *monitoring.Metrics) *Instance {
	logger = logger.With(zap.String("workspace_id", ws.ID().String()))

	inst := &Instance{
		Workspace:  ws,
		Explorer:   panels.NewExplorer(ws, logger),
		Editor:     panels.NewEditor(ws),
		boundaries: make(map[types.Panel]*boundary.Boundary, len(panelOrder)),
		logger:     logger,
		metrics:    metrics,
	}
	inst.Layout = layout.NewController(func(state types.LayoutState) {
		inst.publish(EventLayoutChanged, state)
	})
	inst.Console = panels.NewConsole(ws, inst.Layout)

	for _, panel := range panelOrder {
		inst.boundaries[panel] = boundary.New(panel, boundary.Settings{
			Recover: func(ctx context.Context) error {
				ws.ResetAllFiles()
				return nil
			},
			OnStateChange: inst.onBoundaryChange,
		})
	}

	inst.Preview = preview.New(ws, exec, inst.boundaries[types.PanelPreview], logger).WithMetrics(metrics)

	inst.unsubscribe = append(inst.unsubscribe,
		ws.OnFilesChanged(func(change types.FileChange) {
			if metrics != nil {
				metrics.RecordFileOp(string(change.Op))
			}
			inst.publish(EventFilesChanged, change)
		}),
		ws.SubscribeConsole(func(record types.ConsoleRecord) {
			inst.publish(EventConsoleRecord, record)
		}),
		inst.Preview.Subscribe(func(e preview.Event) {
			if e.Result != nil {
				inst.publish(EventPreviewResult, e.Result)
				return
			}
			inst.publish(EventPreviewStatus, e.Status)
		}),
	)
	return inst
}

// start begins watching the workspace and runs the first compile
func (i *Instance) start() {
	i.Preview.Start()
}

// ID returns the workspace ID
func (i *Instance) ID() id.WorkspaceID {
	return i.Workspace.ID()
}

// Boundary returns the boundary wrapping panel
func (i *Instance) Boundary(panel types.Panel) (*boundary.Boundary, bool) {
	b, ok := i.boundaries[panel]
	return b, ok
}

// Boundaries returns the state of every boundary
func (i *Instance) Boundaries() []types.BoundaryInfo {
	infos := make([]types.BoundaryInfo, 0, len(panelOrder))
	for _, panel := range panelOrder {
		infos = append(infos, i.boundaries[panel].Info())
	}
	return infos
}

// Errored reports whether any boundary is Errored
func (i *Instance) Errored() bool {
	for _, b := range i.boundaries {
		if b.State() == boundary.StateErrored {
			return true
		}
	}
	return false
}

// Reset is the "Reset & Try Again" action of a panel
func (i *Instance) Reset(ctx context.Context, panel types.Panel) error {
	b, ok := i.boundaries[panel]
	if !ok {
		return fmt.Errorf("%w: unknown panel %q", workspace.ErrNotFound, panel)
	}
	return b.Reset(ctx)
}

// Code renders the editor. A failure moves the editor boundary to Errored.
func (i *Instance) Code() (panels.Code, error) {
	var code panels.Code
	err := i.boundaries[types.PanelEditor].Guard(func() error {
		var err error
		code, err = i.Editor.Code()
		return err
	})
	return code, err
}

// UpdateCode pushes an edit of the active file through the editor boundary
func (i *Instance) UpdateCode(content string) error {
	return i.boundaries[types.PanelEditor].Guard(func() error {
		return i.Editor.UpdateCode(content)
	})
}

// Snapshot returns the observable state of the instance
func (i *Instance) Snapshot() Snapshot {
	ws := i.Workspace
	files, revision := ws.Snapshot()
	list := make([]types.File, 0, len(files))
	for _, p := range ws.Paths() {
		if content, ok := files[p]; ok {
			list = append(list, types.File{Path: p, Content: content})
		}
	}

	return Snapshot{
		ID:           ws.ID(),
		Name:         ws.Name(),
		Environment:  ws.Environment(),
		Entry:        ws.EntryFile(),
		ActiveFile:   ws.ActiveFile(),
		Files:        list,
		Tabs:         i.Editor.Tabs(),
		Dependencies: ws.Dependencies(),
		Options:      ws.Options(),
		Layout:       i.Layout.State(),
		Boundaries:   i.Boundaries(),
		Preview:      PreviewView{Status: i.Preview.Status(), Last: i.Preview.Last()},
		Revision:     revision,
		CreatedAt:    ws.CreatedAt(),
	}
}

// Summary returns the list form of the instance
func (i *Instance) Summary() Summary {
	return Summary{
		ID:        i.ID(),
		Name:      i.Workspace.Name(),
		Files:     i.Workspace.Len(),
		Errored:   i.Errored(),
		CreatedAt: i.Workspace.CreatedAt(),
	}
}

// Subscribe registers l and returns a function that removes it
func (i *Instance) Subscribe(l Listener) func() {
	return i.listeners.Add(l)
}

func (i *Instance) close() {
	i.closeOnce.Do(func() {
		i.Preview.Close()
		i.Editor.Detach()
		for _, unsubscribe := range i.unsubscribe {
			unsubscribe()
		}
	})
}

func (i *Instance) onBoundaryChange(panel types.Panel, from, to boundary.State) {
	b := i.boundaries[panel]
	if to == boundary.StateErrored {
		i.logger.Warn("Panel errored", zap.String("panel", string(panel)), zap.Error(b.Err()))
	} else {
		i.logger.Info("Panel recovered", zap.String("panel", string(panel)))
	}
	if i.metrics != nil {
		i.metrics.RecordBoundaryTransition(string(panel), to.String())
	}

	i.publish(EventBoundaryState, b.Info())

	if panel == types.PanelPreview && to == boundary.StateNormal {
		i.Preview.Recovered()
	}
}

func (i *Instance) publish(t EventType, payload interface{}) {
	event := Event{
		Type:        t,
		WorkspaceID: i.Workspace.ID(),
		Payload:     payload,
		At:          time.Now(),
	}

	for _, l := range i.listeners.Snapshot() {
		l(event)
	}
}
