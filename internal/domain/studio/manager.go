package studio

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
	"github.com/GriffinCanCode/sandpad/internal/shared/id"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
	"github.com/GriffinCanCode/sandpad/internal/templates"
)

// Overrides customises a workspace created from the configured template.
// Zero fields keep the template's values.
type Overrides struct {
	Name         string                  `json:"name"`
	Entry        string                  `json:"entry"`
	Files        map[string]string       `json:"files"`
	Dependencies map[string]string       `json:"dependencies"`
	Environment  types.EnvironmentPreset `json:"environment"`
	Options      *types.Options          `json:"options"`
}

// Manager orchestrates instance lifecycle
type Manager struct {
	mu           sync.RWMutex
	instances    map[id.WorkspaceID]*Instance // Protected by mu
	exec         sandbox.Executor
	template     templates.Template
	consoleLimit int
	logger       *zap.Logger
	metrics      *monitoring.Metrics
}

// NewManager creates a manager that seeds workspaces from tmpl
func NewManager(exec sandbox.Executor, tmpl templates.Template, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		instances:    make(map[id.WorkspaceID]*Instance),
		exec:         exec,
		template:     tmpl.Clone(),
		consoleLimit: workspace.DefaultConsoleLimit,
		logger:       logger,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithConsoleLimit sets the console capacity of new workspaces
func (m *Manager) WithConsoleLimit(limit int) *Manager {
	if limit > 0 {
		m.consoleLimit = limit
	}
	return m
}

// Template returns a copy of the configured template
func (m *Manager) Template() templates.Template {
	return m.template.Clone()
}

// Create builds a workspace from the template and starts its preview
func (m *Manager) Create(overrides *Overrides) (*Instance, error) {
	tmpl := m.template.Clone()
	if overrides != nil {
		overrides.apply(&tmpl)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", workspace.ErrInvalidPath, err)
	}

	ws, err := workspace.New(tmpl.WorkspaceConfig(m.consoleLimit), m.logger)
	if err != nil {
		return nil, err
	}

	inst := newInstance(ws, m.exec, m.logger, m.metrics)

	m.mu.Lock()
	m.instances[ws.ID()] = inst
	count := len(m.instances)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncWorkspacesTotal()
		m.metrics.SetWorkspacesActive(count)
	}
	m.logger.Info("Workspace created",
		zap.String("workspace_id", ws.ID().String()),
		zap.String("template", tmpl.Name),
		zap.Int("files", ws.Len()))

	inst.start()
	return inst, nil
}

// Get retrieves an instance by ID
func (m *Manager) Get(workspaceID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[id.WorkspaceID(workspaceID)]
	return inst, ok
}

// List returns all instances in creation order
func (m *Manager) List() []Summary {
	m.mu.RLock()
	summaries := make([]Summary, 0, len(m.instances))
	for _, inst := range m.instances {
		summaries = append(summaries, inst.Summary())
	}
	m.mu.RUnlock()

	// IDs are ULIDs, so lexical order is creation order
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// Delete disposes an instance
func (m *Manager) Delete(workspaceID string) bool {
	m.mu.Lock()
	inst, ok := m.instances[id.WorkspaceID(workspaceID)]
	if ok {
		delete(m.instances, inst.ID())
	}
	count := len(m.instances)
	m.mu.Unlock()

	if !ok {
		return false
	}

	inst.close()
	if m.metrics != nil {
		m.metrics.SetWorkspacesActive(count)
	}
	m.logger.Info("Workspace deleted", zap.String("workspace_id", workspaceID))
	return true
}

// Stats returns manager statistics
func (m *Manager) Stats() types.WorkspaceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.WorkspaceStats{TotalWorkspaces: len(m.instances)}
	for _, inst := range m.instances {
		stats.TotalFiles += inst.Workspace.Len()
		for _, info := range inst.Boundaries() {
			if info.State == types.BoundaryErrored {
				stats.ErroredPanels++
			}
		}
	}
	return stats
}

// Close disposes every instance
func (m *Manager) Close() {
	m.mu.Lock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.instances = make(map[id.WorkspaceID]*Instance)
	m.mu.Unlock()

	for _, inst := range instances {
		inst.close()
	}
	if m.metrics != nil {
		m.metrics.SetWorkspacesActive(0)
	}
}

func (o *Overrides) apply(t *templates.Template) {
	if o.Name != "" {
		t.Name = o.Name
	}
	if len(o.Files) > 0 {
		t.Files = o.Files
	}
	if o.Entry != "" {
		t.Entry = o.Entry
	}
	if o.Dependencies != nil {
		t.Dependencies = o.Dependencies
	}
	if o.Environment != "" {
		t.Environment = o.Environment
	}
	if o.Options != nil {
		t.Options = *o.Options
	}
}
