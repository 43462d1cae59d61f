package workspace

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/shared/id"
	"github.com/GriffinCanCode/sandpad/internal/shared/listeners"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// ChangeListener is notified after every store mutation.
// Listeners run synchronously in mutation order and must not mutate the workspace.
type ChangeListener func(change types.FileChange)

// Config describes a workspace at creation time
type Config struct {
	ID           id.WorkspaceID
	Name         string
	Entry        string
	Files        map[string]string
	Dependencies map[string]string
	Environment  types.EnvironmentPreset
	Options      types.Options
	ConsoleLimit int
}

// Workspace is the live handle bound to one file set
type Workspace struct {
	id           id.WorkspaceID
	name         string
	environment  types.EnvironmentPreset
	dependencies map[string]string
	options      types.Options
	createdAt    time.Time

	store   *Store
	console *Console
	logger  *zap.Logger

	emitMu    sync.Mutex // serialises mutation + notification
	listeners listeners.Set[ChangeListener]
}

// New creates a workspace from cfg
func New(cfg Config, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ID == "" {
		cfg.ID = id.NewWorkspaceID()
	}
	if cfg.Environment == "" {
		cfg.Environment = types.EnvCreateReactApp
	}
	if !cfg.Environment.Valid() {
		return nil, fmt.Errorf("unknown environment preset %q", cfg.Environment)
	}

	store, err := NewStore(cfg.Entry, cfg.Files)
	if err != nil {
		return nil, err
	}

	deps := make(map[string]string, len(cfg.Dependencies))
	for name, version := range cfg.Dependencies {
		deps[name] = version
	}

	return &Workspace{
		id:           cfg.ID,
		name:         cfg.Name,
		environment:  cfg.Environment,
		dependencies: deps,
		options:      cfg.Options.WithDefaults(),
		createdAt:    time.Now(),
		store:        store,
		console:      NewConsole(cfg.ConsoleLimit),
		logger:       logger.With(zap.String("workspace_id", cfg.ID.String())),
	}, nil
}

// ID returns the workspace ID
func (w *Workspace) ID() id.WorkspaceID { return w.id }

// Name returns the display name
func (w *Workspace) Name() string { return w.name }

// Environment returns the runtime preset
func (w *Workspace) Environment() types.EnvironmentPreset { return w.environment }

// Options returns the preview options
func (w *Workspace) Options() types.Options { return w.options }

// CreatedAt returns the creation time
func (w *Workspace) CreatedAt() time.Time { return w.createdAt }

// EntryFile returns the protected entry path
func (w *Workspace) EntryFile() string { return w.store.Entry() }

// Console returns the console buffer
func (w *Workspace) Console() *Console { return w.console }

// Dependencies returns a copy of the declared dependencies
func (w *Workspace) Dependencies() map[string]string {
	deps := make(map[string]string, len(w.dependencies))
	for name, version := range w.dependencies {
		deps[name] = version
	}
	return deps
}

// AddFile creates p, or overwrites it when it already exists
func (w *Workspace) AddFile(p, content string) error {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	change, err := w.store.Add(p, content)
	if err != nil {
		return err
	}
	w.logger.Debug("File added", zap.String("path", change.Path), zap.Uint64("revision", change.Revision))
	w.emit(change)
	return nil
}

// DeleteFile removes p. Deleting the entry file is a silent no-op.
func (w *Workspace) DeleteFile(p string) error {
	if normalized, err := NormalizePath(p); err == nil && normalized == w.store.Entry() {
		w.logger.Debug("Ignored delete of entry file", zap.String("path", normalized))
		return nil
	}

	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	change, err := w.store.Delete(p)
	if errors.Is(err, ErrProtectedFile) {
		return nil
	}
	if err != nil {
		return err
	}
	w.logger.Debug("File deleted", zap.String("path", change.Path), zap.Uint64("revision", change.Revision))
	w.emit(change)
	return nil
}

// UpdateFile replaces the content of an existing file
func (w *Workspace) UpdateFile(p, content string) error {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	change, changed, err := w.store.Update(p, content)
	if err != nil || !changed {
		return err
	}
	w.emit(change)
	return nil
}

// SetActiveFile points the editor at p
func (w *Workspace) SetActiveFile(p string) error {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	change, changed, err := w.store.SetActive(p)
	if err != nil || !changed {
		return err
	}
	w.emit(change)
	return nil
}

// ActiveFile returns the active path
func (w *Workspace) ActiveFile() string {
	return w.store.Active()
}

// File returns the content of p
func (w *Workspace) File(p string) (string, error) {
	return w.store.Get(p)
}

// Files returns a copy of the file set
func (w *Workspace) Files() map[string]string {
	files, _ := w.store.Snapshot()
	return files
}

// FileList returns the file set ordered by path
func (w *Workspace) FileList() []types.File {
	files, _ := w.store.Snapshot()
	list := make([]types.File, 0, len(files))
	for p, c := range files {
		list = append(list, types.File{Path: p, Content: c})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list
}

// Snapshot returns a copy of the file set together with its revision
func (w *Workspace) Snapshot() (map[string]string, uint64) {
	return w.store.Snapshot()
}

// Paths returns all paths in lexical order
func (w *Workspace) Paths() []string {
	return w.store.Paths()
}

// Match returns the paths matching a glob
func (w *Workspace) Match(pattern string) ([]string, error) {
	return w.store.Match(pattern)
}

// Revision returns the current store revision
func (w *Workspace) Revision() uint64 {
	return w.store.Revision()
}

// Len returns the number of files
func (w *Workspace) Len() int {
	return w.store.Len()
}

// ResetAllFiles restores the seed files and activates the entry file
func (w *Workspace) ResetAllFiles() {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	change := w.store.Reset()
	w.logger.Info("Workspace files reset", zap.Uint64("revision", change.Revision))
	w.emit(change)
}

// OnFilesChanged registers l and returns a function that removes it
func (w *Workspace) OnFilesChanged(l ChangeListener) func() {
	return w.listeners.Add(l)
}

// SubscribeConsole streams console records appended from now on
func (w *Workspace) SubscribeConsole(l ConsoleListener) func() {
	return w.console.Subscribe(l)
}

// emit must be called with emitMu held
func (w *Workspace) emit(change types.FileChange) {
	for _, l := range w.listeners.Snapshot() {
		l(change)
	}
}
