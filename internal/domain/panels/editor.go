package panels

import (
	"sync"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// Code is what the editor displays
type Code struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Editor binds to the active file and tracks open tabs
type Editor struct {
	ws          *workspace.Workspace
	unsubscribe func()

	mu   sync.Mutex
	tabs []string
}

// NewEditor creates an editor with the active file open.
// Call Detach when the editor is discarded.
func NewEditor(ws *workspace.Workspace) *Editor {
	e := &Editor{ws: ws}
	e.tabs = uniqueTabs(ws.EntryFile(), ws.ActiveFile())
	e.unsubscribe = ws.OnFilesChanged(e.onChange)
	return e
}

// Detach stops tracking workspace changes
func (e *Editor) Detach() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}

// Code returns the active file and its content
func (e *Editor) Code() (Code, error) {
	p := e.ws.ActiveFile()
	content, err := e.ws.File(p)
	if err != nil {
		return Code{}, err
	}
	return Code{Path: p, Content: content}, nil
}

// UpdateCode writes content into the active file
func (e *Editor) UpdateCode(content string) error {
	return e.ws.UpdateFile(e.ws.ActiveFile(), content)
}

// Tabs returns the open tabs in opening order
func (e *Editor) Tabs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	tabs := make([]string, len(e.tabs))
	copy(tabs, e.tabs)
	return tabs
}

// Open activates p and adds a tab for it
func (e *Editor) Open(p string) error {
	// the change listener adds the tab
	return e.ws.SetActiveFile(p)
}

// Close removes the tab of p. The entry tab stays open.
// Closing the active tab activates the tab before it.
func (e *Editor) Close(p string) error {
	p, err := workspace.NormalizePath(p)
	if err != nil {
		return err
	}
	if p == e.ws.EntryFile() {
		return nil
	}

	e.mu.Lock()
	idx := indexOf(e.tabs, p)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	e.tabs = append(e.tabs[:idx], e.tabs[idx+1:]...)
	next := e.tabs[max(idx-1, 0)]
	e.mu.Unlock()

	if e.ws.ActiveFile() != p {
		return nil
	}
	return e.ws.SetActiveFile(next)
}

func (e *Editor) onChange(change types.FileChange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch change.Op {
	case types.ChangeReset:
		e.tabs = uniqueTabs(e.ws.EntryFile(), change.ActiveFile)
		return
	case types.ChangeDelete:
		if idx := indexOf(e.tabs, change.Path); idx >= 0 {
			e.tabs = append(e.tabs[:idx], e.tabs[idx+1:]...)
		}
	}
	if indexOf(e.tabs, change.ActiveFile) < 0 {
		e.tabs = append(e.tabs, change.ActiveFile)
	}
}

func uniqueTabs(paths ...string) []string {
	tabs := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" && indexOf(tabs, p) < 0 {
			tabs = append(tabs, p)
		}
	}
	return tabs
}

func indexOf(tabs []string, p string) int {
	for i, t := range tabs {
		if t == p {
			return i
		}
	}
	return -1
}
