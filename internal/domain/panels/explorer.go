package panels

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
)

// NewFileContent is the placeholder written into files created from the explorer
const NewFileContent = "// Write your code here"

// InputState is the pending new-file input of the explorer
type InputState struct {
	Visible bool   `json:"visible"`
	Value   string `json:"value"`
}

// Entry is one row of the flat file listing
type Entry struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Dir    string `json:"dir"`
	Active bool   `json:"active"`
	Entry  bool   `json:"entry"`
}

// Node is one element of the directory tree
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsDir    bool    `json:"is_dir"`
	Children []*Node `json:"children,omitempty"`
}

// Explorer lists files and issues create and delete commands
type Explorer struct {
	ws     *workspace.Workspace
	logger *zap.Logger

	mu    sync.Mutex
	input InputState
}

// NewExplorer creates an explorer bound to ws
func NewExplorer(ws *workspace.Workspace, logger *zap.Logger) *Explorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explorer{ws: ws, logger: logger}
}

// OpenNewFileInput shows the new-file input
func (e *Explorer) OpenNewFileInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input.Visible = true
}

// CancelInput hides and clears the new-file input
func (e *Explorer) CancelInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = InputState{}
}

// SetInput replaces the pending file name
func (e *Explorer) SetInput(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input.Visible = true
	e.input.Value = name
}

// Input returns the pending input state
func (e *Explorer) Input() InputState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// Create adds a file named by the pending input and makes it active.
// An empty name is rejected and the input is kept.
func (e *Explorer) Create() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := strings.TrimSpace(e.input.Value)
	if name == "" {
		return "", fmt.Errorf("%w: file name is empty", workspace.ErrInvalidPath)
	}
	p, err := workspace.NormalizePath(name)
	if err != nil {
		return "", err
	}

	if err := e.ws.AddFile(p, NewFileContent); err != nil {
		return "", err
	}
	if err := e.ws.SetActiveFile(p); err != nil {
		return "", err
	}
	e.input = InputState{}

	e.logger.Debug("Created file from explorer", zap.String("path", p))
	return p, nil
}

// CreateFile sets the input to name and creates it in one step
func (e *Explorer) CreateFile(name string) (string, error) {
	e.SetInput(name)
	return e.Create()
}

// Delete removes p. The entry file is silently retained.
func (e *Explorer) Delete(p string) error {
	return e.ws.DeleteFile(p)
}

// Entries lists files in path order, optionally restricted by a glob
func (e *Explorer) Entries(glob string) ([]Entry, error) {
	var paths []string
	if strings.TrimSpace(glob) == "" {
		paths = e.ws.Paths()
	} else {
		matched, err := e.ws.Match(glob)
		if err != nil {
			return nil, err
		}
		paths = matched
	}

	active := e.ws.ActiveFile()
	entry := e.ws.EntryFile()
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, Entry{
			Path:   p,
			Name:   workspace.Base(p),
			Dir:    workspace.Dir(p),
			Active: p == active,
			Entry:  p == entry,
		})
	}
	return entries, nil
}

// Tree builds the directory tree of the workspace.
// Directories sort before files; siblings sort by name.
func (e *Explorer) Tree() *Node {
	return BuildTree(e.ws.Paths())
}

// BuildTree arranges slash-separated paths into a tree rooted at "/"
func BuildTree(paths []string) *Node {
	root := &Node{Name: "/", Path: workspace.Separator, IsDir: true}
	dirs := map[string]*Node{workspace.Separator: root}

	for _, p := range paths {
		parts := strings.Split(strings.TrimPrefix(p, workspace.Separator), workspace.Separator)
		parent := root
		for i, part := range parts {
			current := workspace.Separator + strings.Join(parts[:i+1], workspace.Separator)
			if i == len(parts)-1 {
				parent.Children = append(parent.Children, &Node{Name: part, Path: current})
				break
			}
			dir, ok := dirs[current]
			if !ok {
				dir = &Node{Name: part, Path: current, IsDir: true}
				dirs[current] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}
	}

	sortTree(root)
	return root
}

func sortTree(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range n.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}
