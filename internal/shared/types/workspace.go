package types

import "time"

// File is a single entry of a workspace's virtual file system
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ChangeOp identifies what kind of mutation produced a FileChange
type ChangeOp string

const (
	ChangeAdd    ChangeOp = "add"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
	ChangeReset  ChangeOp = "reset"
	ChangeActive ChangeOp = "active"
)

// FileChange describes a single store mutation
type FileChange struct {
	Revision   uint64   `json:"revision"`
	Op         ChangeOp `json:"op"`
	Path       string   `json:"path,omitempty"`
	ActiveFile string   `json:"active_file"`
}

// ContentChanged reports whether the mutation touched file contents.
// Switching tabs does not require a recompile.
func (c FileChange) ContentChanged() bool {
	return c.Op != ChangeActive
}

// SplitOrientation is the arrangement of the editor and preview panes
type SplitOrientation string

const (
	SplitHorizontal SplitOrientation = "horizontal"
	SplitVertical   SplitOrientation = "vertical"
)

// Valid reports enum membership
func (s SplitOrientation) Valid() bool {
	return s == SplitHorizontal || s == SplitVertical
}

// LayoutState is the ephemeral UI arrangement of a workspace
type LayoutState struct {
	ConsoleVisible bool             `json:"console_visible"`
	Fullscreen     bool             `json:"fullscreen"`
	Split          SplitOrientation `json:"split"`
}

// EnvironmentPreset selects how the runtime treats a workspace
type EnvironmentPreset string

const (
	EnvCreateReactApp EnvironmentPreset = "create-react-app"
	EnvNode           EnvironmentPreset = "node"
	EnvStatic         EnvironmentPreset = "static"
)

// Valid reports enum membership
func (e EnvironmentPreset) Valid() bool {
	switch e {
	case EnvCreateReactApp, EnvNode, EnvStatic:
		return true
	}
	return false
}

// RecompileMode controls when a change triggers a compile
type RecompileMode string

const (
	RecompileImmediate RecompileMode = "immediate"
	RecompileDelayed   RecompileMode = "delayed"
)

// Valid reports enum membership
func (m RecompileMode) Valid() bool {
	return m == RecompileImmediate || m == RecompileDelayed
}

// ClassNames remaps the front end's built-in CSS classes
type ClassNames struct {
	Wrapper   string `json:"wrapper,omitempty" yaml:"wrapper,omitempty" toml:"wrapper,omitempty"`
	Layout    string `json:"layout,omitempty" yaml:"layout,omitempty" toml:"layout,omitempty"`
	TabButton string `json:"tab_button,omitempty" yaml:"tab_button,omitempty" toml:"tab_button,omitempty"`
}

// Options configures the preview pipeline of a workspace.
// Delays are in milliseconds.
type Options struct {
	TimeoutDelay      int           `json:"timeout_delay" yaml:"timeout_delay" toml:"timeout_delay"`
	RecompileDelay    int           `json:"recompile_delay" yaml:"recompile_delay" toml:"recompile_delay"`
	RecompileMode     RecompileMode `json:"recompile_mode" yaml:"recompile_mode" toml:"recompile_mode"`
	ShowLoadingScreen bool          `json:"show_loading_screen" yaml:"show_loading_screen" toml:"show_loading_screen"`
	Classes           ClassNames    `json:"classes" yaml:"classes" toml:"classes"`
}

// DefaultOptions mirrors the runtime's documented defaults
func DefaultOptions() Options {
	return Options{
		TimeoutDelay:      30000,
		RecompileDelay:    500,
		RecompileMode:     RecompileDelayed,
		ShowLoadingScreen: true,
	}
}

// Timeout returns the compute budget of a single compile
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutDelay) * time.Millisecond
}

// Debounce returns the recompile debounce window
func (o Options) Debounce() time.Duration {
	return time.Duration(o.RecompileDelay) * time.Millisecond
}

// WithDefaults fills zero fields from DefaultOptions
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.TimeoutDelay <= 0 {
		o.TimeoutDelay = d.TimeoutDelay
	}
	if o.RecompileDelay < 0 {
		o.RecompileDelay = d.RecompileDelay
	}
	if !o.RecompileMode.Valid() {
		o.RecompileMode = d.RecompileMode
	}
	return o
}

// WorkspaceStats contains workspace manager statistics
type WorkspaceStats struct {
	TotalWorkspaces int `json:"total_workspaces"`
	TotalFiles      int `json:"total_files"`
	ErroredPanels   int `json:"errored_panels"`
}
