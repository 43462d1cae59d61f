package panels

import (
	"github.com/GriffinCanCode/sandpad/internal/domain/layout"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// ConsoleView is what the console pane renders
type ConsoleView struct {
	Visible bool                  `json:"visible"`
	Records []types.ConsoleRecord `json:"records"`
	LastSeq uint64                `json:"last_seq"`
}

// Console displays captured program output
type Console struct {
	ws     *workspace.Workspace
	layout *layout.Controller
}

// NewConsole creates a console pane over the workspace buffer
func NewConsole(ws *workspace.Workspace, layout *layout.Controller) *Console {
	return &Console{ws: ws, layout: layout}
}

// Visible reports whether the pane is shown
func (c *Console) Visible() bool {
	return c.layout.State().ConsoleVisible
}

// View returns the visibility and the records newer than since
func (c *Console) View(since uint64) ConsoleView {
	buf := c.ws.Console()
	return ConsoleView{
		Visible: c.Visible(),
		Records: buf.Records(since),
		LastSeq: buf.LastSeq(),
	}
}

// Clear empties the pane
func (c *Console) Clear() {
	c.ws.Console().Clear()
}
