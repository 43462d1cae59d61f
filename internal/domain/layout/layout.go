// Package layout holds the ephemeral UI arrangement of a workspace.
package layout

import (
	"sync"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// Listener is notified with the new state after every toggle
type Listener func(state types.LayoutState)

// Controller owns the LayoutState of one workspace
type Controller struct {
	mu       sync.RWMutex
	state    types.LayoutState
	listener Listener
}

// Default returns the initial layout: console hidden, not fullscreen, horizontal split
func Default() types.LayoutState {
	return types.LayoutState{Split: types.SplitHorizontal}
}

// NewController creates a controller in the default layout
func NewController(listener Listener) *Controller {
	return &Controller{
		state:    Default(),
		listener: listener,
	}
}

// State returns the current layout
func (c *Controller) State() types.LayoutState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ToggleLayout flips the split between horizontal and vertical
func (c *Controller) ToggleLayout() types.LayoutState {
	return c.update(func(s *types.LayoutState) {
		if s.Split == types.SplitHorizontal {
			s.Split = types.SplitVertical
		} else {
			s.Split = types.SplitHorizontal
		}
	})
}

// ToggleConsole shows or hides the console panel
func (c *Controller) ToggleConsole() types.LayoutState {
	return c.update(func(s *types.LayoutState) {
		s.ConsoleVisible = !s.ConsoleVisible
	})
}

// ToggleFullscreen enters or leaves fullscreen
func (c *Controller) ToggleFullscreen() types.LayoutState {
	return c.update(func(s *types.LayoutState) {
		s.Fullscreen = !s.Fullscreen
	})
}

func (c *Controller) update(fn func(s *types.LayoutState)) types.LayoutState {
	c.mu.Lock()
	fn(&c.state)
	state := c.state
	c.mu.Unlock()

	if c.listener != nil {
		c.listener(state)
	}
	return state
}
