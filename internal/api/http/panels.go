package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// PathRequest names one workspace file
type PathRequest struct {
	Path string `json:"path" binding:"required"`
}

// CodeRequest is the body of PUT /editor
type CodeRequest struct {
	Content string `json:"content"`
}

// GetActive returns the active file
func (h *Handlers) GetActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active_file": instance(c).Workspace.ActiveFile()})
}

// SetActive points the editor at another file
func (h *Handlers) SetActive(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ws := instance(c).Workspace
	if err := ws.SetActiveFile(req.Path); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_file": ws.ActiveFile()})
}

// GetCode returns what the editor displays
func (h *Handlers) GetCode(c *gin.Context) {
	inst := instance(c)
	code, err := inst.Code()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    code.Path,
		"content": code.Content,
		"tabs":    inst.Editor.Tabs(),
	})
}

// UpdateCode writes into the active file
func (h *Handlers) UpdateCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if int64(len(req.Content)) > h.maxFileBytes {
		h.fail(c, errTooLarge)
		return
	}

	inst := instance(c)
	if err := inst.UpdateCode(req.Content); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":     inst.Workspace.ActiveFile(),
		"revision": inst.Workspace.Revision(),
	})
}

// OpenTab activates a file and opens a tab for it
func (h *Handlers) OpenTab(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.tabs(c, instance(c).Editor.Open(req.Path))
}

// CloseTab closes the tab of ?path=
func (h *Handlers) CloseTab(c *gin.Context) {
	h.tabs(c, instance(c).Editor.Close(c.Query("path")))
}

func (h *Handlers) tabs(c *gin.Context, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	inst := instance(c)
	c.JSON(http.StatusOK, gin.H{
		"tabs":        inst.Editor.Tabs(),
		"active_file": inst.Workspace.ActiveFile(),
	})
}

// GetLayout returns the layout state
func (h *Handlers) GetLayout(c *gin.Context) {
	c.JSON(http.StatusOK, instance(c).Layout.State())
}

// ToggleSplit flips the split orientation
func (h *Handlers) ToggleSplit(c *gin.Context) {
	c.JSON(http.StatusOK, instance(c).Layout.ToggleLayout())
}

// ToggleConsole shows or hides the console
func (h *Handlers) ToggleConsole(c *gin.Context) {
	c.JSON(http.StatusOK, instance(c).Layout.ToggleConsole())
}

// ToggleFullscreen enters or leaves fullscreen
func (h *Handlers) ToggleFullscreen(c *gin.Context) {
	c.JSON(http.StatusOK, instance(c).Layout.ToggleFullscreen())
}

// GetConsole returns records newer than ?since=
func (h *Handlers) GetConsole(c *gin.Context) {
	var since uint64
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "since must be a non-negative integer")
			return
		}
		since = v
	}
	c.JSON(http.StatusOK, instance(c).Console.View(since))
}

// ClearConsole empties the console
func (h *Handlers) ClearConsole(c *gin.Context) {
	instance(c).Console.Clear()
	c.Status(http.StatusNoContent)
}

// GetPreview returns the preview status and the last result
func (h *Handlers) GetPreview(c *gin.Context) {
	p := instance(c).Preview
	c.JSON(http.StatusOK, studio.PreviewView{
		Status: p.Status(),
		Last:   p.Last(),
	})
}

// RefreshPreview compiles now
func (h *Handlers) RefreshPreview(c *gin.Context) {
	inst := instance(c)
	if err := inst.Preview.Refresh(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": inst.Preview.Status()})
}

// GetBoundaries returns every boundary state
func (h *Handlers) GetBoundaries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"boundaries": instance(c).Boundaries()})
}

// ResetBoundary is "Reset & Try Again" for one panel
func (h *Handlers) ResetBoundary(c *gin.Context) {
	panel := types.Panel(c.Param("panel"))
	if !panel.Valid() {
		badRequest(c, "unknown panel: "+string(panel))
		return
	}

	inst := instance(c)
	if err := inst.Reset(c.Request.Context(), panel); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boundaries": inst.Boundaries()})
}
