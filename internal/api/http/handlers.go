package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/sandbox"
)

// Version is reported by the root and health endpoints
const Version = "0.1.0"

// DefaultMaxFileBytes bounds uploaded and edited file content
const DefaultMaxFileBytes int64 = 1 << 20

// PoolStatter reports runtime pool occupancy
type PoolStatter interface {
	Stats() sandbox.PoolStats
}

// Handlers contains all HTTP handlers
type Handlers struct {
	manager      *studio.Manager
	metrics      *monitoring.Metrics
	pool         PoolStatter
	logger       *zap.Logger
	maxFileBytes int64
	startedAt    time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(manager *studio.Manager, logger *zap.Logger, maxFileBytes int64) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &Handlers{
		manager:      manager,
		logger:       logger,
		maxFileBytes: maxFileBytes,
		startedAt:    time.Now(),
	}
}

// WithMetrics enables the JSON metrics summary
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// WithPool reports runtime pool occupancy in health checks
func (h *Handlers) WithPool(pool PoolStatter) *Handlers {
	h.pool = pool
	return h
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/json", h.Metrics)

	r.POST("/workspaces", h.CreateWorkspace)
	r.GET("/workspaces", h.ListWorkspaces)

	ws := r.Group("/workspaces/:id", h.resolve)
	ws.GET("", h.GetWorkspace)
	ws.DELETE("", h.DeleteWorkspace)

	ws.GET("/files", h.ListFiles)
	ws.POST("/files", h.CreateFile)
	ws.PUT("/files", h.UpdateFile)
	ws.DELETE("/files", h.DeleteFile)
	ws.GET("/files/raw", h.RawFile)
	ws.POST("/files/upload", h.UploadFile)

	ws.GET("/active", h.GetActive)
	ws.PUT("/active", h.SetActive)

	ws.GET("/editor", h.GetCode)
	ws.PUT("/editor", h.UpdateCode)
	ws.POST("/editor/tabs", h.OpenTab)
	ws.DELETE("/editor/tabs", h.CloseTab)

	ws.GET("/layout", h.GetLayout)
	ws.POST("/layout/split", h.ToggleSplit)
	ws.POST("/layout/console", h.ToggleConsole)
	ws.POST("/layout/fullscreen", h.ToggleFullscreen)

	ws.GET("/console", h.GetConsole)
	ws.DELETE("/console", h.ClearConsole)

	ws.GET("/preview", h.GetPreview)
	ws.POST("/preview/refresh", h.RefreshPreview)

	ws.GET("/boundaries", h.GetBoundaries)
	ws.POST("/boundaries/:panel/reset", h.ResetBoundary)

	ws.GET("/archive", h.Archive)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sandpad",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":         "healthy",
		"version":        Version,
		"workspaces":     h.manager.Stats(),
		"template":       h.manager.Template().Name,
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
	}
	if h.pool != nil {
		body["runtime_pool"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// CreateWorkspace seeds a workspace from the template. The body is optional.
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	var overrides *studio.Overrides
	if c.Request.ContentLength != 0 {
		overrides = &studio.Overrides{}
		if err := c.ShouldBindJSON(overrides); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	inst, err := h.manager.Create(overrides)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst.Snapshot())
}

// ListWorkspaces lists all live workspaces
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"workspaces": h.manager.List(),
		"stats":      h.manager.Stats(),
	})
}

// GetWorkspace returns the full snapshot of a workspace
func (h *Handlers) GetWorkspace(c *gin.Context) {
	c.JSON(http.StatusOK, instance(c).Snapshot())
}

// DeleteWorkspace disposes a workspace
func (h *Handlers) DeleteWorkspace(c *gin.Context) {
	workspaceID := c.Param("id")
	h.manager.Delete(workspaceID)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"workspace_id": workspaceID,
	})
}

const instanceKey = "instance"

// resolve loads the instance named by :id or aborts with 404
func (h *Handlers) resolve(c *gin.Context) {
	workspaceID := c.Param("id")
	inst, ok := h.manager.Get(workspaceID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": "workspace not found: " + workspaceID,
			"kind":  kindNoWorkspace,
		})
		return
	}
	c.Set(instanceKey, inst)
	c.Next()
}

func instance(c *gin.Context) *studio.Instance {
	return c.MustGet(instanceKey).(*studio.Instance)
}
