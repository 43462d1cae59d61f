package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
)

// sendBuffer is the number of frames queued per client before events are dropped
const sendBuffer = 256

// Handler manages WebSocket connections
type Handler struct {
	manager      *studio.Manager
	metrics      *monitoring.Metrics
	logger       *zap.Logger
	maxFileBytes int64
	upgrader     websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client // Protected by mu
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *studio.Manager, logger *zap.Logger, maxFileBytes int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		manager:      manager,
		logger:       logger,
		maxFileBytes: maxFileBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is enforced by the CORS middleware
			},
		},
		clients: make(map[string]*client),
	}
}

// WithMetrics enables connection and message metrics
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// Register mounts the stream route on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/workspaces/:id/stream", h.HandleConnection)
}

// HandleConnection upgrades the request and streams the workspace until the client leaves
func (h *Handler) HandleConnection(c *gin.Context) {
	workspaceID := c.Param("id")
	inst, ok := h.manager.Get(workspaceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "workspace not found: " + workspaceID,
			"kind":  "workspace_not_found",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		inst:    inst,
		handler: h,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
	cl.logger = h.logger.With(zap.String("workspace_id", workspaceID), zap.String("client_id", cl.id))

	h.add(cl)
	defer h.remove(cl)

	cl.unsubscribe = inst.Subscribe(cl.onEvent)
	cl.enqueue(newMessage(TypeSnapshot, workspaceID, inst.Snapshot(), time.Now()))

	go cl.writePump()
	cl.readPump()
}

// Connections returns the number of connected clients
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Handler) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}

func (h *Handler) add(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	cl.logger.Debug("WebSocket client connected")
}

func (h *Handler) remove(cl *client) {
	cl.close()

	h.mu.Lock()
	delete(h.clients, cl.id)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	cl.logger.Debug("WebSocket client disconnected")
}

func (h *Handler) recordMessage(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
