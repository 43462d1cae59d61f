package ws

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/boundary"
	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second

	// frameOverhead is the envelope allowance on top of file content
	frameOverhead = 4 << 10
)

type client struct {
	id      string
	conn    *websocket.Conn
	inst    *studio.Instance
	handler *Handler
	logger  *zap.Logger

	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
}

// onEvent forwards an instance event. It runs inside workspace mutations and must not block.
func (c *client) onEvent(e studio.Event) {
	c.enqueue(newMessage(string(e.Type), e.WorkspaceID.String(), e.Payload, e.At))
}

// enqueue queues msg for the write pump. A full queue drops the frame.
func (c *client) enqueue(msg Message) bool {
	data, err := encode(msg)
	if err != nil {
		c.logger.Error("Failed to encode frame", zap.String("type", msg.Type), zap.Error(err))
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		c.handler.recordMessage("out", msg.Type)
		return true
	default:
		c.logger.Warn("Client too slow, dropping frame", zap.String("type", msg.Type))
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump reads messages from the WebSocket connection
func (c *client) readPump() {
	defer func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
	}()

	if c.handler.maxFileBytes > 0 {
		c.conn.SetReadLimit(c.handler.maxFileBytes + frameOverhead)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		c.handle(data)
	}
}

// writePump writes queued frames and keeps the connection alive
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handle(data []byte) {
	msg, err := decode(data)
	if err != nil {
		c.sendError("", fmt.Errorf("malformed message: %w", err), "bad_request")
		return
	}
	c.handler.recordMessage("in", msg.Type)

	switch msg.Type {
	case TypePing:
		c.enqueue(newMessage(TypePong, c.inst.ID().String(), nil, time.Now()))
	case TypeFilesUpdate:
		c.handleFilesUpdate(msg)
	default:
		c.sendError(msg.Type, fmt.Errorf("unknown message type %q", msg.Type), "bad_request")
	}
}

func (c *client) handleFilesUpdate(msg inbound) {
	var req FilesUpdate
	if err := unmarshalPayload(msg.Payload, &req); err != nil {
		c.sendError(msg.Type, err, "bad_request")
		return
	}
	if c.handler.maxFileBytes > 0 && int64(len(req.Content)) > c.handler.maxFileBytes {
		c.sendError(msg.Type, fmt.Errorf("content exceeds %d bytes", c.handler.maxFileBytes), "too_large")
		return
	}

	if err := c.inst.Workspace.UpdateFile(req.Path, req.Content); err != nil {
		c.sendError(msg.Type, err, kindOf(err))
	}
}

func (c *client) sendError(request string, err error, kind types.ErrorKind) {
	c.enqueue(newMessage(TypeError, c.inst.ID().String(), ErrorPayload{
		Message: err.Error(),
		Kind:    kind,
		Request: request,
	}, time.Now()))
}

func kindOf(err error) types.ErrorKind {
	if errors.Is(err, boundary.ErrErrored) {
		return "errored"
	}
	return workspace.KindOf(err)
}
