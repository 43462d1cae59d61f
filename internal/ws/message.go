package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// Message types that are not instance events
const (
	TypeSnapshot    = "snapshot"
	TypeError       = "error"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeFilesUpdate = "files.update"
)

// Message is the envelope of every frame
type Message struct {
	Type        string      `json:"type"`
	WorkspaceID string      `json:"workspace_id,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// inbound is a client frame with its payload left undecoded
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// FilesUpdate is the payload of files.update
type FilesUpdate struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ErrorPayload is the payload of error frames
type ErrorPayload struct {
	Message string          `json:"message"`
	Kind    types.ErrorKind `json:"kind"`
	Request string          `json:"request,omitempty"`
}

func newMessage(msgType, workspaceID string, payload interface{}, at time.Time) Message {
	return Message{
		Type:        msgType,
		WorkspaceID: workspaceID,
		Payload:     payload,
		Timestamp:   at.UnixMilli(),
	}
}

func encode(msg Message) ([]byte, error) {
	return sonic.Marshal(msg)
}

func decode(data []byte) (inbound, error) {
	var msg inbound
	err := sonic.Unmarshal(data, &msg)
	return msg, err
}

func unmarshalPayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("missing payload")
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
