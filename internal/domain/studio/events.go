package studio

import (
	"time"

	"github.com/GriffinCanCode/sandpad/internal/shared/id"
)

// EventType names an instance event on the wire
type EventType string

const (
	EventFilesChanged  EventType = "files.changed"
	EventPreviewStatus EventType = "preview.status"
	EventPreviewResult EventType = "preview.result"
	EventConsoleRecord EventType = "console.record"
	EventBoundaryState EventType = "boundary.state"
	EventLayoutChanged EventType = "layout.changed"
)

// Event is one change of an instance
type Event struct {
	Type        EventType
	WorkspaceID id.WorkspaceID
	Payload     interface{}
	At          time.Time
}

// Listener receives instance events. Listeners must not block.
type Listener func(Event)
