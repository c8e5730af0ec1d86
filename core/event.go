package core

import (
	"time"

	"github.com/google/uuid"
)

// EventSource identifies where an event came from.
type EventSource string

const (
	// SourceSynthetic marks events produced by the telemetry generator
	SourceSynthetic EventSource = "synthetic"
	// SourceImported marks events loaded from an uploaded log payload
	SourceImported EventSource = "imported"
)

// Event represents a single telemetry record under evaluation.
// Events are immutable once constructed; the evaluation pipeline only
// reads them, which is what makes concurrent matching safe.
type Event struct {
	EventID     string                 `json:"event_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      EventSource            `json:"source"`
	IsMalicious bool                   `json:"is_malicious"`
	IsEvasion   bool                   `json:"is_evasion,omitempty"`
	Description string                 `json:"description,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

// NewEvent creates a new Event with a generated UUID
func NewEvent(source EventSource) *Event {
	return &Event{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		Fields:    make(map[string]interface{}),
	}
}

// Field returns the named field value and whether it is present.
func (e *Event) Field(name string) (interface{}, bool) {
	if e == nil || e.Fields == nil {
		return nil, false
	}
	v, ok := e.Fields[name]
	return v, ok
}
