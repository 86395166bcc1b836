// Package events provides event types and publishing infrastructure
// for live dashboard refresh.
package events

import (
	"time"
)

// EventType defines the type of event.
type EventType string

const (
	// EventImportCompleted indicates an import batch was written.
	EventImportCompleted EventType = "import_completed"
	// EventTasksUpdated indicates the stored record set changed and
	// open dashboards should re-fetch.
	EventTasksUpdated EventType = "tasks_updated"
)

// Event represents a published event.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
	Time time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
		Time: time.Now(),
	}
}

// ImportCompletedData carries the outcome of an import batch.
type ImportCompletedData struct {
	Imported int `json:"imported"`
}
