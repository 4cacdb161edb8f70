// Structure of Server-Side-Events (SSE) Models in Smeta.

package entity

import "time"

// Event types pushed over the notification stream.
// Domain events follow the <entity>.<operation> convention.
const (
	EventConnected = "connected"
	EventKeepAlive = "keepalive"

	EventEstimateCreated = "estimate.created"
	EventEstimateUpdated = "estimate.updated"
	EventEstimateDeleted = "estimate.deleted"
	EventProjectCreated  = "project.created"
	EventProjectUpdated  = "project.updated"
)

// Event is a single notification pushed to a subscriber.
// Immutable once constructed, every recipient queue gets its own copy.
type Event struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp float64                `json:"timestamp"`
}

// NewEvent builds an Event stamped with the current time in float seconds,
// the format the frontend's SSE parser expects.
func NewEvent(eventType string, data map[string]interface{}) Event {
	return Event{
		Event:     eventType,
		Data:      data,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}

// RegistryStats is a read-only snapshot of the live connection registry.
type RegistryStats struct {
	TotalUsers       int            `json:"total_users"`
	TotalConnections int            `json:"total_connections"`
	Users            map[uint64]int `json:"users"`
}

// NotifyRequest is the body of the manual event dispatch API.
// An empty Role broadcasts to every connected user.
type NotifyRequest struct {
	Event         string                 `json:"event" valid:"required"`
	Data          map[string]interface{} `json:"data" valid:"-"`
	Role          string                 `json:"role" valid:"-"`
	ExcludeUserID uint64                 `json:"exclude_user_id" valid:"-"`
}

// ChangeOp marks what kind of durable write produced a change notification.
type ChangeOp string

const (
	ChangeCreated ChangeOp = "created"
	ChangeUpdated ChangeOp = "updated"
	ChangeDeleted ChangeOp = "deleted"
)
