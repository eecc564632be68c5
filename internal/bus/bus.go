// Package bus provides event bus implementations for pipeline
// lifecycle events.
package bus

import (
	"context"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (mirrors the topic).
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, unix nanoseconds.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Topics for pipeline lifecycle events.
const (
	// TopicQueryReceived fires when the server accepts a query.
	TopicQueryReceived = "query.received"

	// TopicQueryCompleted fires after a successful pipeline invocation.
	TopicQueryCompleted = "query.completed"

	// TopicQueryFailed fires after an aborted pipeline invocation.
	TopicQueryFailed = "query.failed"
)

// QueryPayload is the payload carried by query lifecycle events.
type QueryPayload struct {
	Query       string  `json:"query"`
	Limit       int     `json:"limit,omitempty"`
	Records     int     `json:"records,omitempty"`
	TotalSecs   float64 `json:"total_secs,omitempty"`
	ErrorCode   string  `json:"error_code,omitempty"`
	ErrorDetail string  `json:"error_detail,omitempty"`
}
