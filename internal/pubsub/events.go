// Package pubsub fans events out to subscribers: log lines to the viewer's
// status bar and content changes of an open book.
package pubsub

import "time"

// EventType represents the type of event being published.
type EventType string

const (
	// Logged carries a formatted log line.
	Logged EventType = "logged"

	// Reloaded is published after a book was reopened with new content.
	Reloaded EventType = "reloaded"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
