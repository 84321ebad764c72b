// Package bus provides the notification channel satchel publishes its
// results and log events on. It is a broadcast-only publish/subscribe
// abstraction: the engine never depends on subscriber presence, and a
// publish with no listeners is not an error.
// The default implementation is in-memory, with a NATS option for
// out-of-process consumers.
package bus

import (
	"context"
	"errors"
	"time"
)

// Notification subjects. Subscribers may use NATS-style wildcards,
// e.g. "satchel.>" for everything or "satchel.fetch.*" for data events.
const (
	SubjectLog         = "satchel.log"
	SubjectCourses     = "satchel.fetch.courses"
	SubjectAssignments = "satchel.fetch.assignments"
)

// ErrClosed is returned when operating on a closed bus or subscription.
var ErrClosed = errors.New("bus or subscription closed")

// MessageBus is the notification channel contract.
// Implementations must be safe for concurrent use.
type MessageBus interface {
	// Publish broadcasts a message to all subscribers of the given subject.
	// Returns immediately; does not wait for delivery.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The handler is called in a separate goroutine for each message.
	// Supports wildcards: "satchel.fetch.*" matches "satchel.fetch.courses".
	Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error)

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(msg *Message)

// Message represents an incoming message from the bus.
type Message struct {
	Subject string
	Data    []byte
}

// Subscription represents an active subscription that can be cancelled.
type Subscription interface {
	// Unsubscribe stops receiving messages and cleans up resources.
	Unsubscribe() error

	// Subject returns the subject pattern this subscription is for.
	Subject() string
}

// Config holds configuration for creating a MessageBus.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	// Ignored for the in-memory bus.
	URL string

	// Name is a client identifier for debugging/monitoring.
	Name string

	// Timeout is the default timeout for connection operations.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:     "nats://localhost:4222",
		Name:    "satchel",
		Timeout: 30 * time.Second,
	}
}
