package chat

import "context"

// WebSocket close codes in the private 4000-4999 range.
const (
	// CloseSessionReplaced tells the client a newer connection took over its slot.
	CloseSessionReplaced = 4001

	// CloseUnauthorized follows an unauthorized event.
	CloseUnauthorized = 4401

	// CloseGoingAway is the standard code used on server shutdown.
	CloseGoingAway = 1001
)

// Session is one live transport connection for one client device.
type Session interface {
	// ID is unique per connection, never reused.
	ID() string

	// Send queues event for delivery. It does not wait for the client.
	Send(event string, payload any) error

	// Close flushes already queued events, then closes with code. Safe to call more than once.
	Close(code int, reason string)
}

// BlockingSender is implemented by sessions that can wait for room in their send queue.
// Backlog replay uses it so a long backlog is never cut short by a full queue.
type BlockingSender interface {
	// SendWait queues event, waiting until there is room, ctx ends or the session closes.
	SendWait(ctx context.Context, event string, payload any) error
}
