// Package queue defines message payloads exchanged over the message broker
// plus the background consumer that records them.
package queue

// Account event types published to the account.events queue.
const (
	EventUserRegistered = "user.registered"
	EventUserBlocked    = "user.blocked"
	EventUserUnblocked  = "user.unblocked"
)

// AccountEvent is published whenever an account changes state in a way
// downstream systems care about (registration, block, unblock). It carries
// enough information for consumers to log or notify without querying the
// primary database.
type AccountEvent struct {
	EventType  string `json:"event_type"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurred_at"`
}
