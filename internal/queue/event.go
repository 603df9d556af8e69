// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into an audit log.
package queue

import "time"

// Activity event types.
const (
	ComplaintCreated = "complaint.created"
	ComplaintUpdated = "complaint.updated"
	ComplaintDeleted = "complaint.deleted"
	FeedbackCreated  = "feedback.created"
)

// ActivityEvent is published after a successful write to a complaint or a
// feedback entry.  OwnerID is the resource owner; ActorID is the principal
// that performed the write (they differ when an admin acts).
type ActivityEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ResourceID uint64    `json:"resource_id"`
	OwnerID    uint64    `json:"owner_id"`
	ActorID    uint64    `json:"actor_id"`
	Fields     []string  `json:"fields,omitempty"` // changed fields for complaint.updated
	Rating     int       `json:"rating,omitempty"` // feedback.created only
	OccurredAt time.Time `json:"occurred_at"`
}
