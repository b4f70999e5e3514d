// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// SeatingQueueName is the durable queue seating events are published to.
const SeatingQueueName = "seating.events"

// Event types.
const (
	EventBulkLock          = "seating.bulk_lock"
	EventLayoutSaved       = "seating.layout_saved"
	EventLayoutLoaded      = "seating.layout_loaded"
	EventBehaviourAdjusted = "behaviour.adjusted"
)

// SeatingEvent is published after a course-wide seating change or a score
// adjustment.  It carries enough for consumers to log or notify without
// querying the database.  Optional fields are set per event type.
type SeatingEvent struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	CourseID   uint64  `json:"course_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
	Layout     string  `json:"layout,omitempty"`
	Locked     *bool   `json:"locked,omitempty"`
	Seats      int     `json:"seats,omitempty"`
	Delta      int     `json:"delta,omitempty"`
	Total      *int    `json:"total,omitempty"`
	ActorID    uint64  `json:"actor_id"`
	OccurredAt string  `json:"occurred_at"`
}

// NewSeatingEvent stamps a new event with a random id and the current time.
func NewSeatingEvent(typ string, courseID, actorID uint64) SeatingEvent {
	return SeatingEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		CourseID:   courseID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
