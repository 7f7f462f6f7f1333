package commands

import (
	"encoding/json"
	"time"

	"pointdeck/contexts/estimation/round-engine/ports"
)

const (
	EventRoundStarted   = "round_started"
	EventVoteCast       = "vote_cast"
	EventRoundRevealed  = "round_revealed"
	EventStoryFinalized = "story_finalized"
	EventStoryCreated   = "story_created"
	EventStoryUpdated   = "story_updated"
	EventStoryDeleted   = "story_deleted"
)

// newRoundEnvelope builds the immutable event record handed to the broadcast
// gateway. Events are partitioned by room so every participant of a room
// observes the same ordering.
func newRoundEnvelope(
	eventID string,
	eventType string,
	roomID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "round-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "room_id",
		PartitionKey:     roomID,
		Data:             payload,
	}, nil
}
