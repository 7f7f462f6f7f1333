package ports

import (
	"context"
	"encoding/json"
	"time"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
)

// RoomProjection is the engine's read model of a room, maintained from
// room-service events. The engine never writes rooms.
type RoomProjection struct {
	RoomID       string
	Status       string
	ScaleName    string
	ScaleValues  []string
	ScaleUnknown string
}

func (p RoomProjection) Scale() entities.CardScale {
	return entities.CardScale{
		Name:    p.ScaleName,
		Values:  p.ScaleValues,
		Unknown: p.ScaleUnknown,
	}
}

// ParticipantProjection mirrors a room membership record: one role per
// (room, user).
type ParticipantProjection struct {
	RoomID string
	UserID string
	Role   entities.ParticipantRole
}

// Repository is the engine's durable store contract. The store, not
// in-memory state, is the source of truth: the engine must survive restart
// by reloading the active round from here. CreateRound must atomically fail
// with ErrRoundActive when the story already has an unrevealed round, and
// RevealRound must atomically fail with ErrAlreadyRevealed on a second call.
type Repository interface {
	GetRoomProjection(ctx context.Context, roomID string) (RoomProjection, error)
	SaveRoomProjection(ctx context.Context, room RoomProjection) error
	GetParticipant(ctx context.Context, roomID string, userID string) (ParticipantProjection, bool, error)
	SaveParticipant(ctx context.Context, participant ParticipantProjection) error
	CountVoters(ctx context.Context, roomID string) (int, error)

	SaveStory(ctx context.Context, story entities.Story) error
	GetStory(ctx context.Context, storyID string) (entities.Story, error)
	ListStoriesByRoom(ctx context.Context, roomID string) ([]entities.Story, error)
	MaxSortOrder(ctx context.Context, roomID string) (int, bool, error)
	DeleteStory(ctx context.Context, storyID string) error

	CreateRound(ctx context.Context, round entities.VotingRound) error
	GetRound(ctx context.Context, roundID string) (entities.VotingRound, error)
	GetActiveRound(ctx context.Context, storyID string) (entities.VotingRound, bool, error)
	ListRoundsByStory(ctx context.Context, storyID string) ([]entities.VotingRound, error)
	MaxRoundNum(ctx context.Context, storyID string) (int, error)
	RevealRound(ctx context.Context, roundID string, revealedAt time.Time) error
	UnrevealRound(ctx context.Context, roundID string) error
	DeleteRound(ctx context.Context, roundID string) error

	SaveVote(ctx context.Context, vote entities.Vote) error
	DeleteVote(ctx context.Context, roundID string, userID string) error
	ListVotesByRound(ctx context.Context, roundID string) ([]entities.Vote, error)
	CountVotesByRound(ctx context.Context, roundID string) (int, error)
}

// EventEnvelope is the wire shape relayed from the outbox to the broadcast
// bus. It mirrors contracts/gen/events/v1.Envelope.
type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher is the inbound edge of the broadcast gateway. The engine
// hands over immutable event records; delivery, ordering, and per-client
// fan-out belong to the gateway.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EventDedupStore provides idempotent processing guarantees for consumed
// events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
