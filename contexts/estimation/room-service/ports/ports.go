package ports

import (
	"context"
	"encoding/json"
	"time"

	"pointdeck/contexts/estimation/room-service/domain/entities"
)

type RoomRepository interface {
	// CreateRoom fails with ErrConflict when the room code is already taken.
	CreateRoom(ctx context.Context, room entities.Room) error
	UpdateRoom(ctx context.Context, room entities.Room) error
	GetRoom(ctx context.Context, roomID string) (entities.Room, error)
	GetRoomByCode(ctx context.Context, code string) (entities.Room, error)
	ListRoomsByOwner(ctx context.Context, ownerID string) ([]entities.Room, error)
}

type ParticipantRepository interface {
	SaveParticipant(ctx context.Context, participant entities.Participant) error
	GetParticipant(ctx context.Context, roomID string, userID string) (entities.Participant, bool, error)
	ListParticipants(ctx context.Context, roomID string) ([]entities.Participant, error)
	CountByRole(ctx context.Context, roomID string, role entities.ParticipantRole) (int, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// CodeGenerator mints short join codes. Uniqueness is not its concern; the
// caller retries on repository conflicts.
type CodeGenerator interface {
	NewCode(length int) string
}

// EventEnvelope mirrors contracts/gen/events/v1.Envelope.
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
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
