package memory

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"

	"github.com/google/uuid"
)

// Ambiguous glyphs are left out so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory repository used for tests and single-process
// wiring. Room code uniqueness is enforced under the store mutex, matching
// the unique index the postgres adapter relies on.
type Store struct {
	mu sync.RWMutex

	rooms        map[string]entities.Room
	roomsByCode  map[string]string
	participants map[string]entities.Participant
	idempotency  map[string]ports.IdempotencyRecord
	outbox       map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]entities.Room),
		roomsByCode:  make(map[string]string),
		participants: make(map[string]entities.Participant),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		outbox:       make(map[string]outboxRecord),
	}
}

func participantKey(roomID string, userID string) string {
	return strings.TrimSpace(roomID) + "/" + strings.TrimSpace(userID)
}

func (s *Store) CreateRoom(_ context.Context, room entities.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.RoomID = strings.TrimSpace(room.RoomID)
	room.Code = strings.ToUpper(strings.TrimSpace(room.Code))
	if _, exists := s.roomsByCode[room.Code]; exists {
		return domainerrors.ErrConflict
	}
	if _, exists := s.rooms[room.RoomID]; exists {
		return domainerrors.ErrConflict
	}
	s.rooms[room.RoomID] = room
	s.roomsByCode[room.Code] = room.RoomID
	return nil
}

func (s *Store) UpdateRoom(_ context.Context, room entities.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.RoomID = strings.TrimSpace(room.RoomID)
	existing, ok := s.rooms[room.RoomID]
	if !ok {
		return domainerrors.ErrRoomNotFound
	}
	room.Code = existing.Code
	s.rooms[room.RoomID] = room
	return nil
}

func (s *Store) GetRoom(_ context.Context, roomID string) (entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[strings.TrimSpace(roomID)]
	if !ok {
		return entities.Room{}, domainerrors.ErrRoomNotFound
	}
	return room, nil
}

func (s *Store) GetRoomByCode(_ context.Context, code string) (entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.roomsByCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return entities.Room{}, domainerrors.ErrRoomNotFound
	}
	return s.rooms[roomID], nil
}

func (s *Store) ListRoomsByOwner(_ context.Context, ownerID string) ([]entities.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ownerID = strings.TrimSpace(ownerID)
	items := make([]entities.Room, 0)
	for _, room := range s.rooms {
		if room.OwnerID == ownerID {
			items = append(items, room)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *Store) SaveParticipant(_ context.Context, participant entities.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant.RoomID = strings.TrimSpace(participant.RoomID)
	participant.UserID = strings.TrimSpace(participant.UserID)
	s.participants[participantKey(participant.RoomID, participant.UserID)] = participant
	return nil
}

func (s *Store) GetParticipant(_ context.Context, roomID string, userID string) (entities.Participant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[participantKey(roomID, userID)]
	if !ok {
		return entities.Participant{}, false, nil
	}
	return participant, true, nil
}

func (s *Store) ListParticipants(_ context.Context, roomID string) ([]entities.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID = strings.TrimSpace(roomID)
	items := make([]entities.Participant, 0)
	for _, participant := range s.participants {
		if participant.RoomID == roomID {
			items = append(items, participant)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].JoinedAt.Before(items[j].JoinedAt) })
	return items, nil
}

func (s *Store) CountByRole(_ context.Context, roomID string, role entities.ParticipantRole) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID = strings.TrimSpace(roomID)
	count := 0
	for _, participant := range s.participants {
		if participant.RoomID == roomID && participant.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Key = strings.TrimSpace(record.Key)
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) NewCode(length int) string {
	if length <= 0 {
		length = entities.RoomCodeLength
	}
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			code[i] = codeAlphabet[0]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
