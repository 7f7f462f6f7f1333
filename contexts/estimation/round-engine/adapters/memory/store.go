package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-memory repository used for tests and single-process
// wiring. It enforces the same atomic guarantees the postgres adapter gets
// from unique indexes: one unrevealed round per story and a single reveal
// winner, both under the store mutex.
type Store struct {
	mu sync.RWMutex

	rooms        map[string]ports.RoomProjection
	participants map[string]ports.ParticipantProjection
	stories      map[string]entities.Story
	rounds       map[string]entities.VotingRound
	votes        map[string]entities.Vote
	outbox       map[string]outboxRecord
	eventDedup   map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]ports.RoomProjection),
		participants: make(map[string]ports.ParticipantProjection),
		stories:      make(map[string]entities.Story),
		rounds:       make(map[string]entities.VotingRound),
		votes:        make(map[string]entities.Vote),
		outbox:       make(map[string]outboxRecord),
		eventDedup:   make(map[string]dedupRecord),
	}
}

func participantKey(roomID string, userID string) string {
	return strings.TrimSpace(roomID) + "/" + strings.TrimSpace(userID)
}

func (s *Store) GetRoomProjection(_ context.Context, roomID string) (ports.RoomProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[strings.TrimSpace(roomID)]
	if !ok {
		return ports.RoomProjection{}, domainerrors.ErrRoomNotFound
	}
	return room, nil
}

func (s *Store) SaveRoomProjection(_ context.Context, room ports.RoomProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.RoomID = strings.TrimSpace(room.RoomID)
	s.rooms[room.RoomID] = room
	return nil
}

func (s *Store) GetParticipant(_ context.Context, roomID string, userID string) (ports.ParticipantProjection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[participantKey(roomID, userID)]
	return participant, ok, nil
}

func (s *Store) SaveParticipant(_ context.Context, participant ports.ParticipantProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant.RoomID = strings.TrimSpace(participant.RoomID)
	participant.UserID = strings.TrimSpace(participant.UserID)
	s.participants[participantKey(participant.RoomID, participant.UserID)] = participant
	return nil
}

func (s *Store) CountVoters(_ context.Context, roomID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, participant := range s.participants {
		if participant.RoomID == strings.TrimSpace(roomID) && participant.Role == entities.RoleVoter {
			count++
		}
	}
	return count, nil
}

func (s *Store) SaveStory(_ context.Context, story entities.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories[strings.TrimSpace(story.StoryID)] = story
	return nil
}

func (s *Store) GetStory(_ context.Context, storyID string) (entities.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	story, ok := s.stories[strings.TrimSpace(storyID)]
	if !ok {
		return entities.Story{}, domainerrors.ErrStoryNotFound
	}
	return story, nil
}

func (s *Store) ListStoriesByRoom(_ context.Context, roomID string) ([]entities.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Story, 0)
	for _, story := range s.stories {
		if story.RoomID == strings.TrimSpace(roomID) {
			items = append(items, story)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})
	return items, nil
}

func (s *Store) MaxSortOrder(_ context.Context, roomID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	found := false
	for _, story := range s.stories {
		if story.RoomID != strings.TrimSpace(roomID) {
			continue
		}
		if !found || story.SortOrder > max {
			max = story.SortOrder
		}
		found = true
	}
	return max, found, nil
}

func (s *Store) DeleteStory(_ context.Context, storyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(storyID)
	if _, ok := s.stories[key]; !ok {
		return domainerrors.ErrStoryNotFound
	}
	delete(s.stories, key)
	return nil
}

// CreateRound rejects a second unrevealed round for the same story, mirroring
// the postgres partial unique index on (story_id) where revealed_at is null.
func (s *Store) CreateRound(_ context.Context, round entities.VotingRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rounds {
		if existing.StoryID == round.StoryID && existing.RevealedAt == nil {
			return domainerrors.ErrRoundActive
		}
	}
	s.rounds[strings.TrimSpace(round.RoundID)] = round
	return nil
}

func (s *Store) GetRound(_ context.Context, roundID string) (entities.VotingRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[strings.TrimSpace(roundID)]
	if !ok {
		return entities.VotingRound{}, domainerrors.ErrRoundNotFound
	}
	return round, nil
}

func (s *Store) GetActiveRound(_ context.Context, storyID string) (entities.VotingRound, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, round := range s.rounds {
		if round.StoryID == strings.TrimSpace(storyID) && round.RevealedAt == nil {
			return round, true, nil
		}
	}
	return entities.VotingRound{}, false, nil
}

func (s *Store) ListRoundsByStory(_ context.Context, storyID string) ([]entities.VotingRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.VotingRound, 0)
	for _, round := range s.rounds {
		if round.StoryID == strings.TrimSpace(storyID) {
			items = append(items, round)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RoundNum < items[j].RoundNum
	})
	return items, nil
}

func (s *Store) MaxRoundNum(_ context.Context, storyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, round := range s.rounds {
		if round.StoryID == strings.TrimSpace(storyID) && round.RoundNum > max {
			max = round.RoundNum
		}
	}
	return max, nil
}

// RevealRound is the single-winner gate for concurrent reveals: the check
// and the write happen under one lock hold.
func (s *Store) RevealRound(_ context.Context, roundID string, revealedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[strings.TrimSpace(roundID)]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	if round.RevealedAt != nil {
		return domainerrors.ErrAlreadyRevealed
	}
	at := revealedAt.UTC()
	round.RevealedAt = &at
	s.rounds[strings.TrimSpace(roundID)] = round
	return nil
}

func (s *Store) UnrevealRound(_ context.Context, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[strings.TrimSpace(roundID)]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	round.RevealedAt = nil
	s.rounds[strings.TrimSpace(roundID)] = round
	return nil
}

func (s *Store) DeleteRound(_ context.Context, roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, strings.TrimSpace(roundID))
	return nil
}

func (s *Store) SaveVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[strings.TrimSpace(vote.VoteID)] = vote
	return nil
}

func (s *Store) DeleteVote(_ context.Context, roundID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for voteID, vote := range s.votes {
		if vote.RoundID == strings.TrimSpace(roundID) && vote.UserID == strings.TrimSpace(userID) {
			delete(s.votes, voteID)
			return nil
		}
	}
	return nil
}

func (s *Store) ListVotesByRound(_ context.Context, roundID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.RoundID == strings.TrimSpace(roundID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CountVotesByRound(_ context.Context, roundID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, vote := range s.votes {
		if vote.RoundID == strings.TrimSpace(roundID) {
			count++
		}
	}
	return count, nil
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
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
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
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
