package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/ports"
)

func newTestEnvelope(eventID string, eventType string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       time.Now().UTC(),
		SourceService:    "round-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "story_id",
		PartitionKey:     "s1",
		Data:             json.RawMessage(`{"story_id":"s1"}`),
	}
}

func TestCreateRoundRejectsSecondUnrevealed(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := entities.VotingRound{RoundID: "r1", StoryID: "s1", RoomID: "room1", RoundNum: 1, StartedAt: store.Now()}
	if err := store.CreateRound(ctx, first); err != nil {
		t.Fatalf("first round: %v", err)
	}

	second := entities.VotingRound{RoundID: "r2", StoryID: "s1", RoomID: "room1", RoundNum: 2, StartedAt: store.Now()}
	if err := store.CreateRound(ctx, second); !errors.Is(err, domainerrors.ErrRoundActive) {
		t.Fatalf("expected ErrRoundActive, got %v", err)
	}

	// A different story is unaffected.
	other := entities.VotingRound{RoundID: "r3", StoryID: "s2", RoomID: "room1", RoundNum: 1, StartedAt: store.Now()}
	if err := store.CreateRound(ctx, other); err != nil {
		t.Fatalf("other story round: %v", err)
	}
}

func TestCreateRoundAllowedAfterReveal(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.CreateRound(ctx, entities.VotingRound{RoundID: "r1", StoryID: "s1", RoundNum: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RevealRound(ctx, "r1", store.Now()); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if err := store.CreateRound(ctx, entities.VotingRound{RoundID: "r2", StoryID: "s1", RoundNum: 2}); err != nil {
		t.Fatalf("round after reveal: %v", err)
	}
}

func TestRevealRoundSecondCallFails(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.CreateRound(ctx, entities.VotingRound{RoundID: "r1", StoryID: "s1", RoundNum: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RevealRound(ctx, "r1", store.Now()); err != nil {
		t.Fatalf("first reveal: %v", err)
	}
	if err := store.RevealRound(ctx, "r1", store.Now()); !errors.Is(err, domainerrors.ErrAlreadyRevealed) {
		t.Fatalf("expected ErrAlreadyRevealed, got %v", err)
	}
	if err := store.RevealRound(ctx, "missing", store.Now()); !errors.Is(err, domainerrors.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
}

func TestConcurrentRevealSingleWinner(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.CreateRound(ctx, entities.VotingRound{RoundID: "r1", StoryID: "s1", RoundNum: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.RevealRound(ctx, "r1", time.Now().UTC()); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one reveal winner, got %d", winners)
	}
}

func TestReserveEventDedup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	expires := store.Now().Add(time.Hour)

	seen, err := store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || seen {
		t.Fatalf("first reservation: seen=%v err=%v", seen, err)
	}

	seen, err = store.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	if err != nil || !seen {
		t.Fatalf("replay should report seen: seen=%v err=%v", seen, err)
	}

	if _, err := store.ReserveEvent(ctx, "evt-1", "hash-b", expires); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("payload mismatch should conflict, got %v", err)
	}
}

func TestOutboxAppendAndPublish(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	envelope := newTestEnvelope("evt-1", "round.started")
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same envelope twice is a no-op.
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("duplicate append: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending message, got %d (err %v)", len(pending), err)
	}
	if err := store.MarkOutboxPublished(ctx, pending[0].OutboxID, store.Now()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %d (err %v)", len(pending), err)
	}
}
