package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	roundengine "pointdeck/contexts/estimation/round-engine"
	"pointdeck/contexts/estimation/round-engine/adapters/memory"
	rounderrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	roundports "pointdeck/contexts/estimation/round-engine/ports"
	roundhttp "pointdeck/contexts/estimation/round-engine/transport/http"
)

// flakyOutbox delegates to the memory store until failNext is armed, then
// rejects the next append.
type flakyOutbox struct {
	store *memory.Store
	mu    sync.Mutex
	fail  bool
}

func (f *flakyOutbox) AppendOutbox(ctx context.Context, event roundports.EventEnvelope) error {
	f.mu.Lock()
	fail := f.fail
	f.fail = false
	f.mu.Unlock()
	if fail {
		return errors.New("outbox unavailable")
	}
	return f.store.AppendOutbox(ctx, event)
}

func (f *flakyOutbox) failNext() {
	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()
}

func newFlakyOutboxModule(t *testing.T) (roundengine.Module, *flakyOutbox) {
	t.Helper()
	store := memory.NewStore()
	outbox := &flakyOutbox{store: store}
	module := roundengine.NewModule(roundengine.Dependencies{
		Repo:   store,
		Outbox: outbox,
		Clock:  store,
		IDGen:  store,
	})
	module.Store = store
	seedEstimationRoom(t, module.Store)
	return module, outbox
}

func TestDeleteStorySurvivesOutboxFailure(t *testing.T) {
	module, outbox := newFlakyOutboxModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Doomed write")

	outbox.failNext()
	if err := module.Handler.DeleteStoryHandler(ctx, story.StoryID, facilitatorID); !errors.Is(err, rounderrors.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}

	// The delete must be rolled back so a retry starts from the prior state.
	restored, err := module.Store.GetStory(ctx, story.StoryID)
	if err != nil {
		t.Fatalf("story should survive the failed delete: %v", err)
	}
	if restored.Title != "Doomed write" {
		t.Fatalf("unexpected restored story: %+v", restored)
	}

	if err := module.Handler.DeleteStoryHandler(ctx, story.StoryID, facilitatorID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if _, err := module.Store.GetStory(ctx, story.StoryID); !errors.Is(err, rounderrors.ErrStoryNotFound) {
		t.Fatalf("story should be gone after retry, got %v", err)
	}
}

func TestCastVoteRolledBackOnOutboxFailure(t *testing.T) {
	module, outbox := newFlakyOutboxModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Shaky journal")

	started, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}

	// A first vote that cannot be journaled leaves no vote behind.
	outbox.failNext()
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "5"}); !errors.Is(err, rounderrors.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	if count, err := module.Store.CountVotesByRound(ctx, started.Round.RoundID); err != nil || count != 0 {
		t.Fatalf("first vote should be retracted, count=%d err=%v", count, err)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "5"}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	// A failed re-vote falls back to the previously recorded value.
	outbox.failNext()
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "13"}); !errors.Is(err, rounderrors.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	votes, err := module.Store.ListVotesByRound(ctx, started.Round.RoundID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Value != "5" {
		t.Fatalf("prior vote should be restored: %+v", votes)
	}
}

func TestConcurrentRevealEmitsSingleEvent(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Contended reveal")

	started, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "5"}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{RoundID: started.Round.RoundID})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, rounderrors.ErrAlreadyRevealed):
		default:
			t.Fatalf("unexpected reveal error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one reveal winner, got %d", winners)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	revealedEvents := 0
	for _, msg := range pending {
		if msg.EventType == "round_revealed" {
			revealedEvents++
		}
	}
	if revealedEvents != 1 {
		t.Fatalf("expected exactly one round_revealed event, got %d", revealedEvents)
	}
}
