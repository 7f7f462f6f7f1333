package unit

import (
	"context"
	"errors"
	"testing"

	roundengine "pointdeck/contexts/estimation/round-engine"
	"pointdeck/contexts/estimation/round-engine/adapters/memory"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	rounderrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	roundports "pointdeck/contexts/estimation/round-engine/ports"
	roundhttp "pointdeck/contexts/estimation/round-engine/transport/http"
)

const (
	testRoomID      = "room-1"
	facilitatorID   = "user-fac"
	voterOneID      = "user-v1"
	voterTwoID      = "user-v2"
	observerID      = "user-obs"
	nonMemberUserID = "user-outsider"
)

func newRoundModule(t *testing.T) roundengine.Module {
	t.Helper()
	module := roundengine.NewInMemoryModule(nil)
	seedEstimationRoom(t, module.Store)
	return module
}

func seedEstimationRoom(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	scale, ok := entities.ScaleByName(entities.DefaultScaleName)
	if !ok {
		t.Fatalf("default scale missing")
	}
	if err := store.SaveRoomProjection(ctx, roundports.RoomProjection{
		RoomID:       testRoomID,
		Status:       "active",
		ScaleName:    scale.Name,
		ScaleValues:  scale.Values,
		ScaleUnknown: scale.Unknown,
	}); err != nil {
		t.Fatalf("seed room: %v", err)
	}

	seed := []roundports.ParticipantProjection{
		{RoomID: testRoomID, UserID: facilitatorID, Role: entities.RoleFacilitator},
		{RoomID: testRoomID, UserID: voterOneID, Role: entities.RoleVoter},
		{RoomID: testRoomID, UserID: voterTwoID, Role: entities.RoleVoter},
		{RoomID: testRoomID, UserID: observerID, Role: entities.RoleObserver},
	}
	for _, participant := range seed {
		if err := store.SaveParticipant(ctx, participant); err != nil {
			t.Fatalf("seed participant %s: %v", participant.UserID, err)
		}
	}
}

func createStory(t *testing.T, module roundengine.Module, title string) roundhttp.StoryResponse {
	t.Helper()
	story, err := module.Handler.CreateStoryHandler(context.Background(), testRoomID, facilitatorID, roundhttp.CreateStoryRequest{
		Title: title,
	})
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	return story
}

func TestStoryCreationAssignsSortOrder(t *testing.T) {
	module := newRoundModule(t)

	first := createStory(t, module, "Login page")
	second := createStory(t, module, "Checkout flow")

	if first.SortOrder != 0 || second.SortOrder != 1 {
		t.Fatalf("expected append order 0,1 got %d,%d", first.SortOrder, second.SortOrder)
	}
	if first.Status != string(entities.StoryStatusPending) {
		t.Fatalf("new story should be pending, got %s", first.Status)
	}

	list, err := module.Handler.ListStoriesHandler(context.Background(), testRoomID, observerID)
	if err != nil {
		t.Fatalf("list stories: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].Title != "Login page" {
		t.Fatalf("unexpected story list: %+v", list.Items)
	}
}

func TestStoryCreationRequiresFacilitator(t *testing.T) {
	module := newRoundModule(t)

	_, err := module.Handler.CreateStoryHandler(context.Background(), testRoomID, voterOneID, roundhttp.CreateStoryRequest{
		Title: "Voter story",
	})
	if !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	_, err = module.Handler.CreateStoryHandler(context.Background(), testRoomID, nonMemberUserID, roundhttp.CreateStoryRequest{
		Title: "Outsider story",
	})
	if !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("non-member should be forbidden, got %v", err)
	}
}

func TestRoundLifecycle(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Search indexing")

	started, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if started.Round.RoundNum != 1 {
		t.Fatalf("expected round 1, got %d", started.Round.RoundNum)
	}
	if started.Story.Status != string(entities.StoryStatusVoting) {
		t.Fatalf("story should be voting, got %s", started.Story.Status)
	}

	// A second concurrent round on the same story is rejected.
	if _, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID); !errors.Is(err, rounderrors.ErrRoundActive) {
		t.Fatalf("expected ErrRoundActive, got %v", err)
	}
	if _, err := module.Handler.StartRoundHandler(ctx, story.StoryID, voterOneID); !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("voter must not start rounds, got %v", err)
	}

	cast, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "5"})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if cast.VotesCast != 1 {
		t.Fatalf("expected 1 vote cast, got %d", cast.VotesCast)
	}

	// Re-vote overwrites, never duplicates.
	cast, err = module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "8"})
	if err != nil {
		t.Fatalf("re-vote: %v", err)
	}
	if cast.VotesCast != 1 {
		t.Fatalf("re-vote must not add a vote, got %d", cast.VotesCast)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterTwoID, roundhttp.CastVoteRequest{Value: "8"}); err != nil {
		t.Fatalf("second voter: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, facilitatorID, roundhttp.CastVoteRequest{Value: "5"}); !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("facilitator must not vote, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "42"}); !errors.Is(err, rounderrors.ErrInvalidValue) {
		t.Fatalf("off-scale value, got %v", err)
	}

	// Finalize is only legal after reveal.
	if _, err := module.Handler.FinalizeHandler(ctx, story.StoryID, facilitatorID, roundhttp.FinalizeRequest{}); !errors.Is(err, rounderrors.ErrInvalidStoryState) {
		t.Fatalf("expected ErrInvalidStoryState, got %v", err)
	}

	revealed, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{})
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if revealed.Story.Status != string(entities.StoryStatusRevealed) {
		t.Fatalf("story should be revealed, got %s", revealed.Story.Status)
	}
	if len(revealed.Votes) != 2 {
		t.Fatalf("expected 2 revealed votes, got %d", len(revealed.Votes))
	}
	if revealed.Stats.TotalVoters != 2 || revealed.Stats.TotalVotes != 2 {
		t.Fatalf("unexpected stats totals: %+v", revealed.Stats)
	}
	if revealed.Stats.Mode != "8" {
		t.Fatalf("expected mode 8, got %s", revealed.Stats.Mode)
	}

	// The round is closed now.
	if _, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{}); !errors.Is(err, rounderrors.ErrNoActiveRound) {
		t.Fatalf("expected ErrNoActiveRound, got %v", err)
	}
	if _, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{RoundID: started.Round.RoundID}); !errors.Is(err, rounderrors.ErrAlreadyRevealed) {
		t.Fatalf("expected ErrAlreadyRevealed, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "5"}); !errors.Is(err, rounderrors.ErrNoActiveRound) {
		t.Fatalf("vote after reveal, got %v", err)
	}

	estimate := "8"
	final, err := module.Handler.FinalizeHandler(ctx, story.StoryID, facilitatorID, roundhttp.FinalizeRequest{FinalEstimate: &estimate})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status != string(entities.StoryStatusFinal) || final.FinalEstimate != "8" {
		t.Fatalf("unexpected final story: %+v", final)
	}
}

func TestRevoteStartsNextRoundNumber(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Payment retries")

	if _, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID); err != nil {
		t.Fatalf("start round 1: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "13"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{}); err != nil {
		t.Fatalf("reveal round 1: %v", err)
	}

	second, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID)
	if err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	if second.Round.RoundNum != 2 {
		t.Fatalf("expected round 2, got %d", second.Round.RoundNum)
	}

	history, err := module.Handler.RoundHistoryHandler(ctx, story.StoryID, observerID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Items) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(history.Items))
	}
	if history.Items[0].Round.RoundNum != 1 || history.Items[0].Stats == nil {
		t.Fatalf("revealed round must carry stats: %+v", history.Items[0])
	}
	if history.Items[1].Stats != nil {
		t.Fatalf("unrevealed round must not carry stats")
	}
}

func TestPreRevealVoteVisibility(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Rate limiting")

	started, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterOneID, roundhttp.CastVoteRequest{Value: "3"}); err != nil {
		t.Fatalf("vote v1: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, story.StoryID, voterTwoID, roundhttp.CastVoteRequest{Value: "5"}); err != nil {
		t.Fatalf("vote v2: %v", err)
	}

	// Everyone sees the count; only the requester's own value is exposed.
	own, err := module.Handler.RoundVotesHandler(ctx, story.StoryID, started.Round.RoundID, voterOneID)
	if err != nil {
		t.Fatalf("voter view: %v", err)
	}
	if own.TotalVotes != 2 {
		t.Fatalf("expected 2 total votes, got %d", own.TotalVotes)
	}
	if len(own.Votes) != 1 || own.Votes[0].UserID != voterOneID || own.Votes[0].Value != "3" {
		t.Fatalf("voter should see only own vote: %+v", own.Votes)
	}

	observerView, err := module.Handler.RoundVotesHandler(ctx, story.StoryID, started.Round.RoundID, observerID)
	if err != nil {
		t.Fatalf("observer view: %v", err)
	}
	if len(observerView.Votes) != 0 || observerView.TotalVotes != 2 {
		t.Fatalf("observer should see counts only: %+v", observerView)
	}

	if _, err := module.Handler.RoundVotesHandler(ctx, story.StoryID, started.Round.RoundID, nonMemberUserID); !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("non-member read, got %v", err)
	}

	if _, err := module.Handler.RevealHandler(ctx, story.StoryID, facilitatorID, roundhttp.RevealRequest{}); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	after, err := module.Handler.RoundVotesHandler(ctx, story.StoryID, started.Round.RoundID, observerID)
	if err != nil {
		t.Fatalf("post-reveal view: %v", err)
	}
	if len(after.Votes) != 2 || after.Stats == nil {
		t.Fatalf("post-reveal view must expose all votes and stats: %+v", after)
	}
}

func TestStartRoundRejectedWhenRoomInactive(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Archived work")

	room, err := module.Store.GetRoomProjection(ctx, testRoomID)
	if err != nil {
		t.Fatalf("load room: %v", err)
	}
	room.Status = "closed"
	if err := module.Store.SaveRoomProjection(ctx, room); err != nil {
		t.Fatalf("close room: %v", err)
	}

	if _, err := module.Handler.StartRoundHandler(ctx, story.StoryID, facilitatorID); !errors.Is(err, rounderrors.ErrRoomNotActive) {
		t.Fatalf("expected ErrRoomNotActive, got %v", err)
	}
}

func TestDeleteStoryRequiresFacilitator(t *testing.T) {
	module := newRoundModule(t)
	ctx := context.Background()
	story := createStory(t, module, "Throwaway")

	if err := module.Handler.DeleteStoryHandler(ctx, story.StoryID, voterOneID); !errors.Is(err, rounderrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := module.Handler.DeleteStoryHandler(ctx, story.StoryID, facilitatorID); err != nil {
		t.Fatalf("delete story: %v", err)
	}
	if _, err := module.Store.GetStory(ctx, story.StoryID); !errors.Is(err, rounderrors.ErrStoryNotFound) {
		t.Fatalf("story should be gone, got %v", err)
	}
}
