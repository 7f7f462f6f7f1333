package commands

import (
	"context"
	"strings"

	application "pointdeck/contexts/estimation/round-engine/application"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/domain/permissions"
)

// CastVoteCommand records or replaces the actor's vote for the story's
// active round. RoundID is optional; when set it must name the active round.
type CastVoteCommand struct {
	StoryID string
	RoundID string
	ActorID string
	Value   string
}

// CastVoteResult deliberately carries no vote values. Peers learn only that
// the voter count changed; values stay hidden until reveal.
type CastVoteResult struct {
	RoundID   string
	VotesCast int
}

func (uc RoundUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	value := strings.TrimSpace(cmd.Value)
	if storyID == "" || actorID == "" || value == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionCastVote); err != nil {
		return CastVoteResult{}, err
	}

	round, err := uc.resolveActiveRound(ctx, storyID, cmd.RoundID)
	if err != nil {
		return CastVoteResult{}, err
	}
	room, err := uc.Repo.GetRoomProjection(ctx, story.RoomID)
	if err != nil {
		return CastVoteResult{}, err
	}

	prior, err := uc.Ledger.Votes(ctx, round, actorID)
	if err != nil {
		return CastVoteResult{}, err
	}

	count, err := uc.Ledger.Cast(ctx, round, room.Scale(), actorID, value)
	if err != nil {
		return CastVoteResult{}, err
	}

	if err := uc.appendEvent(ctx, EventVoteCast, story.RoomID, uc.now(), map[string]any{
		"room_id":    story.RoomID,
		"story_id":   storyID,
		"round_id":   round.RoundID,
		"votes_cast": count,
	}); err != nil {
		if len(prior.Votes) > 0 {
			_, _ = uc.Ledger.Cast(ctx, round, room.Scale(), actorID, prior.Votes[0].Value)
		} else {
			_ = uc.Ledger.Retract(ctx, round, actorID)
		}
		return CastVoteResult{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("vote cast",
		"event", "vote_cast",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
		"round_id", round.RoundID,
		"votes_cast", count,
	)
	return CastVoteResult{RoundID: round.RoundID, VotesCast: count}, nil
}
