package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/estimation/round-engine/application"
	"pointdeck/contexts/estimation/round-engine/application/ledger"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/domain/permissions"
	"pointdeck/contexts/estimation/round-engine/domain/stats"
	"pointdeck/contexts/estimation/round-engine/ports"
)

// StartRoundCommand opens a new voting round for a story. A story in
// `revealed` state accepts this as a re-vote; prior rounds are kept as
// history, never reused.
type StartRoundCommand struct {
	StoryID string
	ActorID string
}

type StartRoundResult struct {
	Round entities.VotingRound
	Story entities.Story
}

// RevealCommand closes the story's active round and makes every vote and the
// derived statistics visible to all participants at once.
type RevealCommand struct {
	StoryID string
	RoundID string
	ActorID string
}

type RevealResult struct {
	Round entities.VotingRound
	Story entities.Story
	Votes []entities.Vote
	Stats entities.VoteStats
}

// FinalizeCommand records the agreed estimate on a revealed story. A nil
// estimate clears any previous value; a non-nil estimate must be a member of
// the room's card scale.
type FinalizeCommand struct {
	StoryID       string
	ActorID       string
	FinalEstimate *string
}

type FinalizeResult struct {
	Story entities.Story
}

// RoundUseCase owns the story state machine
// (pending -> voting -> revealed -> final, with revealed -> voting for
// re-votes). Every transition consults the permission table first, holds the
// story's lock for its read-modify-write, and emits its event only after all
// writes succeeded.
type RoundUseCase struct {
	Repo   ports.Repository
	Ledger ledger.Ledger
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Locks  *StoryLocks
	Logger *slog.Logger
}

func (uc RoundUseCase) StartRound(ctx context.Context, cmd StartRoundCommand) (StartRoundResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if storyID == "" || actorID == "" {
		return StartRoundResult{}, domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return StartRoundResult{}, err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionStartRound); err != nil {
		return StartRoundResult{}, err
	}
	room, err := uc.Repo.GetRoomProjection(ctx, story.RoomID)
	if err != nil {
		return StartRoundResult{}, err
	}
	if room.Status != "active" {
		return StartRoundResult{}, domainerrors.ErrRoomNotActive
	}

	switch story.Status {
	case entities.StoryStatusPending, entities.StoryStatusRevealed:
	case entities.StoryStatusVoting:
		return StartRoundResult{}, domainerrors.ErrRoundActive
	default:
		return StartRoundResult{}, domainerrors.ErrInvalidStoryState
	}

	maxNum, err := uc.Repo.MaxRoundNum(ctx, storyID)
	if err != nil {
		return StartRoundResult{}, err
	}
	roundID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return StartRoundResult{}, err
	}
	now := uc.now()
	round := entities.VotingRound{
		RoundID:   roundID,
		StoryID:   storyID,
		RoomID:    story.RoomID,
		RoundNum:  maxNum + 1,
		StartedAt: now,
	}
	if err := uc.Repo.CreateRound(ctx, round); err != nil {
		return StartRoundResult{}, err
	}

	prior := story
	story.Status = entities.StoryStatusVoting
	story.UpdatedAt = now
	if err := uc.Repo.SaveStory(ctx, story); err != nil {
		_ = uc.Repo.DeleteRound(ctx, round.RoundID)
		logger.Error("round start persist failed",
			"event", "round_start_persist_failed",
			"module", "estimation/round-engine",
			"layer", "application",
			"story_id", storyID,
			"round_id", round.RoundID,
			"error", err.Error(),
		)
		return StartRoundResult{}, domainerrors.ErrPersistenceFailure
	}

	if err := uc.appendEvent(ctx, EventRoundStarted, story.RoomID, now, map[string]any{
		"room_id":    story.RoomID,
		"story_id":   storyID,
		"round_id":   round.RoundID,
		"round_num":  round.RoundNum,
		"started_at": now.Format(time.RFC3339),
	}); err != nil {
		_ = uc.Repo.SaveStory(ctx, prior)
		_ = uc.Repo.DeleteRound(ctx, round.RoundID)
		return StartRoundResult{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("voting round started",
		"event", "round_started",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
		"round_id", round.RoundID,
		"round_num", round.RoundNum,
		"actor_id", actorID,
	)
	return StartRoundResult{Round: round, Story: story}, nil
}

func (uc RoundUseCase) Reveal(ctx context.Context, cmd RevealCommand) (RevealResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if storyID == "" || actorID == "" {
		return RevealResult{}, domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return RevealResult{}, err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionReveal); err != nil {
		return RevealResult{}, err
	}

	round, err := uc.resolveActiveRound(ctx, storyID, cmd.RoundID)
	if err != nil {
		return RevealResult{}, err
	}
	room, err := uc.Repo.GetRoomProjection(ctx, story.RoomID)
	if err != nil {
		return RevealResult{}, err
	}
	voters, err := uc.Repo.CountVoters(ctx, story.RoomID)
	if err != nil {
		return RevealResult{}, err
	}

	now := uc.now()
	votes, err := uc.Ledger.Reveal(ctx, round, now)
	if err != nil {
		return RevealResult{}, err
	}
	revealedAt := now
	round.RevealedAt = &revealedAt

	prior := story
	story.Status = entities.StoryStatusRevealed
	story.UpdatedAt = now
	if err := uc.Repo.SaveStory(ctx, story); err != nil {
		_ = uc.Repo.UnrevealRound(ctx, round.RoundID)
		logger.Error("round reveal persist failed",
			"event", "round_reveal_persist_failed",
			"module", "estimation/round-engine",
			"layer", "application",
			"story_id", storyID,
			"round_id", round.RoundID,
			"error", err.Error(),
		)
		return RevealResult{}, domainerrors.ErrPersistenceFailure
	}

	values := make([]string, 0, len(votes))
	valueByUser := make(map[string]string, len(votes))
	for _, vote := range votes {
		values = append(values, vote.Value)
		valueByUser[vote.UserID] = vote.Value
	}
	roundStats := stats.Compute(values, room.Scale(), voters)

	if err := uc.appendEvent(ctx, EventRoundRevealed, story.RoomID, now, map[string]any{
		"room_id":     story.RoomID,
		"story_id":    storyID,
		"round_id":    round.RoundID,
		"round_num":   round.RoundNum,
		"revealed_at": now.Format(time.RFC3339),
		"votes":       valueByUser,
		"stats":       statsPayload(roundStats),
	}); err != nil {
		_ = uc.Repo.SaveStory(ctx, prior)
		_ = uc.Repo.UnrevealRound(ctx, round.RoundID)
		return RevealResult{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("voting round revealed",
		"event", "round_revealed",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
		"round_id", round.RoundID,
		"total_votes", roundStats.TotalVotes,
		"consensus", string(roundStats.ConsensusLevel),
		"actor_id", actorID,
	)
	return RevealResult{Round: round, Story: story, Votes: votes, Stats: roundStats}, nil
}

func (uc RoundUseCase) Finalize(ctx context.Context, cmd FinalizeCommand) (FinalizeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	storyID := strings.TrimSpace(cmd.StoryID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if storyID == "" || actorID == "" {
		return FinalizeResult{}, domainerrors.ErrInvalidStoryInput
	}

	release := uc.Locks.Acquire(storyID)
	defer release()

	story, err := uc.Repo.GetStory(ctx, storyID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if err := uc.requireAction(ctx, story.RoomID, actorID, permissions.ActionFinalize); err != nil {
		return FinalizeResult{}, err
	}
	if story.Status != entities.StoryStatusRevealed {
		return FinalizeResult{}, domainerrors.ErrInvalidStoryState
	}

	estimate := ""
	if cmd.FinalEstimate != nil {
		estimate = strings.TrimSpace(*cmd.FinalEstimate)
		room, err := uc.Repo.GetRoomProjection(ctx, story.RoomID)
		if err != nil {
			return FinalizeResult{}, err
		}
		if !room.Scale().Contains(estimate) {
			return FinalizeResult{}, domainerrors.ErrInvalidValue
		}
	}

	now := uc.now()
	prior := story
	story.FinalEstimate = estimate
	story.Status = entities.StoryStatusFinal
	story.UpdatedAt = now
	if err := uc.Repo.SaveStory(ctx, story); err != nil {
		logger.Error("story finalize persist failed",
			"event", "story_finalize_persist_failed",
			"module", "estimation/round-engine",
			"layer", "application",
			"story_id", storyID,
			"error", err.Error(),
		)
		return FinalizeResult{}, domainerrors.ErrPersistenceFailure
	}

	if err := uc.appendEvent(ctx, EventStoryFinalized, story.RoomID, now, map[string]any{
		"room_id":        story.RoomID,
		"story_id":       storyID,
		"final_estimate": estimate,
	}); err != nil {
		_ = uc.Repo.SaveStory(ctx, prior)
		return FinalizeResult{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("story finalized",
		"event", "story_finalized",
		"module", "estimation/round-engine",
		"layer", "application",
		"room_id", story.RoomID,
		"story_id", storyID,
		"final_estimate", estimate,
		"actor_id", actorID,
	)
	return FinalizeResult{Story: story}, nil
}

// resolveActiveRound returns the story's unrevealed round, checking that a
// caller-supplied round id refers to it. A reveal that lost the race to a
// concurrent reveal observes ErrAlreadyRevealed, not a double emit.
func (uc RoundUseCase) resolveActiveRound(ctx context.Context, storyID string, requestedRoundID string) (entities.VotingRound, error) {
	requested := strings.TrimSpace(requestedRoundID)
	active, found, err := uc.Repo.GetActiveRound(ctx, storyID)
	if err != nil {
		return entities.VotingRound{}, err
	}
	if !found {
		if requested != "" {
			round, err := uc.Repo.GetRound(ctx, requested)
			if err == nil && round.Revealed() {
				return entities.VotingRound{}, domainerrors.ErrAlreadyRevealed
			}
		}
		return entities.VotingRound{}, domainerrors.ErrNoActiveRound
	}
	if requested != "" && requested != active.RoundID {
		round, err := uc.Repo.GetRound(ctx, requested)
		if err == nil && round.Revealed() {
			return entities.VotingRound{}, domainerrors.ErrRoundClosed
		}
		return entities.VotingRound{}, domainerrors.ErrRoundMismatch
	}
	return active, nil
}

func (uc RoundUseCase) requireAction(ctx context.Context, roomID string, actorID string, action permissions.Action) error {
	participant, found, err := uc.Repo.GetParticipant(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !found || !permissions.Allowed(participant.Role, action) {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (uc RoundUseCase) appendEvent(ctx context.Context, eventType string, roomID string, occurredAt time.Time, data map[string]any) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newRoundEnvelope(eventID, eventType, roomID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc RoundUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func statsPayload(s entities.VoteStats) map[string]any {
	payload := map[string]any{
		"mode":            s.Mode,
		"distribution":    s.Distribution,
		"consensus_level": string(s.ConsensusLevel),
		"total_voters":    s.TotalVoters,
		"total_votes":     s.TotalVotes,
	}
	if s.Average != nil {
		payload["average"] = *s.Average
	}
	if s.Median != nil {
		payload["median"] = *s.Median
	}
	return payload
}
