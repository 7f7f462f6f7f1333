package queries

import (
	"context"
	"sort"
	"strings"

	"pointdeck/contexts/estimation/round-engine/application/ledger"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/domain/stats"
	"pointdeck/contexts/estimation/round-engine/ports"
)

// RoundUseCase serves read paths. Reads never block behind the story locks;
// pre-reveal vote visibility is an access-control filter applied by the
// ledger at read time, not a lock.
type RoundUseCase struct {
	Repo   ports.Repository
	Ledger ledger.Ledger
}

// RoundView is a requester-scoped view of one round. Stats is nil until the
// round is revealed.
type RoundView struct {
	Round      entities.VotingRound
	TotalVotes int
	Votes      []entities.Vote
	Stats      *entities.VoteStats
}

// RoundVotes reads a round on behalf of requesterID. Any participant of the
// room may read; non-participants are denied.
func (uc RoundUseCase) RoundVotes(ctx context.Context, storyID string, roundID string, requesterID string) (RoundView, error) {
	story, err := uc.Repo.GetStory(ctx, strings.TrimSpace(storyID))
	if err != nil {
		return RoundView{}, err
	}
	if err := uc.requireParticipant(ctx, story.RoomID, requesterID); err != nil {
		return RoundView{}, err
	}
	round, err := uc.Repo.GetRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return RoundView{}, err
	}
	if round.StoryID != story.StoryID {
		return RoundView{}, domainerrors.ErrRoundNotFound
	}

	filtered, err := uc.Ledger.Votes(ctx, round, strings.TrimSpace(requesterID))
	if err != nil {
		return RoundView{}, err
	}
	view := RoundView{
		Round:      round,
		TotalVotes: filtered.TotalVotes,
		Votes:      filtered.Votes,
	}
	if round.Revealed() {
		roundStats, err := uc.computeStats(ctx, story.RoomID, filtered.Votes)
		if err != nil {
			return RoundView{}, err
		}
		view.Stats = &roundStats
	}
	return view, nil
}

// RoundHistory lists a story's rounds ordered by round number, with stats
// for every revealed round. Unrevealed rounds expose only their vote count.
func (uc RoundUseCase) RoundHistory(ctx context.Context, storyID string, requesterID string) ([]RoundView, error) {
	story, err := uc.Repo.GetStory(ctx, strings.TrimSpace(storyID))
	if err != nil {
		return nil, err
	}
	if err := uc.requireParticipant(ctx, story.RoomID, requesterID); err != nil {
		return nil, err
	}
	rounds, err := uc.Repo.ListRoundsByStory(ctx, story.StoryID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNum < rounds[j].RoundNum })

	views := make([]RoundView, 0, len(rounds))
	for _, round := range rounds {
		filtered, err := uc.Ledger.Votes(ctx, round, strings.TrimSpace(requesterID))
		if err != nil {
			return nil, err
		}
		view := RoundView{
			Round:      round,
			TotalVotes: filtered.TotalVotes,
			Votes:      filtered.Votes,
		}
		if round.Revealed() {
			roundStats, err := uc.computeStats(ctx, story.RoomID, filtered.Votes)
			if err != nil {
				return nil, err
			}
			view.Stats = &roundStats
		}
		views = append(views, view)
	}
	return views, nil
}

// ListStories returns a room's stories ordered by sortOrder.
func (uc RoundUseCase) ListStories(ctx context.Context, roomID string, requesterID string) ([]entities.Story, error) {
	roomID = strings.TrimSpace(roomID)
	if err := uc.requireParticipant(ctx, roomID, requesterID); err != nil {
		return nil, err
	}
	stories, err := uc.Repo.ListStoriesByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].SortOrder < stories[j].SortOrder })
	return stories, nil
}

func (uc RoundUseCase) computeStats(ctx context.Context, roomID string, votes []entities.Vote) (entities.VoteStats, error) {
	room, err := uc.Repo.GetRoomProjection(ctx, roomID)
	if err != nil {
		return entities.VoteStats{}, err
	}
	voters, err := uc.Repo.CountVoters(ctx, roomID)
	if err != nil {
		return entities.VoteStats{}, err
	}
	values := make([]string, 0, len(votes))
	for _, vote := range votes {
		values = append(values, vote.Value)
	}
	return stats.Compute(values, room.Scale(), voters), nil
}

func (uc RoundUseCase) requireParticipant(ctx context.Context, roomID string, userID string) error {
	_, found, err := uc.Repo.GetParticipant(ctx, roomID, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrForbidden
	}
	return nil
}
