// Package ledger holds per-round vote storage behavior: uniqueness per
// (round, user), re-vote overwrite while unrevealed, and the visibility
// contract that keeps values hidden from peers until reveal. The underlying
// repository always holds full data; visibility is a query-time filter
// parameterized by requester identity and reveal status.
package ledger

import (
	"context"
	"time"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/ports"
)

type Ledger struct {
	Repo  ports.Repository
	Clock ports.Clock
	IDGen ports.IDGenerator
}

// RoundVotes is a visibility-filtered read of a round. Before reveal, Votes
// carries at most the requester's own entry and TotalVotes carries only a
// count; after reveal it carries the full mapping.
type RoundVotes struct {
	RoundID    string
	Revealed   bool
	TotalVotes int
	Votes      []entities.Vote
}

// Cast inserts or overwrites the user's vote for an unrevealed round and
// returns the resulting count of distinct voters. Values outside the scale
// fail with ErrInvalidValue; revealed rounds fail with ErrRoundClosed.
func (l Ledger) Cast(
	ctx context.Context,
	round entities.VotingRound,
	scale entities.CardScale,
	userID string,
	value string,
) (int, error) {
	if !scale.Contains(value) {
		return 0, domainerrors.ErrInvalidValue
	}
	if round.Revealed() {
		return 0, domainerrors.ErrRoundClosed
	}

	now := l.now()
	existing, found, err := l.findVote(ctx, round.RoundID, userID)
	if err != nil {
		return 0, err
	}
	if found {
		existing.Value = value
		existing.UpdatedAt = now
		if err := l.Repo.SaveVote(ctx, existing); err != nil {
			return 0, err
		}
	} else {
		voteID, err := l.IDGen.NewID(ctx)
		if err != nil {
			return 0, err
		}
		vote := entities.Vote{
			VoteID:    voteID,
			RoundID:   round.RoundID,
			StoryID:   round.StoryID,
			UserID:    userID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := l.Repo.SaveVote(ctx, vote); err != nil {
			return 0, err
		}
	}
	return l.Repo.CountVotesByRound(ctx, round.RoundID)
}

// Retract removes the user's vote from an unrevealed round. Commands use it
// to undo a cast whose side effects could not be journaled.
func (l Ledger) Retract(ctx context.Context, round entities.VotingRound, userID string) error {
	if round.Revealed() {
		return domainerrors.ErrRoundClosed
	}
	return l.Repo.DeleteVote(ctx, round.RoundID, userID)
}

// Reveal closes the round to new votes and returns the full vote set for
// statistics. The repository enforces single-winner semantics: a second
// reveal observes ErrAlreadyRevealed.
func (l Ledger) Reveal(ctx context.Context, round entities.VotingRound, at time.Time) ([]entities.Vote, error) {
	if round.Revealed() {
		return nil, domainerrors.ErrAlreadyRevealed
	}
	if err := l.Repo.RevealRound(ctx, round.RoundID, at); err != nil {
		return nil, err
	}
	return l.Repo.ListVotesByRound(ctx, round.RoundID)
}

// Votes reads a round on behalf of requesterID, applying the pre-reveal
// visibility filter at the point of read.
func (l Ledger) Votes(ctx context.Context, round entities.VotingRound, requesterID string) (RoundVotes, error) {
	votes, err := l.Repo.ListVotesByRound(ctx, round.RoundID)
	if err != nil {
		return RoundVotes{}, err
	}
	result := RoundVotes{
		RoundID:    round.RoundID,
		Revealed:   round.Revealed(),
		TotalVotes: len(votes),
	}
	if round.Revealed() {
		result.Votes = votes
		return result, nil
	}
	for _, vote := range votes {
		if vote.UserID == requesterID {
			result.Votes = []entities.Vote{vote}
			break
		}
	}
	return result, nil
}

func (l Ledger) findVote(ctx context.Context, roundID string, userID string) (entities.Vote, bool, error) {
	votes, err := l.Repo.ListVotesByRound(ctx, roundID)
	if err != nil {
		return entities.Vote{}, false, err
	}
	for _, vote := range votes {
		if vote.UserID == userID {
			return vote, true, nil
		}
	}
	return entities.Vote{}, false, nil
}

func (l Ledger) now() time.Time {
	now := time.Now().UTC()
	if l.Clock != nil {
		now = l.Clock.Now().UTC()
	}
	return now
}
