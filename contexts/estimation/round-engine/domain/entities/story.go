package entities

import "time"

type StoryStatus string

const (
	StoryStatusPending  StoryStatus = "pending"
	StoryStatusVoting   StoryStatus = "voting"
	StoryStatusRevealed StoryStatus = "revealed"
	StoryStatusFinal    StoryStatus = "final"
)

type ParticipantRole string

const (
	RoleFacilitator ParticipantRole = "facilitator"
	RoleVoter       ParticipantRole = "voter"
	RoleObserver    ParticipantRole = "observer"
)

// Story is a work item being estimated within a room. SortOrder is dense and
// room-scoped, assigned by append order.
type Story struct {
	StoryID       string
	RoomID        string
	Title         string
	Description   string
	ExternalID    string
	ExternalURL   string
	Status        StoryStatus
	FinalEstimate string
	SortOrder     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VotingRound is one attempt at estimating a story. RoundNum is strictly
// increasing and gap-free per story, starting at 1. RevealedAt stays nil
// until the facilitator reveals; at most one round per story may be
// unrevealed at any time.
type VotingRound struct {
	RoundID    string
	StoryID    string
	RoomID     string
	RoundNum   int
	StartedAt  time.Time
	RevealedAt *time.Time
}

func (r VotingRound) Revealed() bool {
	return r.RevealedAt != nil
}

// Vote is a single user's value for a round. At most one vote exists per
// (round, user); a later cast from the same user overwrites the earlier one
// while the round is unrevealed.
type Vote struct {
	VoteID    string
	RoundID   string
	StoryID   string
	UserID    string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
