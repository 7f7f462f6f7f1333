package entities

import (
	"strings"
	"time"
)

type RoomStatus string
type ParticipantRole string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusClosed RoomStatus = "closed"

	RoleFacilitator ParticipantRole = "facilitator"
	RoleVoter       ParticipantRole = "voter"
	RoleObserver    ParticipantRole = "observer"
	RoleRemoved     ParticipantRole = "removed"
)

const (
	RoomCodeLength = 6

	maxRoomNameLength        = 100
	maxParticipantNameLength = 100
)

// Room is an estimation session. Code is the short join token shared with
// participants; the card scale is fixed per room and applies to every story
// estimated in it.
type Room struct {
	RoomID       string
	Code         string
	Name         string
	OwnerID      string
	ScaleName    string
	ScaleValues  []string
	ScaleUnknown string
	Status       RoomStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r Room) ValidateBasics() bool {
	name := strings.TrimSpace(r.Name)
	return name != "" &&
		len(name) <= maxRoomNameLength &&
		strings.TrimSpace(r.OwnerID) != "" &&
		len(r.ScaleValues) > 0
}

// Participant is one user's membership in a room. A user holds exactly one
// role per room; the creator starts as facilitator.
type Participant struct {
	RoomID      string
	UserID      string
	DisplayName string
	Role        ParticipantRole
	JoinedAt    time.Time
	UpdatedAt   time.Time
}

func IsSupportedRole(value ParticipantRole) bool {
	switch value {
	case RoleFacilitator, RoleVoter, RoleObserver:
		return true
	default:
		return false
	}
}

func ValidDisplayName(value string) bool {
	name := strings.TrimSpace(value)
	return name != "" && len(name) <= maxParticipantNameLength
}
