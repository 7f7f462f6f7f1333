package commands

import (
	"context"
	"log/slog"
	"strings"

	application "pointdeck/contexts/estimation/room-service/application"
	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"
)

// JoinRoomCommand adds the actor to the room named by Code. A repeat join
// refreshes the display name and keeps the existing role.
type JoinRoomCommand struct {
	Code        string
	UserID      string
	DisplayName string
	AsObserver  bool
}

type JoinRoomUseCase struct {
	Rooms        ports.RoomRepository
	Participants ports.ParticipantRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

type JoinRoomResult struct {
	Room        entities.Room
	Participant entities.Participant
}

func (uc JoinRoomUseCase) Execute(ctx context.Context, cmd JoinRoomCommand) (JoinRoomResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	userID := strings.TrimSpace(cmd.UserID)
	if code == "" || userID == "" || !entities.ValidDisplayName(cmd.DisplayName) {
		return JoinRoomResult{}, domainerrors.ErrInvalidRoomInput
	}

	room, err := uc.Rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return JoinRoomResult{}, err
	}
	if room.Status != entities.RoomStatusActive {
		return JoinRoomResult{}, domainerrors.ErrRoomClosed
	}

	now := uc.Clock.Now().UTC()
	role := entities.RoleVoter
	if cmd.AsObserver {
		role = entities.RoleObserver
	}
	participant := entities.Participant{
		RoomID:      room.RoomID,
		UserID:      userID,
		DisplayName: strings.TrimSpace(cmd.DisplayName),
		Role:        role,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if existing, found, err := uc.Participants.GetParticipant(ctx, room.RoomID, userID); err != nil {
		return JoinRoomResult{}, err
	} else if found && existing.Role != entities.RoleRemoved {
		participant.Role = existing.Role
		participant.JoinedAt = existing.JoinedAt
	}

	if err := uc.Participants.SaveParticipant(ctx, participant); err != nil {
		return JoinRoomResult{}, domainerrors.ErrPersistenceFailure
	}
	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventParticipantChanged, room.RoomID, now, participantEventData(participant)); err != nil {
		return JoinRoomResult{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("participant joined",
		"event", "room_participant_joined",
		"module", "estimation/room-service",
		"layer", "application",
		"room_id", room.RoomID,
		"user_id", userID,
		"role", string(participant.Role),
	)
	return JoinRoomResult{Room: room, Participant: participant}, nil
}
