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

type ChangeRoleCommand struct {
	RoomID  string
	ActorID string
	UserID  string
	Role    string
}

type LeaveRoomCommand struct {
	RoomID string
	UserID string
}

type ChangeRoleUseCase struct {
	Rooms        ports.RoomRepository
	Participants ports.ParticipantRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc ChangeRoleUseCase) Execute(ctx context.Context, cmd ChangeRoleCommand) (entities.Participant, error) {
	logger := application.ResolveLogger(uc.Logger)
	roomID := strings.TrimSpace(cmd.RoomID)
	actorID := strings.TrimSpace(cmd.ActorID)
	userID := strings.TrimSpace(cmd.UserID)
	role := entities.ParticipantRole(strings.TrimSpace(cmd.Role))
	if roomID == "" || actorID == "" || userID == "" {
		return entities.Participant{}, domainerrors.ErrInvalidRoomInput
	}
	if !entities.IsSupportedRole(role) {
		return entities.Participant{}, domainerrors.ErrInvalidRoomInput
	}

	if _, err := uc.Rooms.GetRoom(ctx, roomID); err != nil {
		return entities.Participant{}, err
	}
	if err := requireFacilitator(ctx, uc.Participants, roomID, actorID); err != nil {
		return entities.Participant{}, err
	}

	participant, found, err := uc.Participants.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return entities.Participant{}, err
	}
	if !found || participant.Role == entities.RoleRemoved {
		return entities.Participant{}, domainerrors.ErrParticipantNotFound
	}
	if participant.Role == entities.RoleFacilitator && role != entities.RoleFacilitator {
		if err := requireAnotherFacilitator(ctx, uc.Participants, roomID); err != nil {
			return entities.Participant{}, err
		}
	}

	now := uc.Clock.Now().UTC()
	participant.Role = role
	participant.UpdatedAt = now
	if err := uc.Participants.SaveParticipant(ctx, participant); err != nil {
		return entities.Participant{}, domainerrors.ErrPersistenceFailure
	}
	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventParticipantChanged, roomID, now, participantEventData(participant)); err != nil {
		return entities.Participant{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("participant role changed",
		"event", "room_participant_role_changed",
		"module", "estimation/room-service",
		"layer", "application",
		"room_id", roomID,
		"user_id", userID,
		"role", string(role),
		"actor_id", actorID,
	)
	return participant, nil
}

// Leave marks the participant removed rather than deleting the row, so
// downstream projections observe the change as a role update.
func (uc ChangeRoleUseCase) Leave(ctx context.Context, cmd LeaveRoomCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	roomID := strings.TrimSpace(cmd.RoomID)
	userID := strings.TrimSpace(cmd.UserID)
	if roomID == "" || userID == "" {
		return domainerrors.ErrInvalidRoomInput
	}

	participant, found, err := uc.Participants.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !found || participant.Role == entities.RoleRemoved {
		return domainerrors.ErrParticipantNotFound
	}
	if participant.Role == entities.RoleFacilitator {
		if err := requireAnotherFacilitator(ctx, uc.Participants, roomID); err != nil {
			return err
		}
	}

	now := uc.Clock.Now().UTC()
	participant.Role = entities.RoleRemoved
	participant.UpdatedAt = now
	if err := uc.Participants.SaveParticipant(ctx, participant); err != nil {
		return domainerrors.ErrPersistenceFailure
	}
	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventParticipantChanged, roomID, now, participantEventData(participant)); err != nil {
		return domainerrors.ErrPersistenceFailure
	}

	logger.Info("participant left",
		"event", "room_participant_left",
		"module", "estimation/room-service",
		"layer", "application",
		"room_id", roomID,
		"user_id", userID,
	)
	return nil
}

func requireAnotherFacilitator(ctx context.Context, participants ports.ParticipantRepository, roomID string) error {
	count, err := participants.CountByRole(ctx, roomID, entities.RoleFacilitator)
	if err != nil {
		return err
	}
	if count <= 1 {
		return domainerrors.ErrLastFacilitator
	}
	return nil
}
