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

// UpdateRoomCommand patches room settings. Nil fields are left untouched.
// Changing the scale propagates to downstream projections through the
// room.updated event; it does not rewrite past votes.
type UpdateRoomCommand struct {
	RoomID    string
	ActorID   string
	Name      *string
	ScaleName *string
	Status    *string
}

type UpdateRoomUseCase struct {
	Rooms        ports.RoomRepository
	Participants ports.ParticipantRepository
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc UpdateRoomUseCase) Execute(ctx context.Context, cmd UpdateRoomCommand) (entities.Room, error) {
	logger := application.ResolveLogger(uc.Logger)
	roomID := strings.TrimSpace(cmd.RoomID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if roomID == "" || actorID == "" {
		return entities.Room{}, domainerrors.ErrInvalidRoomInput
	}

	room, err := uc.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return entities.Room{}, err
	}
	if err := requireFacilitator(ctx, uc.Participants, roomID, actorID); err != nil {
		return entities.Room{}, err
	}

	prior := room
	if cmd.Name != nil {
		room.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.ScaleName != nil {
		scale, ok := entities.ScaleByName(*cmd.ScaleName)
		if !ok {
			return entities.Room{}, domainerrors.ErrUnknownScale
		}
		room.ScaleName = scale.Name
		room.ScaleValues = scale.Values
		room.ScaleUnknown = scale.Unknown
	}
	if cmd.Status != nil {
		switch entities.RoomStatus(strings.TrimSpace(*cmd.Status)) {
		case entities.RoomStatusActive:
			room.Status = entities.RoomStatusActive
		case entities.RoomStatusClosed:
			room.Status = entities.RoomStatusClosed
		default:
			return entities.Room{}, domainerrors.ErrInvalidRoomInput
		}
	}
	if !room.ValidateBasics() {
		return entities.Room{}, domainerrors.ErrInvalidRoomInput
	}

	now := uc.Clock.Now().UTC()
	room.UpdatedAt = now
	if err := uc.Rooms.UpdateRoom(ctx, room); err != nil {
		return entities.Room{}, domainerrors.ErrPersistenceFailure
	}
	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventRoomUpdated, room.RoomID, now, roomEventData(room)); err != nil {
		_ = uc.Rooms.UpdateRoom(ctx, prior)
		return entities.Room{}, domainerrors.ErrPersistenceFailure
	}

	logger.Info("room updated",
		"event", "room_updated",
		"module", "estimation/room-service",
		"layer", "application",
		"room_id", room.RoomID,
		"status", string(room.Status),
		"scale", room.ScaleName,
	)
	return room, nil
}

func requireFacilitator(
	ctx context.Context,
	participants ports.ParticipantRepository,
	roomID string,
	userID string,
) error {
	participant, found, err := participants.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !found || participant.Role != entities.RoleFacilitator {
		return domainerrors.ErrForbidden
	}
	return nil
}
