package queries

import (
	"context"
	"sort"
	"strings"

	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"
)

type RoomUseCase struct {
	Rooms        ports.RoomRepository
	Participants ports.ParticipantRepository
}

// RoomDetail is a room plus its live membership. Removed participants are
// filtered out.
type RoomDetail struct {
	Room         entities.Room
	Participants []entities.Participant
}

func (uc RoomUseCase) GetRoom(ctx context.Context, roomID string, requesterID string) (RoomDetail, error) {
	room, err := uc.Rooms.GetRoom(ctx, strings.TrimSpace(roomID))
	if err != nil {
		return RoomDetail{}, err
	}
	if err := uc.requireMember(ctx, room.RoomID, requesterID); err != nil {
		return RoomDetail{}, err
	}
	participants, err := uc.listActive(ctx, room.RoomID)
	if err != nil {
		return RoomDetail{}, err
	}
	return RoomDetail{Room: room, Participants: participants}, nil
}

// GetRoomByCode resolves a join code to its room. It requires no membership;
// it is the lookup a joining user performs before becoming a participant.
func (uc RoomUseCase) GetRoomByCode(ctx context.Context, code string) (entities.Room, error) {
	return uc.Rooms.GetRoomByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (uc RoomUseCase) ListRoomsByOwner(ctx context.Context, ownerID string) ([]entities.Room, error) {
	rooms, err := uc.Rooms.ListRoomsByOwner(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return nil, err
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

func (uc RoomUseCase) listActive(ctx context.Context, roomID string) ([]entities.Participant, error) {
	participants, err := uc.Participants.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	active := make([]entities.Participant, 0, len(participants))
	for _, participant := range participants {
		if participant.Role == entities.RoleRemoved {
			continue
		}
		active = append(active, participant)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].JoinedAt.Before(active[j].JoinedAt) })
	return active, nil
}

func (uc RoomUseCase) requireMember(ctx context.Context, roomID string, userID string) error {
	participant, found, err := uc.Participants.GetParticipant(ctx, roomID, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if !found || participant.Role == entities.RoleRemoved {
		return domainerrors.ErrForbidden
	}
	return nil
}
