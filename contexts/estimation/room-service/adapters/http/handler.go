package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"pointdeck/contexts/estimation/room-service/application/commands"
	"pointdeck/contexts/estimation/room-service/application/queries"
	"pointdeck/contexts/estimation/room-service/domain/entities"
	httptransport "pointdeck/contexts/estimation/room-service/transport/http"
)

type Handler struct {
	CreateRoom commands.CreateRoomUseCase
	UpdateRoom commands.UpdateRoomUseCase
	JoinRoom   commands.JoinRoomUseCase
	Roles      commands.ChangeRoleUseCase
	Queries    queries.RoomUseCase
	Logger     *slog.Logger
}

func (h Handler) CreateRoomHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateRoomRequest,
) (httptransport.RoomResponse, error) {
	result, err := h.CreateRoom.Execute(ctx, commands.CreateRoomCommand{
		OwnerID:        userID,
		IdempotencyKey: idempotencyKey,
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		ScaleName:      req.ScaleName,
	})
	if err != nil {
		return httptransport.RoomResponse{}, err
	}
	resp := mapRoom(result.Room)
	resp.Replayed = result.Replayed
	return resp, nil
}

func (h Handler) UpdateRoomHandler(
	ctx context.Context,
	roomID string,
	userID string,
	req httptransport.UpdateRoomRequest,
) (httptransport.RoomResponse, error) {
	room, err := h.UpdateRoom.Execute(ctx, commands.UpdateRoomCommand{
		RoomID:    roomID,
		ActorID:   userID,
		Name:      req.Name,
		ScaleName: req.ScaleName,
		Status:    req.Status,
	})
	if err != nil {
		return httptransport.RoomResponse{}, err
	}
	return mapRoom(room), nil
}

func (h Handler) JoinRoomHandler(
	ctx context.Context,
	userID string,
	req httptransport.JoinRoomRequest,
) (httptransport.JoinRoomResponse, error) {
	result, err := h.JoinRoom.Execute(ctx, commands.JoinRoomCommand{
		Code:        req.Code,
		UserID:      userID,
		DisplayName: req.DisplayName,
		AsObserver:  req.AsObserver,
	})
	if err != nil {
		return httptransport.JoinRoomResponse{}, err
	}
	return httptransport.JoinRoomResponse{
		Room:        mapRoom(result.Room),
		Participant: mapParticipant(result.Participant),
	}, nil
}

func (h Handler) ChangeRoleHandler(
	ctx context.Context,
	roomID string,
	targetUserID string,
	actorID string,
	req httptransport.ChangeRoleRequest,
) (httptransport.ParticipantResponse, error) {
	participant, err := h.Roles.Execute(ctx, commands.ChangeRoleCommand{
		RoomID:  roomID,
		ActorID: actorID,
		UserID:  targetUserID,
		Role:    req.Role,
	})
	if err != nil {
		return httptransport.ParticipantResponse{}, err
	}
	return mapParticipant(participant), nil
}

func (h Handler) LeaveRoomHandler(ctx context.Context, roomID string, userID string) error {
	return h.Roles.Leave(ctx, commands.LeaveRoomCommand{
		RoomID: roomID,
		UserID: userID,
	})
}

func (h Handler) GetRoomHandler(ctx context.Context, roomID string, userID string) (httptransport.RoomDetailResponse, error) {
	detail, err := h.Queries.GetRoom(ctx, roomID, userID)
	if err != nil {
		return httptransport.RoomDetailResponse{}, err
	}
	participants := make([]httptransport.ParticipantResponse, 0, len(detail.Participants))
	for _, participant := range detail.Participants {
		participants = append(participants, mapParticipant(participant))
	}
	return httptransport.RoomDetailResponse{
		Room:         mapRoom(detail.Room),
		Participants: participants,
	}, nil
}

func (h Handler) GetRoomByCodeHandler(ctx context.Context, code string) (httptransport.RoomResponse, error) {
	room, err := h.Queries.GetRoomByCode(ctx, code)
	if err != nil {
		return httptransport.RoomResponse{}, err
	}
	return mapRoom(room), nil
}

func (h Handler) ListRoomsHandler(ctx context.Context, userID string) (httptransport.RoomListResponse, error) {
	rooms, err := h.Queries.ListRoomsByOwner(ctx, userID)
	if err != nil {
		return httptransport.RoomListResponse{}, err
	}
	items := make([]httptransport.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, mapRoom(room))
	}
	return httptransport.RoomListResponse{Items: items}, nil
}

func mapRoom(room entities.Room) httptransport.RoomResponse {
	return httptransport.RoomResponse{
		RoomID:       room.RoomID,
		Code:         room.Code,
		Name:         room.Name,
		OwnerID:      room.OwnerID,
		ScaleName:    room.ScaleName,
		ScaleValues:  room.ScaleValues,
		ScaleUnknown: room.ScaleUnknown,
		Status:       string(room.Status),
		CreatedAt:    room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapParticipant(participant entities.Participant) httptransport.ParticipantResponse {
	return httptransport.ParticipantResponse{
		RoomID:      participant.RoomID,
		UserID:      participant.UserID,
		DisplayName: participant.DisplayName,
		Role:        string(participant.Role),
		JoinedAt:    participant.JoinedAt.UTC().Format(time.RFC3339),
	}
}
