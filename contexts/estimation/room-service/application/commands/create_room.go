package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/estimation/room-service/application"
	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"
)

const codeAllocationAttempts = 5

type CreateRoomCommand struct {
	OwnerID        string
	IdempotencyKey string
	Name           string
	DisplayName    string
	ScaleName      string
}

type CreateRoomUseCase struct {
	Rooms          ports.RoomRepository
	Participants   ports.ParticipantRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	CodeGenerator  ports.CodeGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateRoomResult struct {
	Room     entities.Room
	Replayed bool
}

type createRoomReplayPayload struct {
	RoomID       string              `json:"room_id"`
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	OwnerID      string              `json:"owner_id"`
	ScaleName    string              `json:"scale_name"`
	ScaleValues  []string            `json:"scale_values"`
	ScaleUnknown string              `json:"scale_unknown"`
	Status       entities.RoomStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
}

func (uc CreateRoomUseCase) Execute(ctx context.Context, cmd CreateRoomCommand) (CreateRoomResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateRoomResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashCreateRoomCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateRoomResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateRoomResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var payload createRoomReplayPayload
		if err := json.Unmarshal(record.ResponsePayload, &payload); err != nil {
			return CreateRoomResult{}, err
		}
		return CreateRoomResult{
			Room: entities.Room{
				RoomID:       payload.RoomID,
				Code:         payload.Code,
				Name:         payload.Name,
				OwnerID:      payload.OwnerID,
				ScaleName:    payload.ScaleName,
				ScaleValues:  append([]string(nil), payload.ScaleValues...),
				ScaleUnknown: payload.ScaleUnknown,
				Status:       payload.Status,
				CreatedAt:    payload.CreatedAt,
				UpdatedAt:    payload.CreatedAt,
			},
			Replayed: true,
		}, nil
	}

	scaleName := strings.TrimSpace(cmd.ScaleName)
	if scaleName == "" {
		scaleName = entities.DefaultScaleName
	}
	scale, ok := entities.ScaleByName(scaleName)
	if !ok {
		return CreateRoomResult{}, domainerrors.ErrUnknownScale
	}
	if !entities.ValidDisplayName(cmd.DisplayName) {
		return CreateRoomResult{}, domainerrors.ErrInvalidRoomInput
	}

	roomID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateRoomResult{}, err
	}
	room := entities.Room{
		RoomID:       roomID,
		Name:         strings.TrimSpace(cmd.Name),
		OwnerID:      strings.TrimSpace(cmd.OwnerID),
		ScaleName:    scale.Name,
		ScaleValues:  scale.Values,
		ScaleUnknown: scale.Unknown,
		Status:       entities.RoomStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !room.ValidateBasics() {
		return CreateRoomResult{}, domainerrors.ErrInvalidRoomInput
	}

	// Codes are short, so collisions happen; retry with a fresh code instead
	// of surfacing the conflict.
	created := false
	for attempt := 0; attempt < codeAllocationAttempts; attempt++ {
		room.Code = uc.CodeGenerator.NewCode(entities.RoomCodeLength)
		err = uc.Rooms.CreateRoom(ctx, room)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, domainerrors.ErrConflict) {
			return CreateRoomResult{}, err
		}
	}
	if !created {
		return CreateRoomResult{}, domainerrors.ErrCodeExhausted
	}

	owner := entities.Participant{
		RoomID:      room.RoomID,
		UserID:      room.OwnerID,
		DisplayName: strings.TrimSpace(cmd.DisplayName),
		Role:        entities.RoleFacilitator,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if err := uc.Participants.SaveParticipant(ctx, owner); err != nil {
		return CreateRoomResult{}, domainerrors.ErrPersistenceFailure
	}

	payload := createRoomReplayPayload{
		RoomID:       room.RoomID,
		Code:         room.Code,
		Name:         room.Name,
		OwnerID:      room.OwnerID,
		ScaleName:    room.ScaleName,
		ScaleValues:  append([]string(nil), room.ScaleValues...),
		ScaleUnknown: room.ScaleUnknown,
		Status:       room.Status,
		CreatedAt:    room.CreatedAt,
	}
	serialized, err := json.Marshal(payload)
	if err != nil {
		return CreateRoomResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateRoomResult{}, err
	}

	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventRoomCreated, room.RoomID, now, roomEventData(room)); err != nil {
		return CreateRoomResult{}, err
	}
	if err := appendRoomEvent(ctx, uc.Outbox, uc.IDGenerator, EventParticipantChanged, room.RoomID, now, participantEventData(owner)); err != nil {
		return CreateRoomResult{}, err
	}

	logger.Info("room created",
		"event", "room_created",
		"module", "estimation/room-service",
		"layer", "application",
		"room_id", room.RoomID,
		"owner_id", room.OwnerID,
		"scale", room.ScaleName,
	)
	return CreateRoomResult{Room: room}, nil
}

func appendRoomEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	roomID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newRoomEnvelope(eventID, eventType, roomID, occurredAt, data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}

func hashCreateRoomCommand(cmd CreateRoomCommand) string {
	payload := map[string]any{
		"owner_id":     strings.TrimSpace(cmd.OwnerID),
		"name":         strings.TrimSpace(cmd.Name),
		"display_name": strings.TrimSpace(cmd.DisplayName),
		"scale_name":   strings.TrimSpace(cmd.ScaleName),
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
