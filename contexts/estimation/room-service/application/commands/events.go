package commands

import (
	"encoding/json"
	"time"

	"pointdeck/contexts/estimation/room-service/domain/entities"
	"pointdeck/contexts/estimation/room-service/ports"
)

const (
	EventRoomCreated        = "room.created"
	EventRoomUpdated        = "room.updated"
	EventParticipantChanged = "room.participant_changed"
)

func newRoomEnvelope(
	eventID string,
	eventType string,
	roomID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "room-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "room_id",
		PartitionKey:     roomID,
		Data:             payload,
	}, nil
}

// roomEventData is the payload shape downstream projections decode. Keep the
// key set stable.
func roomEventData(room entities.Room) map[string]any {
	return map[string]any{
		"room_id":       room.RoomID,
		"code":          room.Code,
		"name":          room.Name,
		"status":        string(room.Status),
		"scale_name":    room.ScaleName,
		"scale_values":  room.ScaleValues,
		"scale_unknown": room.ScaleUnknown,
	}
}

func participantEventData(participant entities.Participant) map[string]any {
	return map[string]any{
		"room_id":      participant.RoomID,
		"user_id":      participant.UserID,
		"display_name": participant.DisplayName,
		"role":         string(participant.Role),
	}
}
