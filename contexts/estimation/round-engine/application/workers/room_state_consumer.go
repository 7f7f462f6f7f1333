package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pointdeck/contexts/estimation/round-engine/application"
	"pointdeck/contexts/estimation/round-engine/domain/entities"
	"pointdeck/contexts/estimation/round-engine/ports"
)

// RoomStateConsumer keeps the engine's room and participant projections in
// sync with room-service events. The engine never writes rooms itself; this
// consumer is its only ingestion path for membership and card-scale changes.
type RoomStateConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Repo          ports.Repository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c RoomStateConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("room state consumer disabled by feature flag",
			"event", "round_room_consumer_disabled",
			"module", "estimation/round-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultRoomCG
	}
	for _, topic := range []string{roomCreatedTopic, roomUpdatedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleRoomEvent); err != nil {
			logger.Error("room state consumer subscribe failed",
				"event", "round_room_consumer_subscribe_failed",
				"module", "estimation/round-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	if err := c.Subscriber.Subscribe(ctx, participantTopic, group, c.handleParticipantEvent); err != nil {
		logger.Error("room state consumer subscribe failed",
			"event", "round_room_consumer_subscribe_failed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"topic", participantTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("room state consumer subscriptions active",
		"event", "round_room_consumer_started",
		"module", "estimation/round-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c RoomStateConsumer) handleRoomEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if replayed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if replayed {
		logger.Debug("room event replay skipped",
			"event", "round_room_event_replayed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}
	var payload struct {
		RoomID       string   `json:"room_id"`
		Status       string   `json:"status"`
		ScaleName    string   `json:"scale_name"`
		ScaleValues  []string `json:"scale_values"`
		ScaleUnknown string   `json:"scale_unknown"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("room event payload decode failed",
			"event", "round_room_event_decode_failed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if err := c.Repo.SaveRoomProjection(ctx, ports.RoomProjection{
		RoomID:       strings.TrimSpace(payload.RoomID),
		Status:       strings.TrimSpace(payload.Status),
		ScaleName:    strings.TrimSpace(payload.ScaleName),
		ScaleValues:  payload.ScaleValues,
		ScaleUnknown: payload.ScaleUnknown,
	}); err != nil {
		return err
	}
	logger.Info("room projection updated",
		"event", "round_room_projection_updated",
		"module", "estimation/round-engine",
		"layer", "worker",
		"room_id", payload.RoomID,
		"status", payload.Status,
	)
	return nil
}

func (c RoomStateConsumer) handleParticipantEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if replayed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if replayed {
		logger.Debug("participant event replay skipped",
			"event", "round_participant_event_replayed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}
	var payload struct {
		RoomID string `json:"room_id"`
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("participant event payload decode failed",
			"event", "round_participant_event_decode_failed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if err := c.Repo.SaveParticipant(ctx, ports.ParticipantProjection{
		RoomID: strings.TrimSpace(payload.RoomID),
		UserID: strings.TrimSpace(payload.UserID),
		Role:   entities.ParticipantRole(strings.TrimSpace(payload.Role)),
	}); err != nil {
		return err
	}
	logger.Info("participant projection updated",
		"event", "round_participant_projection_updated",
		"module", "estimation/round-engine",
		"layer", "worker",
		"room_id", payload.RoomID,
		"user_id", payload.UserID,
		"role", payload.Role,
	)
	return nil
}

func (c RoomStateConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	// ReserveEvent is the dedupe gate for at-least-once delivery semantics.
	if c.Dedup == nil {
		return false, nil
	}
	return c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
}

func (c RoomStateConsumer) now() time.Time {
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return now
}

func (c RoomStateConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
