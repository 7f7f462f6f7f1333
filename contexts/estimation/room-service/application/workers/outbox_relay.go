package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "pointdeck/contexts/estimation/room-service/application"
	"pointdeck/contexts/estimation/room-service/ports"
)

// OutboxRelay publishes persisted room events to the broadcast bus.
// Downstream projections (and connected clients) see a change only after the
// room-service write committed.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows, stopping on the
// first failure so the next cycle reprocesses the remainder.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("room outbox list failed",
			"event", "room_outbox_list_failed",
			"module", "estimation/room-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("room outbox relay found no pending rows",
			"event", "room_outbox_relay_noop",
			"module", "estimation/room-service",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("room outbox decode failed",
				"event", "room_outbox_decode_failed",
				"module", "estimation/room-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("room outbox publish failed",
				"event", "room_outbox_publish_failed",
				"module", "estimation/room-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("room outbox mark published failed",
				"event", "room_outbox_mark_published_failed",
				"module", "estimation/room-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("room outbox relay cycle finished",
		"event", "room_outbox_relay_finished",
		"module", "estimation/room-service",
		"layer", "worker",
		"published", len(pending),
	)
	return nil
}
