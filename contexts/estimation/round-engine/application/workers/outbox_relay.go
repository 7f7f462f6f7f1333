package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "pointdeck/contexts/estimation/round-engine/application"
	"pointdeck/contexts/estimation/round-engine/ports"
)

// OutboxRelay publishes persisted round events to the broadcast bus. The
// command side never publishes directly; events become visible to clients
// only after their state change durably committed.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each
// row published only after the bus accepted it. It stops on the first
// failure so the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("round outbox list failed",
			"event", "round_outbox_list_failed",
			"module", "estimation/round-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("round outbox relay found no pending rows",
			"event", "round_outbox_relay_noop",
			"module", "estimation/round-engine",
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
			logger.Error("round outbox decode failed",
				"event", "round_outbox_decode_failed",
				"module", "estimation/round-engine",
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
			logger.Error("round outbox publish failed",
				"event", "round_outbox_publish_failed",
				"module", "estimation/round-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("round outbox mark published failed",
				"event", "round_outbox_mark_published_failed",
				"module", "estimation/round-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("round outbox relay cycle finished",
		"event", "round_outbox_relay_finished",
		"module", "estimation/round-engine",
		"layer", "worker",
		"published", len(pending),
	)
	return nil
}
