package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	roundengine "pointdeck/contexts/estimation/round-engine"
	roundpostgres "pointdeck/contexts/estimation/round-engine/adapters/postgres"
	roundworkers "pointdeck/contexts/estimation/round-engine/application/workers"
	roundports "pointdeck/contexts/estimation/round-engine/ports"
	roomservice "pointdeck/contexts/estimation/room-service"
	roompostgres "pointdeck/contexts/estimation/room-service/adapters/postgres"
	roomworkers "pointdeck/contexts/estimation/room-service/application/workers"
	roomports "pointdeck/contexts/estimation/room-service/ports"
	"pointdeck/internal/platform/config"
	"pointdeck/internal/platform/db"
	"pointdeck/internal/platform/httpserver"
	"pointdeck/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres          *db.Postgres
	roomRelay         roomworkers.OutboxRelay
	roundRelay        roundworkers.OutboxRelay
	roomConsumer      roundworkers.RoomStateConsumer
	roomRelayEnabled  bool
	roundRelayEnabled bool
	pollInterval      time.Duration
	logger            *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	roomRepo := roompostgres.NewRepository(pg.DB, logger)
	roomModule := roomservice.NewModule(roomservice.Dependencies{
		Rooms:          roomRepo,
		Participants:   roomRepo,
		Idempotency:    roomRepo,
		Outbox:         roomRepo,
		Clock:          roompostgres.SystemClock{},
		IDGen:          roompostgres.UUIDGenerator{},
		Codes:          roompostgres.CodeGenerator{},
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})

	roundRepo := roundpostgres.NewRepository(pg.DB, logger)
	roundModule := roundengine.NewModule(roundengine.Dependencies{
		Repo:   roundRepo,
		Outbox: roundRepo,
		Clock:  roundpostgres.SystemClock{},
		IDGen:  roundpostgres.UUIDGenerator{},
		Logger: logger,
	})

	server := httpserver.New(roomModule, roundModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	roomRepo := roompostgres.NewRepository(pg.DB, logger)
	roundRepo := roundpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		roomRelay: roomworkers.OutboxRelay{
			Outbox:    roomRepo,
			Publisher: roomEventPublisher{bus: kafka},
			Clock:     roompostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		roundRelay: roundworkers.OutboxRelay{
			Outbox:    roundRepo,
			Publisher: kafka,
			Clock:     roundpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		roomConsumer: roundworkers.RoomStateConsumer{
			Subscriber:    kafka,
			Dedup:         roundRepo,
			Repo:          roundRepo,
			Clock:         roundpostgres.SystemClock{},
			ConsumerGroup: "round-engine-room-cg",
			DedupTTL:      7 * 24 * time.Hour,
			Disabled:      !cfg.EnableRoomProjectionConsumer,
			Logger:        logger,
		},
		roomRelayEnabled:  cfg.EnableRoomOutboxRelay,
		roundRelayEnabled: cfg.EnableRoundOutboxRelay,
		pollInterval:      2 * time.Second,
		logger:            logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.roomConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.roomRelayEnabled {
			if err := w.roomRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.roundRelayEnabled {
			if err := w.roundRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// roomEventPublisher bridges the room-service envelope type onto the shared
// bus, which is typed to the round-engine's identical wire shape.
type roomEventPublisher struct {
	bus roundports.EventPublisher
}

func (p roomEventPublisher) Publish(ctx context.Context, topic string, event roomports.EventEnvelope) error {
	return p.bus.Publish(ctx, topic, roundports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt,
		SourceService:    event.SourceService,
		TraceID:          event.TraceID,
		SchemaVersion:    event.SchemaVersion,
		PartitionKeyPath: event.PartitionKeyPath,
		PartitionKey:     event.PartitionKey,
		Data:             event.Data,
	})
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
