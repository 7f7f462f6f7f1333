package roomservice

import (
	"log/slog"
	"time"

	httpadapter "pointdeck/contexts/estimation/room-service/adapters/http"
	"pointdeck/contexts/estimation/room-service/adapters/memory"
	"pointdeck/contexts/estimation/room-service/application/commands"
	"pointdeck/contexts/estimation/room-service/application/queries"
	"pointdeck/contexts/estimation/room-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Rooms          ports.RoomRepository
	Participants   ports.ParticipantRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Codes          ports.CodeGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createRoom := commands.CreateRoomUseCase{
		Rooms:          deps.Rooms,
		Participants:   deps.Participants,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGen,
		CodeGenerator:  deps.Codes,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	updateRoom := commands.UpdateRoomUseCase{
		Rooms:        deps.Rooms,
		Participants: deps.Participants,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGen,
		Logger:       deps.Logger,
	}
	joinRoom := commands.JoinRoomUseCase{
		Rooms:        deps.Rooms,
		Participants: deps.Participants,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGen,
		Logger:       deps.Logger,
	}
	roles := commands.ChangeRoleUseCase{
		Rooms:        deps.Rooms,
		Participants: deps.Participants,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGen,
		Logger:       deps.Logger,
	}
	queryUseCase := queries.RoomUseCase{
		Rooms:        deps.Rooms,
		Participants: deps.Participants,
	}
	return Module{
		Handler: httpadapter.Handler{
			CreateRoom: createRoom,
			UpdateRoom: updateRoom,
			JoinRoom:   joinRoom,
			Roles:      roles,
			Queries:    queryUseCase,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Rooms:          store,
		Participants:   store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		Codes:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
