package roundengine

import (
	"log/slog"

	httpadapter "pointdeck/contexts/estimation/round-engine/adapters/http"
	"pointdeck/contexts/estimation/round-engine/adapters/memory"
	"pointdeck/contexts/estimation/round-engine/application/commands"
	"pointdeck/contexts/estimation/round-engine/application/ledger"
	"pointdeck/contexts/estimation/round-engine/application/queries"
	"pointdeck/contexts/estimation/round-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Rounds  commands.RoundUseCase
	Queries queries.RoundUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Repository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	voteLedger := ledger.Ledger{
		Repo:  deps.Repo,
		Clock: deps.Clock,
		IDGen: deps.IDGen,
	}
	roundUseCase := commands.RoundUseCase{
		Repo:   deps.Repo,
		Ledger: voteLedger,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Locks:  commands.NewStoryLocks(),
		Logger: deps.Logger,
	}
	queryUseCase := queries.RoundUseCase{
		Repo:   deps.Repo,
		Ledger: voteLedger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Rounds:  roundUseCase,
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Rounds:  roundUseCase,
		Queries: queryUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
