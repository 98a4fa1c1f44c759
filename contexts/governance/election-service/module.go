package electionservice

import (
	"log/slog"

	httpadapter "coopvote/contexts/governance/election-service/adapters/http"
	"coopvote/contexts/governance/election-service/adapters/memory"
	application "coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/application/commands"
	"coopvote/contexts/governance/election-service/application/queries"
	"coopvote/contexts/governance/election-service/application/workers"
	"coopvote/contexts/governance/election-service/domain/entities"
	"coopvote/contexts/governance/election-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Driver  *workers.LifecycleDriver
	Hooks   *application.TransitionHooks
	Store   *memory.Store
}

type Dependencies struct {
	Elections ports.ElectionRepository
	Catalog   ports.CatalogRepository
	History   ports.HistoryRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	hooks := &application.TransitionHooks{}
	transitions := commands.TransitionUseCase{
		Elections: deps.Elections,
		History:   deps.History,
		Outbox:    deps.Outbox,
		Hooks:     hooks,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	handler := httpadapter.Handler{
		Create: commands.CreateElectionUseCase{
			Elections: deps.Elections,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		Update: commands.UpdateElectionUseCase{
			Elections: deps.Elections,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Catalog: commands.CatalogUseCase{
			Elections: deps.Elections,
			Catalog:   deps.Catalog,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		Transitions: transitions,
		Queries: queries.ElectionQueryUseCase{
			Elections: deps.Elections,
			Catalog:   deps.Catalog,
			History:   deps.History,
		},
		Logger: deps.Logger,
	}
	return Module{
		Handler: handler,
		Driver: &workers.LifecycleDriver{
			Elections:   deps.Elections,
			Transitions: transitions,
			Clock:       deps.Clock,
			Logger:      deps.Logger,
		},
		Hooks: hooks,
	}
}

func NewInMemoryModule(seed []entities.Election, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Elections: store,
		Catalog:   store,
		History:   store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
