package voteledger

import (
	"log/slog"

	httpadapter "coopvote/contexts/governance/vote-ledger/adapters/http"
	"coopvote/contexts/governance/vote-ledger/adapters/memory"
	"coopvote/contexts/governance/vote-ledger/application/commands"
	"coopvote/contexts/governance/vote-ledger/application/queries"
	"coopvote/contexts/governance/vote-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Votes       ports.VoteRepository
	Projections ports.ProjectionRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	handler := httpadapter.Handler{
		Cast: commands.CastVoteUseCase{
			Votes:       deps.Votes,
			Projections: deps.Projections,
			Outbox:      deps.Outbox,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			Logger:      deps.Logger,
		},
		Queries: queries.VoteQueryUseCase{
			Votes:       deps.Votes,
			Projections: deps.Projections,
		},
		Logger: deps.Logger,
	}
	return Module{Handler: handler}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{
		Votes:       store,
		Projections: store,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
