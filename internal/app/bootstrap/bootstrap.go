package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	electionservice "coopvote/contexts/governance/election-service"
	electionpostgres "coopvote/contexts/governance/election-service/adapters/postgres"
	electionworkers "coopvote/contexts/governance/election-service/application/workers"
	electionentities "coopvote/contexts/governance/election-service/domain/entities"
	voteledger "coopvote/contexts/governance/vote-ledger"
	ledgerpostgres "coopvote/contexts/governance/vote-ledger/adapters/postgres"
	ledgerworkers "coopvote/contexts/governance/vote-ledger/application/workers"
	"coopvote/internal/platform/config"
	"coopvote/internal/platform/db"
	"coopvote/internal/platform/httpserver"
	"coopvote/internal/platform/messaging"
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
	lifecycleDriver   *electionworkers.LifecycleDriver
	electionRelay     electionworkers.OutboxRelay
	ledgerRelay       ledgerworkers.OutboxRelay
	lifecycleInterval time.Duration
	outboxInterval    time.Duration
	driverEnabled     bool
	relayEnabled      bool
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

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	electionModule := electionservice.NewModule(electionservice.Dependencies{
		Elections: electionRepo,
		Catalog:   electionRepo,
		History:   electionRepo,
		Outbox:    electionRepo,
		Clock:     electionpostgres.SystemClock{},
		IDGen:     electionpostgres.UUIDGenerator{},
		Logger:    logger,
	})
	subscribeTransitionAudit(electionModule, logger)

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := voteledger.NewModule(voteledger.Dependencies{
		Votes:       ledgerRepo,
		Projections: ledgerRepo,
		Outbox:      ledgerRepo,
		Clock:       ledgerpostgres.SystemClock{},
		IDGen:       ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	server := httpserver.New(electionModule, ledgerModule, logger, normalizeAddr(cfg.HTTPPort))
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

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	electionModule := electionservice.NewModule(electionservice.Dependencies{
		Elections: electionRepo,
		Catalog:   electionRepo,
		History:   electionRepo,
		Outbox:    electionRepo,
		Clock:     electionpostgres.SystemClock{},
		IDGen:     electionpostgres.UUIDGenerator{},
		Logger:    logger,
	})
	subscribeTransitionAudit(electionModule, logger)

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres:        pg,
		lifecycleDriver: electionModule.Driver,
		electionRelay: electionworkers.OutboxRelay{
			Outbox:    electionRepo,
			Publisher: kafka,
			Clock:     electionpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		ledgerRelay: ledgerworkers.OutboxRelay{
			Outbox:    ledgerRepo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		lifecycleInterval: cfg.LifecyclePollInterval,
		outboxInterval:    cfg.OutboxPollInterval,
		driverEnabled:     cfg.EnableLifecycleDriver,
		relayEnabled:      cfg.EnableOutboxRelay,
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

// Run drives the lifecycle driver and the outbox relays on independent
// tickers. Tick failures are logged and retried on the next tick rather than
// stopping the process; pending outbox rows stay pending until published.
func (w *WorkerApp) Run(ctx context.Context) error {
	lifecycleTicker := time.NewTicker(w.lifecycleInterval)
	defer lifecycleTicker.Stop()
	outboxTicker := time.NewTicker(w.outboxInterval)
	defer outboxTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"lifecycle_interval", w.lifecycleInterval.String(),
		"outbox_interval", w.outboxInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lifecycleTicker.C:
			if w.driverEnabled {
				if err := w.lifecycleDriver.RunOnce(ctx); err != nil {
					w.logger.Error("lifecycle driver tick failed",
						"event", "bootstrap_lifecycle_tick_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"error", err.Error(),
					)
				}
			}
		case <-outboxTicker.C:
			if w.relayEnabled {
				if err := w.electionRelay.RunOnce(ctx); err != nil {
					w.logger.Error("election outbox tick failed",
						"event", "bootstrap_election_outbox_tick_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"error", err.Error(),
					)
				}
				if err := w.ledgerRelay.RunOnce(ctx); err != nil {
					w.logger.Error("ledger outbox tick failed",
						"event", "bootstrap_ledger_outbox_tick_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"error", err.Error(),
					)
				}
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// subscribeTransitionAudit registers the audit hook recording each genuine
// status change. It fires once per transition because only the process that
// won the conditional status update reaches the hook registry.
func subscribeTransitionAudit(module electionservice.Module, logger *slog.Logger) {
	module.Hooks.Subscribe(func(_ context.Context, electionID string, from electionentities.ElectionStatus, to electionentities.ElectionStatus) {
		logger.Info("election transition recorded",
			"event", "election_transition_audit",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"election_id", electionID,
			"from_state", string(from),
			"to_state", string(to),
		)
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
