package ports

import (
	"context"
	"time"

	"coopvote/contexts/governance/election-service/domain/entities"
	contractsv1 "coopvote/contracts/gen/events/v1"
)

type ElectionRepository interface {
	SaveElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
	ListSubElections(ctx context.Context, parentElectionID string) ([]entities.Election, error)
	ListOpenElections(ctx context.Context) ([]entities.Election, error)

	// UpdateElectionStatus is the conditional-transition primitive: the status
	// moves to `to` only if it still equals `from`, applied atomically per
	// election record. A failed precondition returns ErrStaleTransition.
	UpdateElectionStatus(
		ctx context.Context,
		electionID string,
		from entities.ElectionStatus,
		to entities.ElectionStatus,
		now time.Time,
	) error
}

type CatalogRepository interface {
	SavePosition(ctx context.Context, position entities.Position) error
	GetPosition(ctx context.Context, positionID string) (entities.Position, error)
	ListPositionsByElection(ctx context.Context, electionID string) ([]entities.Position, error)
	SaveCandidate(ctx context.Context, candidate entities.Candidate) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidatesByPosition(ctx context.Context, positionID string) ([]entities.Candidate, error)
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error)

	// PositionHasVotes is a projection over the vote ledger used to lock
	// position structure once ballots reference it.
	PositionHasVotes(ctx context.Context, positionID string) (bool, error)
}

type HistoryRepository interface {
	AppendState(ctx context.Context, record entities.StateHistory) error
	ListStateHistory(ctx context.Context, electionID string) ([]entities.StateHistory, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
