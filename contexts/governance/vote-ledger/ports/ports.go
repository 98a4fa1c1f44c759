package ports

import (
	"context"
	"time"

	"coopvote/contexts/governance/vote-ledger/domain/entities"
	contractsv1 "coopvote/contracts/gen/events/v1"
)

type VoteRepository interface {
	// InsertVote appends one vote. The storage layer enforces uniqueness on
	// (election_id, user_id, position_id) and returns
	// ErrDuplicatePositionVote when a second vote for the triple arrives,
	// closing the window an application-level check cannot.
	InsertVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	HasVoteForPosition(ctx context.Context, userID string, electionID string, positionID string) (bool, error)
	ListVotes(ctx context.Context, filter VoteFilter) ([]entities.Vote, error)
}

type VoteFilter struct {
	UserID     string
	ElectionID string
	PositionID string
}

// ElectionProjection is a read model over the election service's records.
// Status is re-read at call time; a cached status is never trusted.
type ElectionProjection struct {
	ElectionID    string
	Status        string
	ResultsPublic bool
}

// CandidateProjection resolves a candidate to its owning position/election.
type CandidateProjection struct {
	CandidateID string
	PositionID  string
	ElectionID  string
}

type ProjectionRepository interface {
	GetElection(ctx context.Context, electionID string) (ElectionProjection, error)
	GetCandidate(ctx context.Context, candidateID string) (CandidateProjection, error)
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
