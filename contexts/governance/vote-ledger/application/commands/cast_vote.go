package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "coopvote/contexts/governance/vote-ledger/application"
	"coopvote/contexts/governance/vote-ledger/domain/entities"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"
)

type CastVoteCommand struct {
	UserID      string
	ElectionID  string
	CandidateID string
}

// CastVoteUseCase commits one ballot. Preconditions run in order: the
// election must currently be active, the candidate must belong to it, and no
// vote may already exist for the member's (election, position) pair. The
// existence check is a latency optimization for the common case; the
// race-proof guarantee is the storage uniqueness constraint behind
// InsertVote. Each position is an independent call; there is no
// multi-position ballot transaction.
type CastVoteUseCase struct {
	Votes       ports.VoteRepository
	Projections ports.ProjectionRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (entities.Receipt, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if userID == "" || electionID == "" || candidateID == "" {
		return entities.Receipt{}, domainerrors.ErrInvalidVoteInput
	}

	election, err := uc.Projections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Receipt{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(election.Status), "active") {
		logger.Warn("vote rejected outside active window",
			"event", "ledger_vote_rejected_inactive",
			"module", "governance/vote-ledger",
			"layer", "application",
			"election_id", electionID,
			"election_status", election.Status,
			"user_id", userID,
		)
		return entities.Receipt{}, domainerrors.ErrElectionNotActive
	}

	candidate, err := uc.Projections.GetCandidate(ctx, candidateID)
	if err != nil {
		return entities.Receipt{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(candidate.ElectionID), electionID) {
		return entities.Receipt{}, domainerrors.ErrCandidateNotFound
	}

	exists, err := uc.Votes.HasVoteForPosition(ctx, userID, electionID, candidate.PositionID)
	if err != nil {
		return entities.Receipt{}, err
	}
	if exists {
		return entities.Receipt{}, domainerrors.ErrDuplicatePositionVote
	}

	now := uc.Clock.Now().UTC()
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Receipt{}, err
	}
	vote := entities.Vote{
		VoteID:      voteID,
		UserID:      userID,
		ElectionID:  electionID,
		PositionID:  candidate.PositionID,
		CandidateID: candidate.CandidateID,
		CreatedAt:   now,
	}
	if err := uc.Votes.InsertVote(ctx, vote); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicatePositionVote) {
			// A concurrent cast for the same position slipped past the
			// existence check; the constraint caught it.
			logger.Info("vote rejected by uniqueness constraint",
				"event", "ledger_vote_duplicate_constraint",
				"module", "governance/vote-ledger",
				"layer", "application",
				"election_id", electionID,
				"position_id", candidate.PositionID,
				"user_id", userID,
			)
		}
		return entities.Receipt{}, err
	}

	if err := uc.appendVoteEvent(ctx, vote, now); err != nil {
		return entities.Receipt{}, err
	}

	logger.Info("vote committed",
		"event", "ledger_vote_committed",
		"module", "governance/vote-ledger",
		"layer", "application",
		"vote_id", vote.VoteID,
		"election_id", vote.ElectionID,
		"position_id", vote.PositionID,
		"candidate_id", vote.CandidateID,
	)
	return entities.Receipt{
		ReceiptID:   vote.VoteID,
		ElectionID:  vote.ElectionID,
		PositionID:  vote.PositionID,
		CandidateID: vote.CandidateID,
		CastAt:      vote.CreatedAt,
	}, nil
}

func (uc CastVoteUseCase) appendVoteEvent(ctx context.Context, vote entities.Vote, occurredAt time.Time) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newLedgerEnvelope(eventID, "vote.cast", vote.ElectionID, occurredAt, map[string]any{
		"vote_id":      vote.VoteID,
		"election_id":  vote.ElectionID,
		"position_id":  vote.PositionID,
		"candidate_id": vote.CandidateID,
		"occurred_at":  occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
