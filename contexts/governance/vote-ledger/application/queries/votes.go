package queries

import (
	"context"
	"sort"
	"strings"

	"coopvote/contexts/governance/vote-ledger/domain/entities"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"
)

type VoteQueryUseCase struct {
	Votes       ports.VoteRepository
	Projections ports.ProjectionRepository
}

// ListVotes returns committed votes filtered by user and/or election. It
// feeds reporting and the hasVoted derivation; it is never a casting gate.
func (uc VoteQueryUseCase) ListVotes(ctx context.Context, userID string, electionID string) ([]entities.Vote, error) {
	votes, err := uc.Votes.ListVotes(ctx, ports.VoteFilter{
		UserID:     strings.TrimSpace(userID),
		ElectionID: strings.TrimSpace(electionID),
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(votes, func(i, j int) bool {
		if votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].VoteID < votes[j].VoteID
		}
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes, nil
}

// HasVoted reports whether any vote exists for the user in the election.
func (uc VoteQueryUseCase) HasVoted(ctx context.Context, userID string, electionID string) (bool, error) {
	votes, err := uc.Votes.ListVotes(ctx, ports.VoteFilter{
		UserID:     strings.TrimSpace(userID),
		ElectionID: strings.TrimSpace(electionID),
	})
	if err != nil {
		return false, err
	}
	return len(votes) > 0, nil
}

// GetReceipt resolves a previously issued receipt back to its vote record.
func (uc VoteQueryUseCase) GetReceipt(ctx context.Context, voteID string) (entities.Receipt, error) {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return entities.Receipt{}, err
	}
	return entities.Receipt{
		ReceiptID:   vote.VoteID,
		ElectionID:  vote.ElectionID,
		PositionID:  vote.PositionID,
		CandidateID: vote.CandidateID,
		CastAt:      vote.CreatedAt,
	}, nil
}

// Results tallies committed votes per position. Non-administrators only see
// tallies once the election's results are public.
func (uc VoteQueryUseCase) Results(ctx context.Context, electionID string, actorRole string) ([]entities.PositionTally, error) {
	election, err := uc.Projections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return nil, err
	}
	if !election.ResultsPublic && !strings.EqualFold(strings.TrimSpace(actorRole), "admin") {
		return nil, domainerrors.ErrResultsNotPublic
	}

	votes, err := uc.Votes.ListVotes(ctx, ports.VoteFilter{ElectionID: strings.TrimSpace(electionID)})
	if err != nil {
		return nil, err
	}

	byPosition := make(map[string]*entities.PositionTally)
	for _, vote := range votes {
		tally, ok := byPosition[vote.PositionID]
		if !ok {
			tally = &entities.PositionTally{
				PositionID: vote.PositionID,
				Counts:     make(map[string]int),
			}
			byPosition[vote.PositionID] = tally
		}
		tally.Counts[vote.CandidateID]++
		tally.Total++
	}

	tallies := make([]entities.PositionTally, 0, len(byPosition))
	for _, tally := range byPosition {
		tallies = append(tallies, *tally)
	}
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].PositionID < tallies[j].PositionID
	})
	return tallies, nil
}
