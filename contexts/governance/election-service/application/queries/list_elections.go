package queries

import (
	"context"
	"sort"
	"strings"

	"coopvote/contexts/governance/election-service/domain/entities"
	"coopvote/contexts/governance/election-service/ports"
)

type ElectionDetail struct {
	Election   entities.Election
	Positions  []entities.Position
	Candidates []entities.Candidate
	History    []entities.StateHistory
}

type ElectionQueryUseCase struct {
	Elections ports.ElectionRepository
	Catalog   ports.CatalogRepository
	History   ports.HistoryRepository
}

// ListElections returns top-level elections; sub-elections are reachable only
// through their parent.
func (uc ElectionQueryUseCase) ListElections(ctx context.Context) ([]entities.Election, error) {
	elections, err := uc.Elections.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(elections, func(i, j int) bool {
		if elections[i].StartsAt.Equal(elections[j].StartsAt) {
			return elections[i].ElectionID < elections[j].ElectionID
		}
		return elections[i].StartsAt.Before(elections[j].StartsAt)
	})
	return elections, nil
}

func (uc ElectionQueryUseCase) ListSubElections(ctx context.Context, parentElectionID string) ([]entities.Election, error) {
	return uc.Elections.ListSubElections(ctx, strings.TrimSpace(parentElectionID))
}

func (uc ElectionQueryUseCase) GetElection(ctx context.Context, electionID string) (ElectionDetail, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return ElectionDetail{}, err
	}
	positions, err := uc.Catalog.ListPositionsByElection(ctx, election.ElectionID)
	if err != nil {
		return ElectionDetail{}, err
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Order == positions[j].Order {
			return positions[i].PositionID < positions[j].PositionID
		}
		return positions[i].Order < positions[j].Order
	})
	candidates, err := uc.Catalog.ListCandidatesByElection(ctx, election.ElectionID)
	if err != nil {
		return ElectionDetail{}, err
	}
	history, err := uc.History.ListStateHistory(ctx, election.ElectionID)
	if err != nil {
		return ElectionDetail{}, err
	}
	return ElectionDetail{
		Election:   election,
		Positions:  positions,
		Candidates: candidates,
		History:    history,
	}, nil
}
