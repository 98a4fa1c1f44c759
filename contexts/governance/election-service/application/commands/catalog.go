package commands

import (
	"context"
	"log/slog"
	"strings"

	application "coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"
)

type AddPositionCommand struct {
	ElectionID  string
	ActorRole   string
	Title       string
	Description string
	MaxVotes    int
	Order       int
}

type UpdatePositionCommand struct {
	PositionID  string
	ActorRole   string
	Title       *string
	Description *string
	MaxVotes    *int
	Order       *int
}

type AddCandidateCommand struct {
	PositionID  string
	ActorRole   string
	Name        string
	Description string
	PhotoURL    string
}

// CatalogUseCase manages positions and candidates under an election. The
// roster freezes once voting can start; positions additionally lock their
// structure once any ballot references them, leaving only relabeling open.
type CatalogUseCase struct {
	Elections ports.ElectionRepository
	Catalog   ports.CatalogRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CatalogUseCase) AddPosition(ctx context.Context, cmd AddPositionCommand) (entities.Position, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !isAdmin(cmd.ActorRole) {
		return entities.Position{}, domainerrors.ErrForbidden
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Position{}, err
	}
	if entities.IsTerminal(election.Status) {
		return entities.Position{}, domainerrors.ErrElectionNotEditable
	}

	now := uc.Clock.Now().UTC()
	positionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Position{}, err
	}
	position := entities.Position{
		PositionID:  positionID,
		ElectionID:  election.ElectionID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		MaxVotes:    cmd.MaxVotes,
		Order:       cmd.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if position.MaxVotes == 0 {
		position.MaxVotes = 1
	}
	if !position.ValidateBasics() {
		return entities.Position{}, domainerrors.ErrInvalidElectionInput
	}
	if err := uc.Catalog.SavePosition(ctx, position); err != nil {
		return entities.Position{}, err
	}
	logger.Info("position added",
		"event", "election_position_added",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"position_id", position.PositionID,
	)
	return position, nil
}

func (uc CatalogUseCase) UpdatePosition(ctx context.Context, cmd UpdatePositionCommand) (entities.Position, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !isAdmin(cmd.ActorRole) {
		return entities.Position{}, domainerrors.ErrForbidden
	}

	position, err := uc.Catalog.GetPosition(ctx, strings.TrimSpace(cmd.PositionID))
	if err != nil {
		return entities.Position{}, err
	}

	// Relabeling is always allowed; structural fields lock once any vote
	// references a candidate under this position.
	if cmd.MaxVotes != nil || cmd.Order != nil {
		locked, err := uc.Catalog.PositionHasVotes(ctx, position.PositionID)
		if err != nil {
			return entities.Position{}, err
		}
		if locked {
			return entities.Position{}, domainerrors.ErrPositionLocked
		}
	}

	if cmd.Title != nil {
		position.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Description != nil {
		position.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.MaxVotes != nil {
		position.MaxVotes = *cmd.MaxVotes
	}
	if cmd.Order != nil {
		position.Order = *cmd.Order
	}
	if !position.ValidateBasics() {
		return entities.Position{}, domainerrors.ErrInvalidElectionInput
	}

	position.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Catalog.SavePosition(ctx, position); err != nil {
		return entities.Position{}, err
	}
	logger.Info("position updated",
		"event", "election_position_updated",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", position.ElectionID,
		"position_id", position.PositionID,
	)
	return position, nil
}

func (uc CatalogUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !isAdmin(cmd.ActorRole) {
		return entities.Candidate{}, domainerrors.ErrForbidden
	}

	position, err := uc.Catalog.GetPosition(ctx, strings.TrimSpace(cmd.PositionID))
	if err != nil {
		return entities.Candidate{}, err
	}
	election, err := uc.Elections.GetElection(ctx, position.ElectionID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if election.CandidatesFrozen() {
		return entities.Candidate{}, domainerrors.ErrCandidatesFrozen
	}

	now := uc.Clock.Now().UTC()
	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Candidate{}, err
	}
	candidate := entities.Candidate{
		CandidateID: candidateID,
		PositionID:  position.PositionID,
		ElectionID:  election.ElectionID,
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		PhotoURL:    strings.TrimSpace(cmd.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !candidate.ValidateBasics() {
		return entities.Candidate{}, domainerrors.ErrInvalidElectionInput
	}
	if err := uc.Catalog.SaveCandidate(ctx, candidate); err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate added",
		"event", "election_candidate_added",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"position_id", position.PositionID,
		"candidate_id", candidate.CandidateID,
	)
	return candidate, nil
}
