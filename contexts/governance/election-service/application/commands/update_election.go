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

// UpdateElectionCommand carries administrator field edits. Status is never
// changed through this path; only the transition protocol moves status.
type UpdateElectionCommand struct {
	ElectionID    string
	ActorID       string
	ActorRole     string
	Title         *string
	Description   *string
	StartsAt      *string
	EndsAt        *string
	ResultsPublic *bool
}

type UpdateElectionUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc UpdateElectionUseCase) Execute(ctx context.Context, cmd UpdateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !isAdmin(cmd.ActorRole) {
		return entities.Election{}, domainerrors.ErrForbidden
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Election{}, err
	}

	// resultsPublic stays editable after completion so results can still be
	// published; everything else freezes in terminal states.
	wantsStructuralEdit := cmd.Title != nil || cmd.Description != nil || cmd.StartsAt != nil || cmd.EndsAt != nil
	if wantsStructuralEdit && !election.CanEditFields() {
		return entities.Election{}, domainerrors.ErrElectionNotEditable
	}

	if cmd.Title != nil {
		election.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Description != nil {
		election.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.StartsAt != nil {
		startsAt, err := parseTimestamp(*cmd.StartsAt)
		if err != nil {
			return entities.Election{}, domainerrors.ErrInvalidElectionInput
		}
		election.StartsAt = startsAt
	}
	if cmd.EndsAt != nil {
		endsAt, err := parseTimestamp(*cmd.EndsAt)
		if err != nil {
			return entities.Election{}, domainerrors.ErrInvalidElectionInput
		}
		election.EndsAt = endsAt
	}
	if cmd.ResultsPublic != nil {
		election.ResultsPublic = *cmd.ResultsPublic
	}
	if !election.ValidateBasics() {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	election.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election fields updated",
		"event", "election_fields_updated",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	return election, nil
}
