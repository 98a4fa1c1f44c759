package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"
)

const RoleAdmin = "admin"

type CreateElectionCommand struct {
	ActorID          string
	ActorRole        string
	Title            string
	Description      string
	StartsAt         string
	EndsAt           string
	ResultsPublic    bool
	ParentElectionID string
}

type CreateElectionUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CreateElectionUseCase) Execute(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !isAdmin(cmd.ActorRole) {
		return entities.Election{}, domainerrors.ErrForbidden
	}

	now := uc.Clock.Now().UTC()
	startsAt, err := parseTimestamp(cmd.StartsAt)
	if err != nil {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	endsAt, err := parseTimestamp(cmd.EndsAt)
	if err != nil {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	parentID := strings.TrimSpace(cmd.ParentElectionID)
	if parentID != "" {
		if _, err := uc.Elections.GetElection(ctx, parentID); err != nil {
			return entities.Election{}, err
		}
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	election := entities.Election{
		ElectionID:       electionID,
		Title:            strings.TrimSpace(cmd.Title),
		Description:      strings.TrimSpace(cmd.Description),
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		Status:           entities.ElectionStatusUpcoming,
		ResultsPublic:    cmd.ResultsPublic,
		ParentElectionID: parentID,
		CreatedBy:        strings.TrimSpace(cmd.ActorID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if !election.ValidateBasics() {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", "governance/election-service",
			"layer", "application",
			"actor_id", strings.TrimSpace(cmd.ActorID),
		)
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election created",
		"event", "election_created",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"starts_at", election.StartsAt,
		"ends_at", election.EndsAt,
	)
	return election, nil
}

func isAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
