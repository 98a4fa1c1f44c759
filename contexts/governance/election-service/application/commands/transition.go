package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"
)

// ApplyTransitionCommand is one conditional transition attempt: move the
// election from the expected prior status to the target status.
type ApplyTransitionCommand struct {
	ElectionID string
	From       entities.ElectionStatus
	To         entities.ElectionStatus
	ActorID    string
	ActorRole  string
	Automatic  bool
	Reason     string
}

// TransitionUseCase applies status transitions through the store's
// compare-and-swap primitive. Any number of uncoordinated drivers may submit
// the same due transition; exactly one attempt wins and only the winning
// branch records history, fires hooks, and emits the outbox event.
type TransitionUseCase struct {
	Elections ports.ElectionRepository
	History   ports.HistoryRepository
	Outbox    ports.OutboxWriter
	Hooks     *application.TransitionHooks
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc TransitionUseCase) Execute(ctx context.Context, cmd ApplyTransitionCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" || !entities.IsSupportedElectionStatus(cmd.From) || !entities.IsSupportedElectionStatus(cmd.To) {
		return domainerrors.ErrInvalidElectionInput
	}
	if !entities.IsAllowedTransition(cmd.From, cmd.To) {
		return domainerrors.ErrInvalidStateTransition
	}
	if cmd.Automatic {
		if !entities.IsAutomaticTransition(cmd.From, cmd.To) {
			return domainerrors.ErrInvalidStateTransition
		}
	} else if !isAdmin(cmd.ActorRole) {
		return domainerrors.ErrForbidden
	}

	now := uc.Clock.Now().UTC()
	if err := uc.Elections.UpdateElectionStatus(ctx, electionID, cmd.From, cmd.To, now); err != nil {
		if errors.Is(err, domainerrors.ErrStaleTransition) {
			// Benign race: another driver already applied this transition.
			logger.Debug("transition lost conditional update",
				"event", "election_transition_stale",
				"module", "governance/election-service",
				"layer", "application",
				"election_id", electionID,
				"from_status", string(cmd.From),
				"to_status", string(cmd.To),
			)
		}
		return err
	}

	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.History.AppendState(ctx, entities.StateHistory{
		HistoryID:  historyID,
		ElectionID: electionID,
		FromState:  cmd.From,
		ToState:    cmd.To,
		ChangedBy:  strings.TrimSpace(cmd.ActorID),
		Automatic:  cmd.Automatic,
		Reason:     strings.TrimSpace(cmd.Reason),
		CreatedAt:  now,
	}); err != nil {
		return err
	}

	if uc.Hooks != nil {
		uc.Hooks.Fire(ctx, electionID, cmd.From, cmd.To)
	}
	if err := uc.appendTransitionEvent(ctx, electionID, cmd, now); err != nil {
		return err
	}

	logger.Info("election state changed",
		"event", "election_state_changed",
		"module", "governance/election-service",
		"layer", "application",
		"election_id", electionID,
		"from_status", string(cmd.From),
		"to_status", string(cmd.To),
		"automatic", cmd.Automatic,
	)
	return nil
}

// Pause moves an active election to paused. The expected prior status is
// always active; a stale result means the election already left that state.
func (uc TransitionUseCase) Pause(ctx context.Context, electionID string, actorID string, actorRole string, reason string) error {
	return uc.Execute(ctx, ApplyTransitionCommand{
		ElectionID: electionID,
		From:       entities.ElectionStatusActive,
		To:         entities.ElectionStatusPaused,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Reason:     reason,
	})
}

// Resume is the only path out of paused; the automatic activation rule never
// touches paused elections.
func (uc TransitionUseCase) Resume(ctx context.Context, electionID string, actorID string, actorRole string, reason string) error {
	return uc.Execute(ctx, ApplyTransitionCommand{
		ElectionID: electionID,
		From:       entities.ElectionStatusPaused,
		To:         entities.ElectionStatusActive,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Reason:     reason,
	})
}

// Cancel moves any non-terminal election to cancelled. The caller supplies
// the status currently displayed to the administrator as the precondition.
func (uc TransitionUseCase) Cancel(ctx context.Context, electionID string, expectedFrom entities.ElectionStatus, actorID string, actorRole string, reason string) error {
	return uc.Execute(ctx, ApplyTransitionCommand{
		ElectionID: electionID,
		From:       expectedFrom,
		To:         entities.ElectionStatusCancelled,
		ActorID:    actorID,
		ActorRole:  actorRole,
		Reason:     reason,
	})
}

func (uc TransitionUseCase) appendTransitionEvent(ctx context.Context, electionID string, cmd ApplyTransitionCommand, occurredAt time.Time) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newElectionEnvelope(eventID, "election.transitioned", electionID, occurredAt, map[string]any{
		"election_id": electionID,
		"from_status": string(cmd.From),
		"to_status":   string(cmd.To),
		"automatic":   cmd.Automatic,
		"changed_by":  strings.TrimSpace(cmd.ActorID),
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
