package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	application "coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/application/commands"
	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"
)

// LifecycleDriver sweeps open elections and submits any transition the
// lifecycle engine says is due. Drivers are replicated and mutually unaware;
// correctness comes entirely from the conditional update at the store, so a
// lost race is absorbed silently rather than retried.
type LifecycleDriver struct {
	Elections   ports.ElectionRepository
	Transitions commands.TransitionUseCase
	Clock       ports.Clock
	Logger      *slog.Logger

	// attempted is a per-driver optimization to avoid resubmitting a
	// transition this process already issued. It is not a correctness
	// mechanism; entries are dropped again when the store was unreachable so
	// the next tick retries.
	mu        sync.Mutex
	attempted map[string]struct{}
}

func (d *LifecycleDriver) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(d.Logger)
	now := time.Now().UTC()
	if d.Clock != nil {
		now = d.Clock.Now().UTC()
	}

	elections, err := d.Elections.ListOpenElections(ctx)
	if err != nil {
		logger.Error("lifecycle sweep list failed",
			"event", "election_lifecycle_sweep_list_failed",
			"module", "governance/election-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	applied := 0
	for _, election := range elections {
		transition, due := entities.DueTransition(election.Status, election.StartsAt, election.EndsAt, now)
		if !due {
			continue
		}
		key := election.ElectionID + ":" + string(transition.To)
		if !d.markAttempted(key) {
			continue
		}

		err := d.Transitions.Execute(ctx, commands.ApplyTransitionCommand{
			ElectionID: election.ElectionID,
			From:       transition.From,
			To:         transition.To,
			Automatic:  true,
		})
		switch {
		case err == nil:
			applied++
		case errors.Is(err, domainerrors.ErrStaleTransition):
			// Another driver won; the attempted entry stays so this
			// process stops resubmitting.
		default:
			d.clearAttempted(key)
			logger.Error("lifecycle transition attempt failed",
				"event", "election_lifecycle_transition_failed",
				"module", "governance/election-service",
				"layer", "worker",
				"election_id", election.ElectionID,
				"from_status", string(transition.From),
				"to_status", string(transition.To),
				"error", err.Error(),
			)
		}
	}

	if applied > 0 {
		logger.Info("lifecycle sweep completed",
			"event", "election_lifecycle_sweep_completed",
			"module", "governance/election-service",
			"layer", "worker",
			"applied_count", applied,
		)
	}
	return nil
}

func (d *LifecycleDriver) markAttempted(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attempted == nil {
		d.attempted = make(map[string]struct{})
	}
	if _, seen := d.attempted[key]; seen {
		return false
	}
	d.attempted[key] = struct{}{}
	return true
}

func (d *LifecycleDriver) clearAttempted(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attempted, key)
}
