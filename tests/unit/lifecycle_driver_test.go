package unit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	electionservice "coopvote/contexts/governance/election-service"
	"coopvote/contexts/governance/election-service/application"
	"coopvote/contexts/governance/election-service/application/commands"
	"coopvote/contexts/governance/election-service/application/workers"
	"coopvote/contexts/governance/election-service/domain/entities"
)

// newDriverPair builds two lifecycle drivers over one shared store, the way
// two replicated worker processes share one database. Each driver carries its
// own attempted set but the same transition use case wiring.
func newDriverPair(module electionservice.Module, hookCount *atomic.Int64) (*workers.LifecycleDriver, *workers.LifecycleDriver) {
	hooks := &application.TransitionHooks{}
	hooks.Subscribe(func(_ context.Context, _ string, _ entities.ElectionStatus, _ entities.ElectionStatus) {
		hookCount.Add(1)
	})
	transitions := commands.TransitionUseCase{
		Elections: module.Store,
		History:   module.Store,
		Outbox:    module.Store,
		Hooks:     hooks,
		Clock:     module.Store,
		IDGen:     module.Store,
	}
	first := &workers.LifecycleDriver{
		Elections:   module.Store,
		Transitions: transitions,
		Clock:       module.Store,
	}
	second := &workers.LifecycleDriver{
		Elections:   module.Store,
		Transitions: transitions,
		Clock:       module.Store,
	}
	return first, second
}

func seedScheduledElection(t *testing.T, module electionservice.Module, startsAt, endsAt time.Time) entities.Election {
	t.Helper()
	election := entities.Election{
		ElectionID: "election-driver-1",
		Title:      "Driver Sweep Election",
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Status:     entities.ElectionStatusUpcoming,
		CreatedAt:  startsAt.Add(-24 * time.Hour),
		UpdatedAt:  startsAt.Add(-24 * time.Hour),
	}
	if err := module.Store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("seed election failed: %v", err)
	}
	return election
}

func TestRacingDriversActivateExactlyOnce(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	startsAt := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	endsAt := startsAt.Add(7 * 24 * time.Hour)
	election := seedScheduledElection(t, module, startsAt, endsAt)
	module.Store.SetNow(startsAt.Add(time.Minute))

	var hookCount atomic.Int64
	first, second := newDriverPair(module, &hookCount)

	var wg sync.WaitGroup
	for _, driver := range []*workers.LifecycleDriver{first, second} {
		wg.Add(1)
		go func(d *workers.LifecycleDriver) {
			defer wg.Done()
			if err := d.RunOnce(context.Background()); err != nil {
				t.Errorf("driver sweep returned error: %v", err)
			}
		}(driver)
	}
	wg.Wait()

	stored, err := module.Store.GetElection(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.Status != entities.ElectionStatusActive {
		t.Fatalf("expected active election, got %s", stored.Status)
	}
	if got := hookCount.Load(); got != 1 {
		t.Fatalf("expected transition hook to fire exactly once, fired %d times", got)
	}

	history, err := module.Store.ListStateHistory(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected a single history record, got %d", len(history))
	}
}

func TestDriverSkipsAlreadyAttemptedTransition(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	startsAt := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	election := seedScheduledElection(t, module, startsAt, startsAt.Add(7*24*time.Hour))
	module.Store.SetNow(startsAt.Add(time.Minute))

	var hookCount atomic.Int64
	driver, _ := newDriverPair(module, &hookCount)

	if err := driver.RunOnce(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	// Roll the status back behind the driver's back; the attempted set must
	// keep this process from resubmitting the same transition.
	election.Status = entities.ElectionStatusUpcoming
	if err := module.Store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("rollback save failed: %v", err)
	}
	if err := driver.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	if got := hookCount.Load(); got != 1 {
		t.Fatalf("expected one activation from this driver, got %d", got)
	}
}

func TestDriverLeavesPausedElectionAlone(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	startsAt := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	endsAt := startsAt.Add(7 * 24 * time.Hour)
	election := entities.Election{
		ElectionID: "election-paused-1",
		Title:      "Paused Mid Window",
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Status:     entities.ElectionStatusPaused,
		CreatedAt:  startsAt.Add(-24 * time.Hour),
		UpdatedAt:  startsAt.Add(-24 * time.Hour),
	}
	if err := module.Store.SaveElection(context.Background(), election); err != nil {
		t.Fatalf("seed election failed: %v", err)
	}

	var hookCount atomic.Int64
	driver, _ := newDriverPair(module, &hookCount)

	// Sweep inside the window and again past the end of the window; the
	// paused election must survive both untouched.
	for _, now := range []time.Time{startsAt.Add(time.Hour), endsAt.Add(time.Hour)} {
		module.Store.SetNow(now)
		if err := driver.RunOnce(context.Background()); err != nil {
			t.Fatalf("sweep at %s failed: %v", now, err)
		}
	}

	stored, err := module.Store.GetElection(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.Status != entities.ElectionStatusPaused {
		t.Fatalf("paused election was moved to %s", stored.Status)
	}
	if hookCount.Load() != 0 {
		t.Fatalf("no hooks should fire for a paused election")
	}
}

func TestDriverCompletesActiveElectionAtEnd(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	startsAt := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	endsAt := startsAt.Add(7 * 24 * time.Hour)
	election := seedScheduledElection(t, module, startsAt, endsAt)

	var hookCount atomic.Int64
	driver, _ := newDriverPair(module, &hookCount)

	// One step per sweep: activation first, completion on a later sweep.
	module.Store.SetNow(startsAt.Add(time.Minute))
	if err := driver.RunOnce(context.Background()); err != nil {
		t.Fatalf("activation sweep failed: %v", err)
	}
	module.Store.SetNow(endsAt.Add(time.Minute))
	if err := driver.RunOnce(context.Background()); err != nil {
		t.Fatalf("completion sweep failed: %v", err)
	}

	stored, err := module.Store.GetElection(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.Status != entities.ElectionStatusCompleted {
		t.Fatalf("expected completed election, got %s", stored.Status)
	}
	if got := hookCount.Load(); got != 2 {
		t.Fatalf("expected two transitions, hooks fired %d times", got)
	}
}
