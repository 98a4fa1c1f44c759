package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	electionservice "coopvote/contexts/governance/election-service"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	httptransport "coopvote/contexts/governance/election-service/transport/http"
)

func TestElectionCreateRequiresAdmin(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	req := httptransport.CreateElectionRequest{
		Title:       "Board Election 2026",
		Description: "Annual board of directors",
		StartsAt:    "2026-05-01T09:00:00Z",
		EndsAt:      "2026-05-08T09:00:00Z",
	}

	if _, err := module.Handler.CreateElectionHandler(context.Background(), "member-1", "member", req); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	created, err := module.Handler.CreateElectionHandler(context.Background(), "admin-1", "admin", req)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	if created.Status != "upcoming" {
		t.Fatalf("expected new election to be upcoming, got %s", created.Status)
	}
}

func TestElectionCreateRejectsInvalidSchedule(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	_, err := module.Handler.CreateElectionHandler(context.Background(), "admin-1", "admin", httptransport.CreateElectionRequest{
		Title:       "Backwards Window",
		Description: "ends before it starts",
		StartsAt:    "2026-05-08T09:00:00Z",
		EndsAt:      "2026-05-01T09:00:00Z",
	})
	if !errors.Is(err, domainerrors.ErrInvalidElectionInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestElectionUpdateBlockedInTerminalState(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "Completed Edits", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")
	mustTransition(t, module, created.ElectionID, "upcoming", "active")
	mustTransition(t, module, created.ElectionID, "active", "completed")

	newTitle := "Renamed After Close"
	if _, err := module.Handler.UpdateElectionHandler(context.Background(), created.ElectionID, "admin-1", "admin", httptransport.UpdateElectionRequest{
		Title: &newTitle,
	}); !errors.Is(err, domainerrors.ErrElectionNotEditable) {
		t.Fatalf("expected not editable in completed state, got %v", err)
	}

	// Publishing results stays allowed after completion.
	public := true
	updated, err := module.Handler.UpdateElectionHandler(context.Background(), created.ElectionID, "admin-1", "admin", httptransport.UpdateElectionRequest{
		ResultsPublic: &public,
	})
	if err != nil {
		t.Fatalf("results_public update failed: %v", err)
	}
	if !updated.ResultsPublic {
		t.Fatalf("expected results_public to be true")
	}
}

func TestElectionManualTransitionRules(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "Transition Rules", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")

	// Pause always expects the active status, so pausing an upcoming
	// election loses the conditional update.
	err := module.Handler.PauseHandler(context.Background(), created.ElectionID, "admin-1", "admin", "maintenance")
	if !errors.Is(err, domainerrors.ErrStaleTransition) {
		t.Fatalf("expected stale transition pausing upcoming election, got %v", err)
	}

	mustTransition(t, module, created.ElectionID, "upcoming", "active")
	if err := module.Handler.PauseHandler(context.Background(), created.ElectionID, "admin-1", "admin", "ballot dispute"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := module.Handler.ResumeHandler(context.Background(), created.ElectionID, "admin-1", "admin", "dispute resolved"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	// Members cannot drive the state machine.
	err = module.Handler.PauseHandler(context.Background(), created.ElectionID, "member-1", "member", "")
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for member pause, got %v", err)
	}
}

func TestElectionStaleTransitionSurfacesConflict(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "Stale Admin View", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")
	mustTransition(t, module, created.ElectionID, "upcoming", "active")

	// An administrator acting on a stale snapshot loses the conditional
	// update and gets a conflict instead of clobbering the newer status.
	err := module.Handler.TransitionHandler(context.Background(), created.ElectionID, "admin-2", "admin", httptransport.TransitionRequest{
		ExpectedFrom: "upcoming",
		To:           "active",
	})
	if !errors.Is(err, domainerrors.ErrStaleTransition) {
		t.Fatalf("expected stale transition, got %v", err)
	}
}

func TestElectionCancelFromAnyNonTerminalState(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "Cancelled Run", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")
	if err := module.Handler.CancelHandler(context.Background(), created.ElectionID, "admin-1", "admin", httptransport.CancelRequest{
		ExpectedFrom: "upcoming",
		Reason:       "no quorum",
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Terminal states stay terminal.
	err := module.Handler.TransitionHandler(context.Background(), created.ElectionID, "admin-1", "admin", httptransport.TransitionRequest{
		ExpectedFrom: "cancelled",
		To:           "active",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition out of cancelled, got %v", err)
	}
}

func TestElectionCatalogFreezeRules(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "Catalog Rules", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")

	position, err := module.Handler.CreatePositionHandler(context.Background(), created.ElectionID, "admin", httptransport.CreatePositionRequest{
		Title:    "Treasurer",
		MaxVotes: 1,
		Order:    1,
	})
	if err != nil {
		t.Fatalf("create position failed: %v", err)
	}
	if _, err := module.Handler.CreateCandidateHandler(context.Background(), position.PositionID, "admin", httptransport.CreateCandidateRequest{
		Name: "Dana Okafor",
	}); err != nil {
		t.Fatalf("create candidate failed: %v", err)
	}

	mustTransition(t, module, created.ElectionID, "upcoming", "active")

	// The roster is frozen once voting starts.
	if _, err := module.Handler.CreateCandidateHandler(context.Background(), position.PositionID, "admin", httptransport.CreateCandidateRequest{
		Name: "Late Entry",
	}); !errors.Is(err, domainerrors.ErrCandidatesFrozen) {
		t.Fatalf("expected frozen roster, got %v", err)
	}

	// Relabeling stays allowed, voting rules freeze once votes exist.
	module.Store.SetPositionVoted(position.PositionID, true)
	newTitle := "Treasurer / Finance Lead"
	if _, err := module.Handler.UpdatePositionHandler(context.Background(), position.PositionID, "admin", httptransport.UpdatePositionRequest{
		Title: &newTitle,
	}); err != nil {
		t.Fatalf("relabel position failed: %v", err)
	}
	maxVotes := 2
	if _, err := module.Handler.UpdatePositionHandler(context.Background(), position.PositionID, "admin", httptransport.UpdatePositionRequest{
		MaxVotes: &maxVotes,
	}); !errors.Is(err, domainerrors.ErrPositionLocked) {
		t.Fatalf("expected locked voting rules, got %v", err)
	}
}

func TestElectionHistoryRecordsTransitions(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	created := mustCreateElection(t, module, "History Trail", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")
	mustTransition(t, module, created.ElectionID, "upcoming", "active")
	mustTransition(t, module, created.ElectionID, "active", "completed")

	detail, err := module.Handler.GetElectionHandler(context.Background(), created.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if len(detail.History) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(detail.History))
	}
	if detail.History[0].FromState != "upcoming" || detail.History[0].ToState != "active" {
		t.Fatalf("unexpected first history record: %+v", detail.History[0])
	}
	if detail.Election.Status != "completed" {
		t.Fatalf("expected completed election, got %s", detail.Election.Status)
	}
}

func TestElectionSubElectionListing(t *testing.T) {
	module := electionservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC))

	parent := mustCreateElection(t, module, "Parent Ballot", "2026-05-01T09:00:00Z", "2026-05-08T09:00:00Z")
	_, err := module.Handler.CreateElectionHandler(context.Background(), "admin-1", "admin", httptransport.CreateElectionRequest{
		Title:            "Regional Runoff",
		Description:      "chapter level runoff",
		StartsAt:         "2026-05-02T09:00:00Z",
		EndsAt:           "2026-05-06T09:00:00Z",
		ParentElectionID: parent.ElectionID,
	})
	if err != nil {
		t.Fatalf("create sub-election failed: %v", err)
	}

	top, err := module.Handler.ListElectionsHandler(context.Background())
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	for _, item := range top.Items {
		if item.ParentElectionID != "" {
			t.Fatalf("top-level listing leaked sub-election %s", item.ElectionID)
		}
	}

	subs, err := module.Handler.ListSubElectionsHandler(context.Background(), parent.ElectionID)
	if err != nil {
		t.Fatalf("list sub-elections failed: %v", err)
	}
	if len(subs.Items) != 1 {
		t.Fatalf("expected 1 sub-election, got %d", len(subs.Items))
	}
}

func mustCreateElection(t *testing.T, module electionservice.Module, title string, startsAt string, endsAt string) httptransport.ElectionResponse {
	t.Helper()
	created, err := module.Handler.CreateElectionHandler(context.Background(), "admin-1", "admin", httptransport.CreateElectionRequest{
		Title:       title,
		Description: "test election",
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	return created
}

func mustTransition(t *testing.T, module electionservice.Module, electionID string, from string, to string) {
	t.Helper()
	if err := module.Handler.TransitionHandler(context.Background(), electionID, "admin-1", "admin", httptransport.TransitionRequest{
		ExpectedFrom: from,
		To:           to,
	}); err != nil {
		t.Fatalf("transition %s->%s failed: %v", from, to, err)
	}
}
