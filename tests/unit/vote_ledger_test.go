package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	voteledger "coopvote/contexts/governance/vote-ledger"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"
	httptransport "coopvote/contexts/governance/vote-ledger/transport/http"
)

func newLedgerFixture(status string) voteledger.Module {
	module := voteledger.NewInMemoryModule(nil)
	module.Store.SetNow(time.Date(2026, time.May, 3, 12, 0, 0, 0, time.UTC))
	module.Store.SetElection(ports.ElectionProjection{
		ElectionID: "election-1",
		Status:     status,
	})
	module.Store.SetCandidate(ports.CandidateProjection{
		CandidateID: "candidate-chair-1",
		PositionID:  "position-chair",
		ElectionID:  "election-1",
	})
	module.Store.SetCandidate(ports.CandidateProjection{
		CandidateID: "candidate-chair-2",
		PositionID:  "position-chair",
		ElectionID:  "election-1",
	})
	module.Store.SetCandidate(ports.CandidateProjection{
		CandidateID: "candidate-secretary-1",
		PositionID:  "position-secretary",
		ElectionID:  "election-1",
	})
	return module
}

func TestCastVoteIssuesReceipt(t *testing.T) {
	module := newLedgerFixture("active")

	receipt, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-1",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if receipt.ReceiptID == "" {
		t.Fatalf("expected a receipt id")
	}
	if receipt.PositionID != "position-chair" {
		t.Fatalf("expected position resolved from candidate, got %s", receipt.PositionID)
	}

	fetched, err := module.Handler.GetReceiptHandler(context.Background(), receipt.ReceiptID)
	if err != nil {
		t.Fatalf("get receipt failed: %v", err)
	}
	if fetched.CandidateID != "candidate-chair-1" {
		t.Fatalf("receipt lookup returned wrong candidate %s", fetched.CandidateID)
	}
}

func TestCastVoteRejectedOutsideActiveWindow(t *testing.T) {
	for _, status := range []string{"upcoming", "paused", "completed", "cancelled"} {
		module := newLedgerFixture(status)
		_, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
			ElectionID:  "election-1",
			CandidateID: "candidate-chair-1",
		})
		if !errors.Is(err, domainerrors.ErrElectionNotActive) {
			t.Fatalf("status %s: expected election not active, got %v", status, err)
		}
	}
}

func TestCastVoteRejectsForeignCandidate(t *testing.T) {
	module := newLedgerFixture("active")
	module.Store.SetCandidate(ports.CandidateProjection{
		CandidateID: "candidate-other-election",
		PositionID:  "position-x",
		ElectionID:  "election-2",
	})

	_, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-other-election",
	})
	if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found, got %v", err)
	}
}

func TestCastVoteDuplicatePositionRejected(t *testing.T) {
	module := newLedgerFixture("active")

	if _, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-1",
	}); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	// A second ballot for the same position is rejected even when it names a
	// different candidate.
	_, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-2",
	})
	if !errors.Is(err, domainerrors.ErrDuplicatePositionVote) {
		t.Fatalf("expected duplicate position vote, got %v", err)
	}

	votes, err := module.Handler.ListVotesHandler(context.Background(), "member-1", "election-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes.Items) != 1 {
		t.Fatalf("expected a single committed vote, got %d", len(votes.Items))
	}
}

func TestCastVoteConcurrentDuplicateCommitsOne(t *testing.T) {
	module := newLedgerFixture("active")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := module.Handler.CastVoteHandler(context.Background(), "member-race", httptransport.CastVoteRequest{
				ElectionID:  "election-1",
				CandidateID: "candidate-chair-1",
			})
			results[slot] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domainerrors.ErrDuplicatePositionVote) {
			t.Fatalf("unexpected race outcome: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one committed vote, got %d", succeeded)
	}
}

func TestCastVoteSecondPositionAllowed(t *testing.T) {
	module := newLedgerFixture("active")

	if _, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-1",
	}); err != nil {
		t.Fatalf("chair vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-secretary-1",
	}); err != nil {
		t.Fatalf("secretary vote failed: %v", err)
	}

	voted, err := module.Handler.HasVotedHandler(context.Background(), "member-1", "election-1")
	if err != nil {
		t.Fatalf("has voted failed: %v", err)
	}
	if !voted.HasVoted {
		t.Fatalf("expected has_voted to be true")
	}

	votes, err := module.Handler.ListVotesHandler(context.Background(), "member-1", "election-1")
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes.Items) != 2 {
		t.Fatalf("expected two committed votes, got %d", len(votes.Items))
	}
}

func TestResultsVisibilityGate(t *testing.T) {
	module := newLedgerFixture("active")
	if _, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-1",
	}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	if _, err := module.Handler.ResultsHandler(context.Background(), "election-1", "member"); !errors.Is(err, domainerrors.ErrResultsNotPublic) {
		t.Fatalf("expected hidden results for members, got %v", err)
	}

	// Administrators can always see tallies; members only once published.
	adminView, err := module.Handler.ResultsHandler(context.Background(), "election-1", "admin")
	if err != nil {
		t.Fatalf("admin results failed: %v", err)
	}
	if len(adminView.Positions) != 1 || adminView.Positions[0].Total != 1 {
		t.Fatalf("unexpected admin tally: %+v", adminView.Positions)
	}

	module.Store.SetElection(ports.ElectionProjection{
		ElectionID:    "election-1",
		Status:        "completed",
		ResultsPublic: true,
	})
	memberView, err := module.Handler.ResultsHandler(context.Background(), "election-1", "member")
	if err != nil {
		t.Fatalf("published results failed: %v", err)
	}
	if memberView.Positions[0].Counts["candidate-chair-1"] != 1 {
		t.Fatalf("unexpected member tally: %+v", memberView.Positions)
	}
}

func TestLedgerOutboxRecordsCommittedVotes(t *testing.T) {
	module := newLedgerFixture("active")
	if _, err := module.Handler.CastVoteHandler(context.Background(), "member-1", httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		CandidateID: "candidate-chair-1",
	}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending outbox row, got %d", len(pending))
	}
	if pending[0].EventType != "vote.cast" {
		t.Fatalf("unexpected outbox event type %s", pending[0].EventType)
	}
	if pending[0].PartitionKey != "election-1" {
		t.Fatalf("expected partitioning by election, got %s", pending[0].PartitionKey)
	}
}
