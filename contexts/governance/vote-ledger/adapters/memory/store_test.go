package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"coopvote/contexts/governance/vote-ledger/domain/entities"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"
)

func TestInsertVoteEnforcesBallotIdentity(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, time.May, 3, 12, 0, 0, 0, time.UTC)

	first := entities.Vote{
		VoteID:      "vote-1",
		UserID:      "member-1",
		ElectionID:  "election-1",
		PositionID:  "position-chair",
		CandidateID: "candidate-a",
		CreatedAt:   now,
	}
	if err := store.InsertVote(context.Background(), first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	duplicate := entities.Vote{
		VoteID:      "vote-2",
		UserID:      "member-1",
		ElectionID:  "election-1",
		PositionID:  "position-chair",
		CandidateID: "candidate-b",
		CreatedAt:   now.Add(time.Second),
	}
	if err := store.InsertVote(context.Background(), duplicate); !errors.Is(err, domainerrors.ErrDuplicatePositionVote) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	other := entities.Vote{
		VoteID:      "vote-3",
		UserID:      "member-1",
		ElectionID:  "election-1",
		PositionID:  "position-secretary",
		CandidateID: "candidate-c",
		CreatedAt:   now.Add(2 * time.Second),
	}
	if err := store.InsertVote(context.Background(), other); err != nil {
		t.Fatalf("second position insert failed: %v", err)
	}

	votes, err := store.ListVotes(context.Background(), ports.VoteFilter{UserID: "member-1"})
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 committed votes, got %d", len(votes))
	}
}

func TestHasVoteForPositionScopesByTriple(t *testing.T) {
	store := NewStore([]entities.Vote{{
		VoteID:      "vote-1",
		UserID:      "member-1",
		ElectionID:  "election-1",
		PositionID:  "position-chair",
		CandidateID: "candidate-a",
	}})

	cases := []struct {
		userID     string
		electionID string
		positionID string
		want       bool
	}{
		{"member-1", "election-1", "position-chair", true},
		{"member-2", "election-1", "position-chair", false},
		{"member-1", "election-2", "position-chair", false},
		{"member-1", "election-1", "position-secretary", false},
	}
	for _, tc := range cases {
		got, err := store.HasVoteForPosition(context.Background(), tc.userID, tc.electionID, tc.positionID)
		if err != nil {
			t.Fatalf("has vote failed: %v", err)
		}
		if got != tc.want {
			t.Fatalf("(%s,%s,%s): expected %v, got %v", tc.userID, tc.electionID, tc.positionID, tc.want, got)
		}
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, time.May, 3, 12, 0, 0, 0, time.UTC)
	store.SetNow(now)

	envelope := ports.EventEnvelope{
		EventID:      "event-1",
		EventType:    "vote.cast",
		OccurredAt:   now,
		PartitionKey: "election-1",
	}
	if err := store.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "event-1" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}

	if err := store.MarkOutboxPublished(context.Background(), "event-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("second list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after publish, got %d rows", len(pending))
	}
}
