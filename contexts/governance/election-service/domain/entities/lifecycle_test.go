package entities

import (
	"testing"
	"time"
)

var (
	sweepStart = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	sweepEnd   = time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)
)

func TestDueTransitionActivatesAtStart(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		due  bool
	}{
		{name: "before start", now: sweepStart.Add(-time.Minute), due: false},
		{name: "exactly at start", now: sweepStart, due: true},
		{name: "after start", now: sweepStart.Add(time.Hour), due: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transition, due := DueTransition(ElectionStatusUpcoming, sweepStart, sweepEnd, tc.now)
			if due != tc.due {
				t.Fatalf("expected due=%v, got %v", tc.due, due)
			}
			if due && (transition.From != ElectionStatusUpcoming || transition.To != ElectionStatusActive) {
				t.Fatalf("expected upcoming->active, got %s->%s", transition.From, transition.To)
			}
		})
	}
}

func TestDueTransitionCompletesAtEnd(t *testing.T) {
	transition, due := DueTransition(ElectionStatusActive, sweepStart, sweepEnd, sweepEnd)
	if !due {
		t.Fatalf("expected completion due at end time")
	}
	if transition.From != ElectionStatusActive || transition.To != ElectionStatusCompleted {
		t.Fatalf("expected active->completed, got %s->%s", transition.From, transition.To)
	}

	if _, due := DueTransition(ElectionStatusActive, sweepStart, sweepEnd, sweepEnd.Add(-time.Second)); due {
		t.Fatalf("expected no transition before end time")
	}
}

func TestDueTransitionIgnoresOpenEndedActiveElection(t *testing.T) {
	if _, due := DueTransition(ElectionStatusActive, sweepStart, time.Time{}, sweepEnd.Add(24*time.Hour)); due {
		t.Fatalf("election without end time must never auto-complete")
	}
}

func TestDueTransitionNeverLeavesPaused(t *testing.T) {
	// A paused election inside its scheduled window must stay paused until an
	// administrator resumes it.
	if _, due := DueTransition(ElectionStatusPaused, sweepStart, sweepEnd, sweepStart.Add(time.Hour)); due {
		t.Fatalf("paused election must not be auto-activated")
	}
}

func TestDueTransitionIgnoresTerminalStates(t *testing.T) {
	for _, status := range []ElectionStatus{ElectionStatusCompleted, ElectionStatusCancelled} {
		if _, due := DueTransition(status, sweepStart, sweepEnd, sweepEnd.Add(time.Hour)); due {
			t.Fatalf("terminal status %s must not produce transitions", status)
		}
	}
}

func TestDueTransitionProposesOneStepPerEvaluation(t *testing.T) {
	// An upcoming election whose whole window already elapsed still steps to
	// active first; completion needs a second evaluation.
	transition, due := DueTransition(ElectionStatusUpcoming, sweepStart, sweepEnd, sweepEnd.Add(time.Hour))
	if !due || transition.To != ElectionStatusActive {
		t.Fatalf("expected single step to active, got %v due=%v", transition, due)
	}
}

func TestIsAllowedTransitionTable(t *testing.T) {
	allowed := []Transition{
		{From: ElectionStatusUpcoming, To: ElectionStatusActive},
		{From: ElectionStatusActive, To: ElectionStatusCompleted},
		{From: ElectionStatusActive, To: ElectionStatusPaused},
		{From: ElectionStatusPaused, To: ElectionStatusActive},
		{From: ElectionStatusUpcoming, To: ElectionStatusCancelled},
		{From: ElectionStatusActive, To: ElectionStatusCancelled},
		{From: ElectionStatusPaused, To: ElectionStatusCancelled},
	}
	for _, edge := range allowed {
		if !IsAllowedTransition(edge.From, edge.To) {
			t.Fatalf("expected %s->%s to be allowed", edge.From, edge.To)
		}
	}

	forbidden := []Transition{
		{From: ElectionStatusUpcoming, To: ElectionStatusPaused},
		{From: ElectionStatusUpcoming, To: ElectionStatusCompleted},
		{From: ElectionStatusPaused, To: ElectionStatusCompleted},
		{From: ElectionStatusCompleted, To: ElectionStatusActive},
		{From: ElectionStatusCompleted, To: ElectionStatusCancelled},
		{From: ElectionStatusCancelled, To: ElectionStatusUpcoming},
		{From: ElectionStatusCancelled, To: ElectionStatusCancelled},
	}
	for _, edge := range forbidden {
		if IsAllowedTransition(edge.From, edge.To) {
			t.Fatalf("expected %s->%s to be forbidden", edge.From, edge.To)
		}
	}
}

func TestIsAutomaticTransition(t *testing.T) {
	if !IsAutomaticTransition(ElectionStatusUpcoming, ElectionStatusActive) {
		t.Fatalf("activation must be automatic")
	}
	if !IsAutomaticTransition(ElectionStatusActive, ElectionStatusCompleted) {
		t.Fatalf("completion must be automatic")
	}
	if IsAutomaticTransition(ElectionStatusActive, ElectionStatusPaused) {
		t.Fatalf("pause is administrator-only")
	}
	if IsAutomaticTransition(ElectionStatusPaused, ElectionStatusActive) {
		t.Fatalf("resume is administrator-only")
	}
	if IsAutomaticTransition(ElectionStatusActive, ElectionStatusCancelled) {
		t.Fatalf("cancel is administrator-only")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []ElectionStatus{ElectionStatusUpcoming, ElectionStatusActive, ElectionStatusPaused} {
		if IsTerminal(status) {
			t.Fatalf("%s must not be terminal", status)
		}
	}
	for _, status := range []ElectionStatus{ElectionStatusCompleted, ElectionStatusCancelled} {
		if !IsTerminal(status) {
			t.Fatalf("%s must be terminal", status)
		}
	}
}
