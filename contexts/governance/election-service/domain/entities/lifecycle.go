package entities

import "time"

// Transition is one edge of the election state machine.
type Transition struct {
	From ElectionStatus
	To   ElectionStatus
}

// StateHistory records one applied transition for the audit trail.
type StateHistory struct {
	HistoryID  string
	ElectionID string
	FromState  ElectionStatus
	ToState    ElectionStatus
	ChangedBy  string
	Automatic  bool
	Reason     string
	CreatedAt  time.Time
}

// DueTransition is the lifecycle engine: given an election's current status
// and schedule, it returns the automatic transition that is due at `now`, if
// any. It is a pure function and proposes at most one step per evaluation.
//
// Paused is deliberately invisible here: an election paused by an
// administrator must never be rediscovered by the auto-activation rule, so
// only an explicit resume command can leave that state.
func DueTransition(status ElectionStatus, startsAt time.Time, endsAt time.Time, now time.Time) (Transition, bool) {
	switch status {
	case ElectionStatusUpcoming:
		if !now.Before(startsAt) {
			return Transition{From: ElectionStatusUpcoming, To: ElectionStatusActive}, true
		}
	case ElectionStatusActive:
		if !endsAt.IsZero() && !now.Before(endsAt) {
			return Transition{From: ElectionStatusActive, To: ElectionStatusCompleted}, true
		}
	}
	return Transition{}, false
}

// IsTerminal reports whether no transition may ever leave the status.
func IsTerminal(status ElectionStatus) bool {
	return status == ElectionStatusCompleted || status == ElectionStatusCancelled
}

// IsAllowedTransition validates an edge against the full transition table,
// covering both automatic and administrator-issued transitions.
func IsAllowedTransition(from ElectionStatus, to ElectionStatus) bool {
	if IsTerminal(from) {
		return false
	}
	switch {
	case from == ElectionStatusUpcoming && to == ElectionStatusActive:
		return true
	case from == ElectionStatusActive && to == ElectionStatusCompleted:
		return true
	case from == ElectionStatusActive && to == ElectionStatusPaused:
		return true
	case from == ElectionStatusPaused && to == ElectionStatusActive:
		return true
	case to == ElectionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsAutomaticTransition reports whether drivers may issue the edge without an
// administrator. Pause, resume and cancel are administrator-only.
func IsAutomaticTransition(from ElectionStatus, to ElectionStatus) bool {
	return (from == ElectionStatusUpcoming && to == ElectionStatusActive) ||
		(from == ElectionStatusActive && to == ElectionStatusCompleted)
}
