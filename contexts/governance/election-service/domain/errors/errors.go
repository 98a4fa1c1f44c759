package errors

import "errors"

var (
	ErrInvalidElectionInput   = errors.New("invalid election input")
	ErrElectionNotFound       = errors.New("election not found")
	ErrPositionNotFound       = errors.New("position not found")
	ErrCandidateNotFound      = errors.New("candidate not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrStaleTransition        = errors.New("transition precondition no longer holds")
	ErrElectionNotEditable    = errors.New("election is no longer editable")
	ErrCandidatesFrozen       = errors.New("candidate roster is frozen")
	ErrPositionLocked         = errors.New("position is locked by existing votes")
	ErrForbidden              = errors.New("actor is not allowed to mutate election state")
	ErrStoreUnavailable       = errors.New("election store unavailable")
)
