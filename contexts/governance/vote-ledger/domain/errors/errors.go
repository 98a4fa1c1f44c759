package errors

import "errors"

var (
	ErrInvalidVoteInput      = errors.New("invalid vote input")
	ErrVoteNotFound          = errors.New("vote not found")
	ErrElectionNotFound      = errors.New("election not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrElectionNotActive     = errors.New("election is not active")
	ErrDuplicatePositionVote = errors.New("a vote already exists for this position")
	ErrResultsNotPublic      = errors.New("election results are not public")
	ErrStoreUnavailable      = errors.New("vote store unavailable")
)
