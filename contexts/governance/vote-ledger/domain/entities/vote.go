package entities

import "time"

// Vote is one member's selection of one candidate. The ledger is append-only:
// votes are never updated or retracted through this service.
type Vote struct {
	VoteID      string
	UserID      string
	ElectionID  string
	PositionID  string
	CandidateID string
	CreatedAt   time.Time
}

// Receipt is the opaque, stable proof-of-submission returned to the voter.
type Receipt struct {
	ReceiptID   string
	ElectionID  string
	PositionID  string
	CandidateID string
	CastAt      time.Time
}

// PositionTally aggregates committed votes per candidate for one position.
type PositionTally struct {
	PositionID string
	Counts     map[string]int
	Total      int
}
