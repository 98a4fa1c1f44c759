package entities

import (
	"strings"
	"time"
)

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusPaused    ElectionStatus = "paused"
	ElectionStatusCompleted ElectionStatus = "completed"
	ElectionStatusCancelled ElectionStatus = "cancelled"
)

type Election struct {
	ElectionID       string
	Title            string
	Description      string
	StartsAt         time.Time
	EndsAt           time.Time
	Status           ElectionStatus
	ResultsPublic    bool
	ParentElectionID string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ActivatedAt      *time.Time
	CompletedAt      *time.Time
}

type Position struct {
	PositionID  string
	ElectionID  string
	Title       string
	Description string
	MaxVotes    int
	Order       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Candidate struct {
	CandidateID string
	PositionID  string
	ElectionID  string
	Name        string
	Description string
	PhotoURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsSubElection reports whether the election is owned by a parent election.
// Sub-elections are excluded from top-level listings.
func (e Election) IsSubElection() bool {
	return strings.TrimSpace(e.ParentElectionID) != ""
}

// CanEditFields reports whether administrator field edits (title, dates,
// descriptions) are still allowed. Status is never edited through this path.
func (e Election) CanEditFields() bool {
	return e.Status != ElectionStatusCompleted && e.Status != ElectionStatusCancelled
}

// CandidatesFrozen reports whether the candidate roster is locked. Candidates
// must be frozen before voting starts and stay frozen afterwards.
func (e Election) CandidatesFrozen() bool {
	switch e.Status {
	case ElectionStatusActive, ElectionStatusCompleted, ElectionStatusCancelled:
		return true
	default:
		return false
	}
}

func (e Election) ValidateBasics() bool {
	title := strings.TrimSpace(e.Title)
	return title != "" &&
		len(title) >= 3 &&
		len(title) <= 200 &&
		!e.StartsAt.IsZero() &&
		!e.EndsAt.IsZero() &&
		e.EndsAt.After(e.StartsAt)
}

func (p Position) ValidateBasics() bool {
	return strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.ElectionID) != "" &&
		p.MaxVotes >= 1
}

func (c Candidate) ValidateBasics() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.PositionID) != ""
}

func IsSupportedElectionStatus(value ElectionStatus) bool {
	switch value {
	case ElectionStatusUpcoming, ElectionStatusActive, ElectionStatusPaused,
		ElectionStatusCompleted, ElectionStatusCancelled:
		return true
	default:
		return false
	}
}
