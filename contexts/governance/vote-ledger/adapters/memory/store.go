package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"coopvote/contexts/governance/vote-ledger/domain/entities"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory vote ledger. The ballot identity index is checked
// and inserted under one write lock, which gives the same at-most-one
// guarantee as the composite unique index in the postgres adapter.
type Store struct {
	mu sync.RWMutex

	votes      map[string]entities.Vote
	identities map[string]string
	outbox     map[string]outboxRecord

	elections  map[string]ports.ElectionProjection
	candidates map[string]ports.CandidateProjection

	now time.Time
}

func NewStore(seed []entities.Vote) *Store {
	votes := make(map[string]entities.Vote, len(seed))
	identities := make(map[string]string, len(seed))
	for _, vote := range seed {
		votes[vote.VoteID] = vote
		identities[identityKey(vote.UserID, vote.ElectionID, vote.PositionID)] = vote.VoteID
	}
	return &Store{
		votes:      votes,
		identities: identities,
		outbox:     make(map[string]outboxRecord),
		elections:  make(map[string]ports.ElectionProjection),
		candidates: make(map[string]ports.CandidateProjection),
	}
}

// SetNow pins the store clock for deterministic tests. Zero means wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) SetElection(projection ports.ElectionProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(projection.ElectionID)] = ports.ElectionProjection{
		ElectionID:    strings.TrimSpace(projection.ElectionID),
		Status:        strings.TrimSpace(projection.Status),
		ResultsPublic: projection.ResultsPublic,
	}
}

func (s *Store) SetCandidate(projection ports.CandidateProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(projection.CandidateID)] = ports.CandidateProjection{
		CandidateID: strings.TrimSpace(projection.CandidateID),
		PositionID:  strings.TrimSpace(projection.PositionID),
		ElectionID:  strings.TrimSpace(projection.ElectionID),
	}
}

func (s *Store) InsertVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identityKey(vote.UserID, vote.ElectionID, vote.PositionID)
	if _, exists := s.identities[key]; exists {
		return domainerrors.ErrDuplicatePositionVote
	}
	s.identities[key] = vote.VoteID
	s.votes[strings.TrimSpace(vote.VoteID)] = vote
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) HasVoteForPosition(_ context.Context, userID string, electionID string, positionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.identities[identityKey(userID, electionID, positionID)]
	return exists, nil
}

func (s *Store) ListVotes(_ context.Context, filter ports.VoteFilter) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID := strings.TrimSpace(filter.UserID)
	electionID := strings.TrimSpace(filter.ElectionID)
	positionID := strings.TrimSpace(filter.PositionID)

	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if userID != "" && vote.UserID != userID {
			continue
		}
		if electionID != "" && vote.ElectionID != electionID {
			continue
		}
		if positionID != "" && vote.PositionID != positionID {
			continue
		}
		items = append(items, vote)
	}
	return items, nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (ports.ElectionProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projection, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return ports.ElectionProjection{}, domainerrors.ErrElectionNotFound
	}
	return projection, nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (ports.CandidateProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projection, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return ports.CandidateProjection{}, domainerrors.ErrCandidateNotFound
	}
	return projection, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrStoreUnavailable
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.now.IsZero() {
		return s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func identityKey(userID string, electionID string, positionID string) string {
	return strings.TrimSpace(electionID) + "/" + strings.TrimSpace(userID) + "/" + strings.TrimSpace(positionID)
}

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.ProjectionRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
