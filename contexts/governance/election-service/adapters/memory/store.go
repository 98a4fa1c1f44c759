package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter used by tests and local wiring. The status
// compare-and-swap runs under the write lock, which makes competing
// conditional updates to one election linearizable exactly like the
// row-level update in the postgres adapter.
type Store struct {
	mu sync.RWMutex

	elections  map[string]entities.Election
	positions  map[string]entities.Position
	candidates map[string]entities.Candidate
	history    map[string][]entities.StateHistory
	outbox     map[string]outboxRecord

	votedPositions map[string]bool

	now time.Time
}

func NewStore(seed []entities.Election) *Store {
	elections := make(map[string]entities.Election, len(seed))
	for _, election := range seed {
		elections[election.ElectionID] = election
	}
	return &Store{
		elections:      elections,
		positions:      make(map[string]entities.Position),
		candidates:     make(map[string]entities.Candidate),
		history:        make(map[string][]entities.StateHistory),
		outbox:         make(map[string]outboxRecord),
		votedPositions: make(map[string]bool),
	}
}

// SetNow pins the store clock for deterministic tests. Zero means wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

// SetPositionVoted seeds the vote-ledger projection consulted by
// PositionHasVotes.
func (s *Store) SetPositionVoted(positionID string, voted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votedPositions[strings.TrimSpace(positionID)] = voted
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		if election.IsSubElection() {
			continue
		}
		items = append(items, election)
	}
	return items, nil
}

func (s *Store) ListSubElections(_ context.Context, parentElectionID string) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parentElectionID = strings.TrimSpace(parentElectionID)
	items := make([]entities.Election, 0)
	for _, election := range s.elections {
		if election.ParentElectionID == parentElectionID && parentElectionID != "" {
			items = append(items, election)
		}
	}
	return items, nil
}

func (s *Store) ListOpenElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0)
	for _, election := range s.elections {
		if election.Status == entities.ElectionStatusUpcoming || election.Status == entities.ElectionStatusActive {
			items = append(items, election)
		}
	}
	return items, nil
}

func (s *Store) UpdateElectionStatus(
	_ context.Context,
	electionID string,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	now time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if election.Status != from {
		return domainerrors.ErrStaleTransition
	}

	election.Status = to
	election.UpdatedAt = now.UTC()
	switch to {
	case entities.ElectionStatusActive:
		if election.ActivatedAt == nil {
			activatedAt := now.UTC()
			election.ActivatedAt = &activatedAt
		}
	case entities.ElectionStatusCompleted, entities.ElectionStatusCancelled:
		completedAt := now.UTC()
		election.CompletedAt = &completedAt
	}
	s.elections[election.ElectionID] = election
	return nil
}

func (s *Store) SavePosition(_ context.Context, position entities.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[strings.TrimSpace(position.PositionID)] = position
	return nil
}

func (s *Store) GetPosition(_ context.Context, positionID string) (entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions[strings.TrimSpace(positionID)]
	if !ok {
		return entities.Position{}, domainerrors.ErrPositionNotFound
	}
	return position, nil
}

func (s *Store) ListPositionsByElection(_ context.Context, electionID string) ([]entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Position, 0)
	for _, position := range s.positions {
		if position.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, position)
		}
	}
	return items, nil
}

func (s *Store) SaveCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidate.CandidateID)] = candidate
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) ListCandidatesByPosition(_ context.Context, positionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.PositionID == strings.TrimSpace(positionID) {
			items = append(items, candidate)
		}
	}
	return items, nil
}

func (s *Store) ListCandidatesByElection(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, candidate)
		}
	}
	return items, nil
}

func (s *Store) PositionHasVotes(_ context.Context, positionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.votedPositions[strings.TrimSpace(positionID)], nil
}

func (s *Store) AppendState(_ context.Context, record entities.StateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(record.ElectionID)
	s.history[electionID] = append(s.history[electionID], record)
	return nil
}

func (s *Store) ListStateHistory(_ context.Context, electionID string) ([]entities.StateHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.history[strings.TrimSpace(electionID)]
	return append([]entities.StateHistory(nil), records...), nil
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
	payload, err := jsonMarshalEnvelope(envelope)
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

func jsonMarshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.CatalogRepository = (*Store)(nil)
var _ ports.HistoryRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
