package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coopvote/contexts/governance/vote-ledger/domain/entities"
	domainerrors "coopvote/contexts/governance/vote-ledger/domain/errors"
	"coopvote/contexts/governance/vote-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InsertVote is a plain INSERT with no conflict clause: the composite unique
// index on (election_id, user_id, position_id) is the invariant, and a 23505
// from the second of two racing casts maps to the duplicate sentinel.
func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicatePositionVote
		}
		return r.storeError("ledger_repo_insert_vote_failed", err,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"election_id", strings.TrimSpace(vote.ElectionID),
			"position_id", strings.TrimSpace(vote.PositionID),
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.storeError("ledger_repo_get_vote_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) HasVoteForPosition(
	ctx context.Context,
	userID string,
	electionID string,
	positionID string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.storeError("ledger_repo_has_vote_failed", err,
			"user_id", strings.TrimSpace(userID),
			"election_id", strings.TrimSpace(electionID),
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) ListVotes(ctx context.Context, filter ports.VoteFilter) ([]entities.Vote, error) {
	tx := r.db.WithContext(ctx).Model(&voteModel{})
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}
	if electionID := strings.TrimSpace(filter.ElectionID); electionID != "" {
		tx = tx.Where("election_id = ?", electionID)
	}
	if positionID := strings.TrimSpace(filter.PositionID); positionID != "" {
		tx = tx.Where("position_id = ?", positionID)
	}
	var rows []voteModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.storeError("ledger_repo_list_votes_failed", err)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (ports.ElectionProjection, error) {
	var row electionProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ElectionProjection{}, domainerrors.ErrElectionNotFound
		}
		return ports.ElectionProjection{}, r.storeError("ledger_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return ports.ElectionProjection{
		ElectionID:    row.ID,
		Status:        row.Status,
		ResultsPublic: row.ResultsPublic,
	}, nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (ports.CandidateProjection, error) {
	var row candidateProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CandidateProjection{}, domainerrors.ErrCandidateNotFound
		}
		return ports.CandidateProjection{}, r.storeError("ledger_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return ports.CandidateProjection{
		CandidateID: row.ID,
		PositionID:  row.PositionID,
		ElectionID:  row.ElectionID,
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.storeError("ledger_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.storeError("ledger_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.storeError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.storeError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreUnavailable
	}
	return nil
}

func (r *Repository) storeError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/vote-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote ledger repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

type voteModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;uniqueIndex:idx_votes_ballot_identity"`
	ElectionID  string    `gorm:"column:election_id;uniqueIndex:idx_votes_ballot_identity"`
	PositionID  string    `gorm:"column:position_id;uniqueIndex:idx_votes_ballot_identity"`
	CandidateID string    `gorm:"column:candidate_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:          strings.TrimSpace(vote.VoteID),
		UserID:      strings.TrimSpace(vote.UserID),
		ElectionID:  strings.TrimSpace(vote.ElectionID),
		PositionID:  strings.TrimSpace(vote.PositionID),
		CandidateID: strings.TrimSpace(vote.CandidateID),
		CreatedAt:   vote.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:      m.ID,
		UserID:      m.UserID,
		ElectionID:  m.ElectionID,
		PositionID:  m.PositionID,
		CandidateID: m.CandidateID,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type electionProjectionModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	Status        string `gorm:"column:status"`
	ResultsPublic bool   `gorm:"column:results_public"`
}

func (electionProjectionModel) TableName() string {
	return "elections"
}

type candidateProjectionModel struct {
	ID         string `gorm:"column:id;primaryKey"`
	PositionID string `gorm:"column:position_id"`
	ElectionID string `gorm:"column:election_id"`
}

func (candidateProjectionModel) TableName() string {
	return "candidates"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ledger_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ProjectionRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
