package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coopvote/contexts/governance/election-service/domain/entities"
	domainerrors "coopvote/contexts/governance/election-service/domain/errors"
	"coopvote/contexts/governance/election-service/ports"

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

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		// Status is deliberately absent: only UpdateElectionStatus moves it.
		DoUpdates: clause.Assignments(map[string]any{
			"title":          row.Title,
			"description":    row.Description,
			"starts_at":      row.StartsAt,
			"ends_at":        row.EndsAt,
			"results_public": row.ResultsPublic,
			"updated_at":     row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.storeError("election_repo_save_election_failed", create.Error,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.storeError("election_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("parent_election_id IS NULL").
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_elections_failed", err)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListSubElections(ctx context.Context, parentElectionID string) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("parent_election_id = ?", strings.TrimSpace(parentElectionID)).
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_sub_elections_failed", err,
			"parent_election_id", strings.TrimSpace(parentElectionID),
		)
	}
	return toElectionEntities(rows), nil
}

func (r *Repository) ListOpenElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.ElectionStatusUpcoming),
			string(entities.ElectionStatusActive),
		}).
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_open_elections_failed", err)
	}
	return toElectionEntities(rows), nil
}

// UpdateElectionStatus applies the transition as a single conditional UPDATE
// guarded on the expected prior status. Postgres serializes row updates, so
// of any number of racing drivers exactly one sees RowsAffected == 1; the
// rest get ErrStaleTransition.
func (r *Repository) UpdateElectionStatus(
	ctx context.Context,
	electionID string,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	now time.Time,
) error {
	updates := map[string]any{
		"status":     string(to),
		"updated_at": now.UTC(),
	}
	switch to {
	case entities.ElectionStatusActive:
		if from == entities.ElectionStatusUpcoming {
			updates["activated_at"] = now.UTC()
		}
	case entities.ElectionStatusCompleted, entities.ElectionStatusCancelled:
		updates["completed_at"] = now.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&electionModel{}).
		Where("id = ?", strings.TrimSpace(electionID)).
		Where("status = ?", string(from)).
		Updates(updates)
	if result.Error != nil {
		return r.storeError("election_repo_update_status_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
			"from_status", string(from),
			"to_status", string(to),
		)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&electionModel{}).
			Where("id = ?", strings.TrimSpace(electionID)).
			Count(&count).Error; err == nil && count == 0 {
			return domainerrors.ErrElectionNotFound
		}
		return domainerrors.ErrStaleTransition
	}
	return nil
}

func (r *Repository) SavePosition(ctx context.Context, position entities.Position) error {
	row := positionModelFromEntity(position)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":       row.Title,
			"description": row.Description,
			"max_votes":   row.MaxVotes,
			"ordering":    row.Ordering,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.storeError("election_repo_save_position_failed", create.Error,
			"position_id", strings.TrimSpace(position.PositionID),
		)
	}
	return nil
}

func (r *Repository) GetPosition(ctx context.Context, positionID string) (entities.Position, error) {
	var row positionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(positionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Position{}, domainerrors.ErrPositionNotFound
		}
		return entities.Position{}, r.storeError("election_repo_get_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPositionsByElection(ctx context.Context, electionID string) ([]entities.Position, error) {
	var rows []positionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("ordering ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_positions_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Position, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":        row.Name,
			"description": row.Description,
			"photo_url":   row.PhotoURL,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.storeError("election_repo_save_candidate_failed", create.Error,
			"candidate_id", strings.TrimSpace(candidate.CandidateID),
		)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.storeError("election_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidatesByPosition(ctx context.Context, positionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_candidates_by_position_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_candidates_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toCandidateEntities(rows), nil
}

func (r *Repository) PositionHasVotes(ctx context.Context, positionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("votes").
		Where("position_id = ?", strings.TrimSpace(positionID)).
		Count(&count).
		Error
	if err != nil {
		if isUndefinedTable(err) {
			return false, nil
		}
		return false, r.storeError("election_repo_position_has_votes_failed", err,
			"position_id", strings.TrimSpace(positionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) AppendState(ctx context.Context, record entities.StateHistory) error {
	row := stateHistoryModel{
		ID:         strings.TrimSpace(record.HistoryID),
		ElectionID: strings.TrimSpace(record.ElectionID),
		FromState:  string(record.FromState),
		ToState:    string(record.ToState),
		ChangedBy:  strings.TrimSpace(record.ChangedBy),
		Automatic:  record.Automatic,
		Reason:     strings.TrimSpace(record.Reason),
		CreatedAt:  record.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.storeError("election_repo_append_state_failed", err,
			"election_id", row.ElectionID,
		)
	}
	return nil
}

func (r *Repository) ListStateHistory(ctx context.Context, electionID string) ([]entities.StateHistory, error) {
	var rows []stateHistoryModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storeError("election_repo_list_state_history_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.StateHistory, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.StateHistory{
			HistoryID:  row.ID,
			ElectionID: row.ElectionID,
			FromState:  entities.ElectionStatus(row.FromState),
			ToState:    entities.ElectionStatus(row.ToState),
			ChangedBy:  row.ChangedBy,
			Automatic:  row.Automatic,
			Reason:     row.Reason,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.storeError("election_repo_append_outbox_marshal_failed", err,
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
		return r.storeError("election_repo_append_outbox_insert_failed", create.Error,
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
		return nil, r.storeError("election_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.storeError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStaleTransition
	}
	return nil
}

func (r *Repository) storeError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

type electionModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Title            string     `gorm:"column:title"`
	Description      string     `gorm:"column:description"`
	StartsAt         time.Time  `gorm:"column:starts_at"`
	EndsAt           time.Time  `gorm:"column:ends_at"`
	Status           string     `gorm:"column:status"`
	ResultsPublic    bool       `gorm:"column:results_public"`
	ParentElectionID *string    `gorm:"column:parent_election_id"`
	CreatedBy        string     `gorm:"column:created_by"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	ActivatedAt      *time.Time `gorm:"column:activated_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:            strings.TrimSpace(election.ElectionID),
		Title:         strings.TrimSpace(election.Title),
		Description:   strings.TrimSpace(election.Description),
		StartsAt:      election.StartsAt.UTC(),
		EndsAt:        election.EndsAt.UTC(),
		Status:        string(election.Status),
		ResultsPublic: election.ResultsPublic,
		CreatedBy:     strings.TrimSpace(election.CreatedBy),
		CreatedAt:     election.CreatedAt.UTC(),
		UpdatedAt:     election.UpdatedAt.UTC(),
		ActivatedAt:   normalizeOptionalTime(election.ActivatedAt),
		CompletedAt:   normalizeOptionalTime(election.CompletedAt),
	}
	if strings.TrimSpace(election.ParentElectionID) != "" {
		parentID := strings.TrimSpace(election.ParentElectionID)
		row.ParentElectionID = &parentID
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m electionModel) toEntity() entities.Election {
	parentID := ""
	if m.ParentElectionID != nil {
		parentID = strings.TrimSpace(*m.ParentElectionID)
	}
	return entities.Election{
		ElectionID:       m.ID,
		Title:            m.Title,
		Description:      m.Description,
		StartsAt:         m.StartsAt.UTC(),
		EndsAt:           m.EndsAt.UTC(),
		Status:           entities.ElectionStatus(m.Status),
		ResultsPublic:    m.ResultsPublic,
		ParentElectionID: parentID,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
		ActivatedAt:      normalizeOptionalTime(m.ActivatedAt),
		CompletedAt:      normalizeOptionalTime(m.CompletedAt),
	}
}

type positionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ElectionID  string    `gorm:"column:election_id"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	MaxVotes    int       `gorm:"column:max_votes"`
	Ordering    int       `gorm:"column:ordering"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (positionModel) TableName() string {
	return "positions"
}

func positionModelFromEntity(position entities.Position) positionModel {
	row := positionModel{
		ID:          strings.TrimSpace(position.PositionID),
		ElectionID:  strings.TrimSpace(position.ElectionID),
		Title:       strings.TrimSpace(position.Title),
		Description: strings.TrimSpace(position.Description),
		MaxVotes:    position.MaxVotes,
		Ordering:    position.Order,
		CreatedAt:   position.CreatedAt.UTC(),
		UpdatedAt:   position.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m positionModel) toEntity() entities.Position {
	return entities.Position{
		PositionID:  m.ID,
		ElectionID:  m.ElectionID,
		Title:       m.Title,
		Description: m.Description,
		MaxVotes:    m.MaxVotes,
		Order:       m.Ordering,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PositionID  string    `gorm:"column:position_id"`
	ElectionID  string    `gorm:"column:election_id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	PhotoURL    string    `gorm:"column:photo_url"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		ID:          strings.TrimSpace(candidate.CandidateID),
		PositionID:  strings.TrimSpace(candidate.PositionID),
		ElectionID:  strings.TrimSpace(candidate.ElectionID),
		Name:        strings.TrimSpace(candidate.Name),
		Description: strings.TrimSpace(candidate.Description),
		PhotoURL:    strings.TrimSpace(candidate.PhotoURL),
		CreatedAt:   candidate.CreatedAt.UTC(),
		UpdatedAt:   candidate.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		PositionID:  m.PositionID,
		ElectionID:  m.ElectionID,
		Name:        m.Name,
		Description: m.Description,
		PhotoURL:    m.PhotoURL,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type stateHistoryModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id"`
	FromState  string    `gorm:"column:from_state"`
	ToState    string    `gorm:"column:to_state"`
	ChangedBy  string    `gorm:"column:changed_by"`
	Automatic  bool      `gorm:"column:automatic"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (stateHistoryModel) TableName() string {
	return "election_state_history"
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
	return "election_outbox"
}

func toElectionEntities(rows []electionModel) []entities.Election {
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func toCandidateEntities(rows []candidateModel) []entities.Candidate {
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.CatalogRepository = (*Repository)(nil)
var _ ports.HistoryRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
