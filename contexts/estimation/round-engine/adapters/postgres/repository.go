package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pointdeck/contexts/estimation/round-engine/domain/entities"
	domainerrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	"pointdeck/contexts/estimation/round-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository backs the round engine with postgres. Two partial unique
// indexes carry the engine's hard invariants so they hold across processes:
// voting_rounds(story_id) WHERE revealed_at IS NULL, and
// votes(round_id, user_id).
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

func (r *Repository) GetRoomProjection(ctx context.Context, roomID string) (ports.RoomProjection, error) {
	var row roomProjectionModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RoomProjection{}, domainerrors.ErrRoomNotFound
		}
		return ports.RoomProjection{}, r.logError("round_repo_get_room_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	return row.toProjection(), nil
}

func (r *Repository) SaveRoomProjection(ctx context.Context, room ports.RoomProjection) error {
	row := roomProjectionModelFromPort(room)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":        row.Status,
			"scale_name":    row.ScaleName,
			"scale_values":  row.ScaleValues,
			"scale_unknown": row.ScaleUnknown,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("round_repo_save_room_failed", create.Error,
			"room_id", strings.TrimSpace(room.RoomID),
		)
	}
	return nil
}

func (r *Repository) GetParticipant(ctx context.Context, roomID string, userID string) (ports.ParticipantProjection, bool, error) {
	var row participantProjectionModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ParticipantProjection{}, false, nil
		}
		return ports.ParticipantProjection{}, false, r.logError("round_repo_get_participant_failed", err,
			"room_id", strings.TrimSpace(roomID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return ports.ParticipantProjection{
		RoomID: row.RoomID,
		UserID: row.UserID,
		Role:   entities.ParticipantRole(row.Role),
	}, true, nil
}

func (r *Repository) SaveParticipant(ctx context.Context, participant ports.ParticipantProjection) error {
	row := participantProjectionModel{
		RoomID: strings.TrimSpace(participant.RoomID),
		UserID: strings.TrimSpace(participant.UserID),
		Role:   string(participant.Role),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role": row.Role,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("round_repo_save_participant_failed", create.Error,
			"room_id", row.RoomID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) CountVoters(ctx context.Context, roomID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&participantProjectionModel{}).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Where("role = ?", string(entities.RoleVoter)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("round_repo_count_voters_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	return int(count), nil
}

func (r *Repository) SaveStory(ctx context.Context, story entities.Story) error {
	row := storyModelFromEntity(story)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":          row.Title,
			"description":    row.Description,
			"external_id":    row.ExternalID,
			"external_url":   row.ExternalURL,
			"status":         row.Status,
			"final_estimate": row.FinalEstimate,
			"sort_order":     row.SortOrder,
			"updated_at":     row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("round_repo_save_story_failed", create.Error,
			"story_id", strings.TrimSpace(story.StoryID),
			"room_id", strings.TrimSpace(story.RoomID),
		)
	}
	return nil
}

func (r *Repository) GetStory(ctx context.Context, storyID string) (entities.Story, error) {
	var row storyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(storyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Story{}, domainerrors.ErrStoryNotFound
		}
		return entities.Story{}, r.logError("round_repo_get_story_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListStoriesByRoom(ctx context.Context, roomID string) ([]entities.Story, error) {
	var rows []storyModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Order("sort_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("round_repo_list_stories_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	items := make([]entities.Story, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MaxSortOrder(ctx context.Context, roomID string) (int, bool, error) {
	var row storyModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Order("sort_order DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, r.logError("round_repo_max_sort_order_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	return row.SortOrder, true, nil
}

func (r *Repository) DeleteStory(ctx context.Context, storyID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(storyID)).
		Delete(&storyModel{})
	if result.Error != nil {
		return r.logError("round_repo_delete_story_failed", result.Error,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoryNotFound
	}
	return nil
}

// CreateRound relies on the partial unique index over unrevealed rounds: a
// concurrent insert for the same story surfaces as a unique violation and
// maps to ErrRoundActive.
func (r *Repository) CreateRound(ctx context.Context, round entities.VotingRound) error {
	row := roundModelFromEntity(round)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRoundActive
		}
		return r.logError("round_repo_create_round_failed", err,
			"round_id", strings.TrimSpace(round.RoundID),
			"story_id", strings.TrimSpace(round.StoryID),
		)
	}
	return nil
}

func (r *Repository) GetRound(ctx context.Context, roundID string) (entities.VotingRound, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingRound{}, domainerrors.ErrRoundNotFound
		}
		return entities.VotingRound{}, r.logError("round_repo_get_round_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveRound(ctx context.Context, storyID string) (entities.VotingRound, bool, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Where("revealed_at IS NULL").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotingRound{}, false, nil
		}
		return entities.VotingRound{}, false, r.logError("round_repo_get_active_round_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListRoundsByStory(ctx context.Context, storyID string) ([]entities.VotingRound, error) {
	var rows []roundModel
	if err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Order("round_num ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("round_repo_list_rounds_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	items := make([]entities.VotingRound, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MaxRoundNum(ctx context.Context, storyID string) (int, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Order("round_num DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("round_repo_max_round_num_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return row.RoundNum, nil
}

// RevealRound updates only while revealed_at is still null, so of two
// concurrent reveals exactly one sees a row affected.
func (r *Repository) RevealRound(ctx context.Context, roundID string, revealedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("id = ?", strings.TrimSpace(roundID)).
		Where("revealed_at IS NULL").
		Update("revealed_at", revealedAt.UTC())
	if result.Error != nil {
		return r.logError("round_repo_reveal_round_failed", result.Error,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	if result.RowsAffected == 0 {
		var row roundModel
		err := r.db.WithContext(ctx).
			Where("id = ?", strings.TrimSpace(roundID)).
			First(&row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrRoundNotFound
		}
		return domainerrors.ErrAlreadyRevealed
	}
	return nil
}

func (r *Repository) UnrevealRound(ctx context.Context, roundID string) error {
	result := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("id = ?", strings.TrimSpace(roundID)).
		Update("revealed_at", nil)
	if result.Error != nil {
		return r.logError("round_repo_unreveal_round_failed", result.Error,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return nil
}

func (r *Repository) DeleteRound(ctx context.Context, roundID string) error {
	if err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(roundID)).
		Delete(&roundModel{}).Error; err != nil {
		return r.logError("round_repo_delete_round_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return nil
}

func (r *Repository) SaveVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "round_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("round_repo_save_vote_failed", create.Error,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"round_id", strings.TrimSpace(vote.RoundID),
			"user_id", strings.TrimSpace(vote.UserID),
		)
	}
	return nil
}

func (r *Repository) DeleteVote(ctx context.Context, roundID string, userID string) error {
	result := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&voteModel{})
	if result.Error != nil {
		return r.logError("round_repo_delete_vote_failed", result.Error,
			"round_id", strings.TrimSpace(roundID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return nil
}

func (r *Repository) ListVotesByRound(ctx context.Context, roundID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("round_repo_list_votes_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountVotesByRound(ctx context.Context, roundID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("round_repo_count_votes_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return int(count), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("round_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
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
		return r.logError("round_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("round_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
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
		return nil, r.logError("round_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("round_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("round_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("round_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "estimation/round-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("round repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type roomProjectionModel struct {
	RoomID       string `gorm:"column:room_id;primaryKey"`
	Status       string `gorm:"column:status"`
	ScaleName    string `gorm:"column:scale_name"`
	ScaleValues  string `gorm:"column:scale_values"`
	ScaleUnknown string `gorm:"column:scale_unknown"`
}

func (roomProjectionModel) TableName() string { return "round_room_projections" }

func roomProjectionModelFromPort(room ports.RoomProjection) roomProjectionModel {
	values, _ := json.Marshal(room.ScaleValues)
	return roomProjectionModel{
		RoomID:       strings.TrimSpace(room.RoomID),
		Status:       strings.TrimSpace(room.Status),
		ScaleName:    strings.TrimSpace(room.ScaleName),
		ScaleValues:  string(values),
		ScaleUnknown: room.ScaleUnknown,
	}
}

func (m roomProjectionModel) toProjection() ports.RoomProjection {
	var values []string
	_ = json.Unmarshal([]byte(m.ScaleValues), &values)
	return ports.RoomProjection{
		RoomID:       m.RoomID,
		Status:       m.Status,
		ScaleName:    m.ScaleName,
		ScaleValues:  values,
		ScaleUnknown: m.ScaleUnknown,
	}
}

type participantProjectionModel struct {
	RoomID string `gorm:"column:room_id;primaryKey"`
	UserID string `gorm:"column:user_id;primaryKey"`
	Role   string `gorm:"column:role"`
}

func (participantProjectionModel) TableName() string { return "round_participant_projections" }

type storyModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	RoomID        string    `gorm:"column:room_id;index"`
	Title         string    `gorm:"column:title"`
	Description   string    `gorm:"column:description"`
	ExternalID    string    `gorm:"column:external_id"`
	ExternalURL   string    `gorm:"column:external_url"`
	Status        string    `gorm:"column:status"`
	FinalEstimate string    `gorm:"column:final_estimate"`
	SortOrder     int       `gorm:"column:sort_order"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (storyModel) TableName() string { return "stories" }

func storyModelFromEntity(story entities.Story) storyModel {
	return storyModel{
		ID:            strings.TrimSpace(story.StoryID),
		RoomID:        strings.TrimSpace(story.RoomID),
		Title:         story.Title,
		Description:   story.Description,
		ExternalID:    story.ExternalID,
		ExternalURL:   story.ExternalURL,
		Status:        string(story.Status),
		FinalEstimate: story.FinalEstimate,
		SortOrder:     story.SortOrder,
		CreatedAt:     story.CreatedAt.UTC(),
		UpdatedAt:     story.UpdatedAt.UTC(),
	}
}

func (m storyModel) toEntity() entities.Story {
	return entities.Story{
		StoryID:       m.ID,
		RoomID:        m.RoomID,
		Title:         m.Title,
		Description:   m.Description,
		ExternalID:    m.ExternalID,
		ExternalURL:   m.ExternalURL,
		Status:        entities.StoryStatus(m.Status),
		FinalEstimate: m.FinalEstimate,
		SortOrder:     m.SortOrder,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type roundModel struct {
	ID         string     `gorm:"column:id;primaryKey"`
	StoryID    string     `gorm:"column:story_id;index"`
	RoomID     string     `gorm:"column:room_id;index"`
	RoundNum   int        `gorm:"column:round_num"`
	StartedAt  time.Time  `gorm:"column:started_at"`
	RevealedAt *time.Time `gorm:"column:revealed_at"`
}

func (roundModel) TableName() string { return "voting_rounds" }

func roundModelFromEntity(round entities.VotingRound) roundModel {
	m := roundModel{
		ID:        strings.TrimSpace(round.RoundID),
		StoryID:   strings.TrimSpace(round.StoryID),
		RoomID:    strings.TrimSpace(round.RoomID),
		RoundNum:  round.RoundNum,
		StartedAt: round.StartedAt.UTC(),
	}
	if round.RevealedAt != nil {
		revealed := round.RevealedAt.UTC()
		m.RevealedAt = &revealed
	}
	return m
}

func (m roundModel) toEntity() entities.VotingRound {
	round := entities.VotingRound{
		RoundID:   m.ID,
		StoryID:   m.StoryID,
		RoomID:    m.RoomID,
		RoundNum:  m.RoundNum,
		StartedAt: m.StartedAt.UTC(),
	}
	if m.RevealedAt != nil {
		revealed := m.RevealedAt.UTC()
		round.RevealedAt = &revealed
	}
	return round
}

type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	RoundID   string    `gorm:"column:round_id;index"`
	StoryID   string    `gorm:"column:story_id;index"`
	UserID    string    `gorm:"column:user_id"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string { return "votes" }

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		RoundID:   strings.TrimSpace(vote.RoundID),
		StoryID:   strings.TrimSpace(vote.StoryID),
		UserID:    strings.TrimSpace(vote.UserID),
		Value:     vote.Value,
		CreatedAt: vote.CreatedAt.UTC(),
		UpdatedAt: vote.UpdatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:    m.ID,
		RoundID:   m.RoundID,
		StoryID:   m.StoryID,
		UserID:    m.UserID,
		Value:     m.Value,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "round_outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string { return "round_event_dedup" }
