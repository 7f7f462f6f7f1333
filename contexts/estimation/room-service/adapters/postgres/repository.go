package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pointdeck/contexts/estimation/room-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	"pointdeck/contexts/estimation/room-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository backs room-service with postgres. Join-code uniqueness rides on
// the unique index over rooms(code).
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

func (r *Repository) CreateRoom(ctx context.Context, room entities.Room) error {
	row := roomModelFromEntity(room)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("room_repo_create_room_failed", err,
			"room_id", strings.TrimSpace(room.RoomID),
		)
	}
	return nil
}

func (r *Repository) UpdateRoom(ctx context.Context, room entities.Room) error {
	row := roomModelFromEntity(room)
	result := r.db.WithContext(ctx).
		Model(&roomModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"name":          row.Name,
			"scale_name":    row.ScaleName,
			"scale_values":  row.ScaleValues,
			"scale_unknown": row.ScaleUnknown,
			"status":        row.Status,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("room_repo_update_room_failed", result.Error,
			"room_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoomNotFound
	}
	return nil
}

func (r *Repository) GetRoom(ctx context.Context, roomID string) (entities.Room, error) {
	var row roomModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(roomID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Room{}, domainerrors.ErrRoomNotFound
		}
		return entities.Room{}, r.logError("room_repo_get_room_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetRoomByCode(ctx context.Context, code string) (entities.Room, error) {
	var row roomModel
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Room{}, domainerrors.ErrRoomNotFound
		}
		return entities.Room{}, r.logError("room_repo_get_room_by_code_failed", err,
			"code", strings.ToUpper(strings.TrimSpace(code)),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRoomsByOwner(ctx context.Context, ownerID string) ([]entities.Room, error) {
	var rows []roomModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", strings.TrimSpace(ownerID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("room_repo_list_rooms_failed", err,
			"owner_id", strings.TrimSpace(ownerID),
		)
	}
	items := make([]entities.Room, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveParticipant(ctx context.Context, participant entities.Participant) error {
	row := participantModelFromEntity(participant)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name": row.DisplayName,
			"role":         row.Role,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("room_repo_save_participant_failed", create.Error,
			"room_id", row.RoomID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetParticipant(ctx context.Context, roomID string, userID string) (entities.Participant, bool, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, false, nil
		}
		return entities.Participant{}, false, r.logError("room_repo_get_participant_failed", err,
			"room_id", strings.TrimSpace(roomID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListParticipants(ctx context.Context, roomID string) ([]entities.Participant, error) {
	var rows []participantModel
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Order("joined_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("room_repo_list_participants_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	items := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountByRole(ctx context.Context, roomID string, role entities.ParticipantRole) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("room_id = ?", strings.TrimSpace(roomID)).
		Where("role = ?", string(role)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("room_repo_count_by_role_failed", err,
			"room_id", strings.TrimSpace(roomID),
		)
	}
	return int(count), nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("room_repo_get_idempotency_failed", err,
			"key", strings.TrimSpace(key),
		)
	}
	if now.After(row.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_hash":     row.RequestHash,
			"response_payload": row.ResponsePayload,
			"expires_at":       row.ExpiresAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("room_repo_put_idempotency_failed", create.Error,
			"key", row.Key,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("room_repo_append_outbox_marshal_failed", err,
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
		return r.logError("room_repo_append_outbox_insert_failed", create.Error,
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
		return nil, r.logError("room_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("room_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "estimation/room-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("room repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type roomModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Code         string    `gorm:"column:code;uniqueIndex"`
	Name         string    `gorm:"column:name"`
	OwnerID      string    `gorm:"column:owner_id;index"`
	ScaleName    string    `gorm:"column:scale_name"`
	ScaleValues  string    `gorm:"column:scale_values"`
	ScaleUnknown string    `gorm:"column:scale_unknown"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

func roomModelFromEntity(room entities.Room) roomModel {
	values, _ := json.Marshal(room.ScaleValues)
	return roomModel{
		ID:           strings.TrimSpace(room.RoomID),
		Code:         strings.ToUpper(strings.TrimSpace(room.Code)),
		Name:         room.Name,
		OwnerID:      strings.TrimSpace(room.OwnerID),
		ScaleName:    room.ScaleName,
		ScaleValues:  string(values),
		ScaleUnknown: room.ScaleUnknown,
		Status:       string(room.Status),
		CreatedAt:    room.CreatedAt.UTC(),
		UpdatedAt:    room.UpdatedAt.UTC(),
	}
}

func (m roomModel) toEntity() entities.Room {
	var values []string
	_ = json.Unmarshal([]byte(m.ScaleValues), &values)
	return entities.Room{
		RoomID:       m.ID,
		Code:         m.Code,
		Name:         m.Name,
		OwnerID:      m.OwnerID,
		ScaleName:    m.ScaleName,
		ScaleValues:  values,
		ScaleUnknown: m.ScaleUnknown,
		Status:       entities.RoomStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type participantModel struct {
	RoomID      string    `gorm:"column:room_id;primaryKey"`
	UserID      string    `gorm:"column:user_id;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	Role        string    `gorm:"column:role"`
	JoinedAt    time.Time `gorm:"column:joined_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (participantModel) TableName() string { return "room_participants" }

func participantModelFromEntity(participant entities.Participant) participantModel {
	return participantModel{
		RoomID:      strings.TrimSpace(participant.RoomID),
		UserID:      strings.TrimSpace(participant.UserID),
		DisplayName: participant.DisplayName,
		Role:        string(participant.Role),
		JoinedAt:    participant.JoinedAt.UTC(),
		UpdatedAt:   participant.UpdatedAt.UTC(),
	}
}

func (m participantModel) toEntity() entities.Participant {
	return entities.Participant{
		RoomID:      m.RoomID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Role:        entities.ParticipantRole(m.Role),
		JoinedAt:    m.JoinedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string { return "room_idempotency" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "room_outbox" }
