package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Event, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Event, error)
	GetSwappableExcludingUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Event, error)
	// UpdateIfStatus applies updates only when the event still has the
	// expected status. Returns false when the guard missed, which means a
	// concurrent transition won the race.
	UpdateIfStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected types.EventStatus, updates map[string]interface{}) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	// GetOrphanedSwapPending lists SWAP_PENDING events no PENDING swap
	// request references, i.e. leftovers of an interrupted cascade.
	GetOrphanedSwapPending(ctx context.Context, tx *gorm.DB) ([]*types.Event, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "EventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return []*types.Event{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}

	var event types.Event
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Event
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRepo) GetSwappableExcludingUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Event
	if err := transaction.WithContext(ctx).
		Where("user_id <> ? AND status = ?", userID, types.EventStatusSwappable).
		Order("start_time ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRepo) UpdateIfStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected types.EventStatus, updates map[string]interface{}) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := transaction.WithContext(ctx).
		Model(&types.Event{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *eventRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Event{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *eventRepo) GetOrphanedSwapPending(ctx context.Context, tx *gorm.DB) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Event
	if err := transaction.WithContext(ctx).
		Where(`status = ? AND id NOT IN (
			SELECT requester_event_id FROM swap_request WHERE status = ?
			UNION
			SELECT responder_event_id FROM swap_request WHERE status = ?
		)`, types.EventStatusSwapPending, types.SwapStatusPending, types.SwapStatusPending).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
