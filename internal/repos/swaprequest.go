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

type SwapRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, requests []*types.SwapRequest) ([]*types.SwapRequest, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SwapRequest, error)
	// UpdateStatusIf moves a request from one status to another. Returns
	// false when the request was not in the expected status anymore, so a
	// PENDING -> terminal transition can happen at most once.
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next types.SwapStatus) (bool, error)
	GetPendingByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]*types.SwapRequest, error)
	GetPending(ctx context.Context, tx *gorm.DB) ([]*types.SwapRequest, error)
	GetByResponderID(ctx context.Context, tx *gorm.DB, responderID uuid.UUID) ([]*types.SwapRequest, error)
	GetByRequesterID(ctx context.Context, tx *gorm.DB, requesterID uuid.UUID) ([]*types.SwapRequest, error)
}

type swapRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSwapRequestRepo(db *gorm.DB, baseLog *logger.Logger) SwapRequestRepo {
	repoLog := baseLog.With("repo", "SwapRequestRepo")
	return &swapRequestRepo{db: db, log: repoLog}
}

func (r *swapRequestRepo) Create(ctx context.Context, tx *gorm.DB, requests []*types.SwapRequest) ([]*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(requests) == 0 {
		return []*types.SwapRequest{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *swapRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}

	var request types.SwapRequest
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *swapRequestRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next types.SwapStatus) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.SwapRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *swapRequestRepo) GetPendingByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SwapRequest
	if eventID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("status = ? AND (requester_event_id = ? OR responder_event_id = ?)", types.SwapStatusPending, eventID, eventID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *swapRequestRepo) GetPending(ctx context.Context, tx *gorm.DB) ([]*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SwapRequest
	if err := transaction.WithContext(ctx).
		Where("status = ?", types.SwapStatusPending).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *swapRequestRepo) GetByResponderID(ctx context.Context, tx *gorm.DB, responderID uuid.UUID) ([]*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SwapRequest
	if responderID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Requester").
		Preload("RequesterEvent").
		Preload("ResponderEvent").
		Where("responder_id = ?", responderID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *swapRequestRepo) GetByRequesterID(ctx context.Context, tx *gorm.DB, requesterID uuid.UUID) ([]*types.SwapRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SwapRequest
	if requesterID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Responder").
		Preload("RequesterEvent").
		Preload("ResponderEvent").
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
