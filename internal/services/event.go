package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/normalization"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/requestdata"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

type CreateEventInput struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    types.EventStatus
}

type UpdateEventInput struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *types.EventStatus
}

type EventService interface {
	List(ctx context.Context) ([]*types.Event, error)
	Create(ctx context.Context, input CreateEventInput) (*types.Event, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEventInput) (*types.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventService struct {
	db          *gorm.DB
	log         *logger.Logger
	eventRepo   repos.EventRepo
	swapService SwapService
}

func NewEventService(db *gorm.DB, log *logger.Logger, eventRepo repos.EventRepo, swapService SwapService) EventService {
	serviceLog := log.With("service", "EventService")
	return &eventService{
		db:          db,
		log:         serviceLog,
		eventRepo:   eventRepo,
		swapService: swapService,
	}
}

func (es *eventService) List(ctx context.Context) ([]*types.Event, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}
	events, err := es.eventRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*types.Event{}
	}
	return events, nil
}

func (es *eventService) Create(ctx context.Context, input CreateEventInput) (*types.Event, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}

	title := normalization.TrimInputString(input.Title)
	if title == "" || input.StartTime.IsZero() || input.EndTime.IsZero() {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "missing required fields: title, start_time, end_time")
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "start_time must be before end_time")
	}
	status := input.Status
	if status == "" {
		status = types.EventStatusBusy
	}
	// Owners pick BUSY or SWAPPABLE; SWAP_PENDING belongs to the coordinator.
	if status != types.EventStatusBusy && status != types.EventStatusSwappable {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "status must be BUSY or SWAPPABLE")
	}

	event := &types.Event{
		ID:        uuid.New(),
		Title:     title,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Status:    status,
		UserID:    rd.UserID,
	}
	if _, err := es.eventRepo.Create(ctx, nil, []*types.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (es *eventService) Update(ctx context.Context, id uuid.UUID, input UpdateEventInput) (*types.Event, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}

	var updated *types.Event
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := es.eventRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if event == nil || event.UserID != rd.UserID {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "event not found")
		}
		// A slot under negotiation is locked until the coordinator
		// resolves the swap.
		if event.Status == types.EventStatusSwapPending {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidState, "event is locked by a pending swap")
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			title := normalization.TrimInputString(*input.Title)
			if title == "" {
				return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "title must not be empty")
			}
			updates["title"] = title
		}
		startTime := event.StartTime
		endTime := event.EndTime
		if input.StartTime != nil {
			startTime = *input.StartTime
			updates["start_time"] = startTime
		}
		if input.EndTime != nil {
			endTime = *input.EndTime
			updates["end_time"] = endTime
		}
		if !startTime.Before(endTime) {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "start_time must be before end_time")
		}
		if input.Status != nil {
			if *input.Status != types.EventStatusBusy && *input.Status != types.EventStatusSwappable {
				return apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "status must be BUSY or SWAPPABLE")
			}
			updates["status"] = *input.Status
		}
		if len(updates) == 0 {
			updated = event
			return nil
		}

		// Guard on the status we validated against, so an update cannot
		// slip past a swap proposal that locked the slot in between.
		applied, uErr := es.eventRepo.UpdateIfStatus(ctx, tx, event.ID, event.Status, updates)
		if uErr != nil {
			return uErr
		}
		if !applied {
			return apierr.Newf(http.StatusConflict, apierr.CodeConflict, "event changed concurrently, retry against fresh state")
		}
		updated, err = es.eventRepo.GetByID(ctx, tx, event.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (es *eventService) Delete(ctx context.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}

	return es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := es.eventRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if event == nil || event.UserID != rd.UserID {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "event not found")
		}
		if err := es.eventRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{event.ID}); err != nil {
			return err
		}
		// Same transaction as the delete: no observer may see the event
		// gone while a request still holds its counterpart.
		return es.swapService.CascadeEventDeleted(ctx, tx, event)
	})
}
