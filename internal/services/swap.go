package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/requestdata"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

// SwapRequestFeed is the two-sided listing for the requests page.
type SwapRequestFeed struct {
	Incoming []*types.SwapRequest `json:"incoming"`
	Outgoing []*types.SwapRequest `json:"outgoing"`
}

// SwapService is the coordinator for every cross-entity transition between
// events and swap requests. All multi-record transitions run inside one
// transaction and every status change is a guarded update on the previous
// status, so two racing callers cannot both claim the same slot: the loser
// misses the guard and the whole transaction rolls back.
type SwapService interface {
	ListSwappable(ctx context.Context) ([]*types.Event, error)
	Propose(ctx context.Context, requesterEventID, responderEventID uuid.UUID) (*types.SwapRequest, error)
	Respond(ctx context.Context, requestID uuid.UUID, accepted bool) (string, error)
	ListRequests(ctx context.Context) (*SwapRequestFeed, error)
	// CascadeEventDeleted rejects every PENDING request referencing the
	// deleted event and frees each counterpart slot. Runs inside the
	// caller's delete transaction.
	CascadeEventDeleted(ctx context.Context, tx *gorm.DB, deleted *types.Event) error
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

type swapService struct {
	db              *gorm.DB
	log             *logger.Logger
	eventRepo       repos.EventRepo
	swapRequestRepo repos.SwapRequestRepo
}

func NewSwapService(db *gorm.DB, log *logger.Logger, eventRepo repos.EventRepo, swapRequestRepo repos.SwapRequestRepo) SwapService {
	serviceLog := log.With("service", "SwapService")
	return &swapService{
		db:              db,
		log:             serviceLog,
		eventRepo:       eventRepo,
		swapRequestRepo: swapRequestRepo,
	}
}

func (ss *swapService) ListSwappable(ctx context.Context) ([]*types.Event, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}
	return ss.eventRepo.GetSwappableExcludingUser(ctx, nil, rd.UserID)
}

func (ss *swapService) Propose(ctx context.Context, requesterEventID, responderEventID uuid.UUID) (*types.SwapRequest, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}
	if requesterEventID == uuid.Nil || responderEventID == uuid.Nil {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeValidation, "missing my_slot_id or their_slot_id")
	}

	var created *types.SwapRequest
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		myEvent, err := ss.eventRepo.GetByID(ctx, tx, requesterEventID)
		if err != nil {
			return err
		}
		if myEvent == nil {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "your slot not found")
		}
		if myEvent.UserID != rd.UserID {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotOwned, "your slot not found or you do not own it")
		}
		theirEvent, err := ss.eventRepo.GetByID(ctx, tx, responderEventID)
		if err != nil {
			return err
		}
		if theirEvent == nil {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "their slot not found")
		}
		if myEvent.Status != types.EventStatusSwappable {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidState, "your slot must be SWAPPABLE")
		}
		if theirEvent.Status != types.EventStatusSwappable {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidState, "their slot must be SWAPPABLE")
		}
		if theirEvent.UserID == rd.UserID {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeSelfSwap, "cannot request a swap with your own event")
		}

		// Responder identity is fixed to the current owner. If ownership
		// drifts before the response, the respond path treats it as the
		// events-gone case.
		request := &types.SwapRequest{
			ID:               uuid.New(),
			RequesterID:      rd.UserID,
			ResponderID:      theirEvent.UserID,
			RequesterEventID: myEvent.ID,
			ResponderEventID: theirEvent.ID,
			Status:           types.SwapStatusPending,
		}
		if _, err := ss.swapRequestRepo.Create(ctx, tx, []*types.SwapRequest{request}); err != nil {
			return err
		}

		// Lock both slots. A missed guard means a concurrent proposal or
		// owner edit got there first; rolling back also discards the
		// request row created above.
		for _, eventID := range []uuid.UUID{myEvent.ID, theirEvent.ID} {
			locked, lErr := ss.eventRepo.UpdateIfStatus(ctx, tx, eventID, types.EventStatusSwappable, map[string]interface{}{
				"status": types.EventStatusSwapPending,
			})
			if lErr != nil {
				return lErr
			}
			if !locked {
				return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidState, "slot is no longer SWAPPABLE")
			}
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("Swap proposed", "request_id", created.ID, "requester_id", created.RequesterID, "responder_id", created.ResponderID)
	return created, nil
}

func (ss *swapService) Respond(ctx context.Context, requestID uuid.UUID, accepted bool) (string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return "", apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}

	var message string
	var gone bool
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := ss.swapRequestRepo.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "swap request not found")
		}
		if request.ResponderID != rd.UserID {
			return apierr.Newf(http.StatusForbidden, apierr.CodeForbidden, "not authorized to respond to this swap")
		}
		if request.Status != types.SwapStatusPending {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeAlreadyResolved, "swap already resolved")
		}

		requesterEvent, err := ss.eventRepo.GetByID(ctx, tx, request.RequesterEventID)
		if err != nil {
			return err
		}
		responderEvent, err := ss.eventRepo.GetByID(ctx, tx, request.ResponderEventID)
		if err != nil {
			return err
		}

		if requesterEvent == nil || responderEvent == nil {
			// Terminal resolution: a referenced event vanished while the
			// request was open. Reject the request, free whatever survived
			// and report Gone after the cleanup commits.
			resolved, rErr := ss.swapRequestRepo.UpdateStatusIf(ctx, tx, request.ID, types.SwapStatusPending, types.SwapStatusRejected)
			if rErr != nil {
				return rErr
			}
			if !resolved {
				return apierr.Newf(http.StatusBadRequest, apierr.CodeAlreadyResolved, "swap already resolved")
			}
			for _, survivor := range []*types.Event{requesterEvent, responderEvent} {
				if survivor == nil {
					continue
				}
				freed, fErr := ss.eventRepo.UpdateIfStatus(ctx, tx, survivor.ID, types.EventStatusSwapPending, map[string]interface{}{
					"status": types.EventStatusSwappable,
				})
				if fErr != nil {
					return fErr
				}
				if !freed {
					ss.log.Warn("Surviving event was not SWAP_PENDING during gone-cleanup", "event_id", survivor.ID, "status", survivor.Status)
				}
			}
			gone = true
			return nil
		}

		if accepted {
			resolved, rErr := ss.swapRequestRepo.UpdateStatusIf(ctx, tx, request.ID, types.SwapStatusPending, types.SwapStatusAccepted)
			if rErr != nil {
				return rErr
			}
			if !resolved {
				return apierr.Newf(http.StatusBadRequest, apierr.CodeAlreadyResolved, "swap already resolved")
			}
			// The sole mutation path that reassigns event ownership.
			swapped, sErr := ss.eventRepo.UpdateIfStatus(ctx, tx, requesterEvent.ID, types.EventStatusSwapPending, map[string]interface{}{
				"user_id": responderEvent.UserID,
				"status":  types.EventStatusBusy,
			})
			if sErr != nil {
				return sErr
			}
			if !swapped {
				return apierr.Newf(http.StatusConflict, apierr.CodeConflict, "requester event changed during acceptance")
			}
			swapped, sErr = ss.eventRepo.UpdateIfStatus(ctx, tx, responderEvent.ID, types.EventStatusSwapPending, map[string]interface{}{
				"user_id": requesterEvent.UserID,
				"status":  types.EventStatusBusy,
			})
			if sErr != nil {
				return sErr
			}
			if !swapped {
				return apierr.Newf(http.StatusConflict, apierr.CodeConflict, "responder event changed during acceptance")
			}
			message = "Swap accepted"
			return nil
		}

		resolved, rErr := ss.swapRequestRepo.UpdateStatusIf(ctx, tx, request.ID, types.SwapStatusPending, types.SwapStatusRejected)
		if rErr != nil {
			return rErr
		}
		if !resolved {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeAlreadyResolved, "swap already resolved")
		}
		for _, eventID := range []uuid.UUID{requesterEvent.ID, responderEvent.ID} {
			freed, fErr := ss.eventRepo.UpdateIfStatus(ctx, tx, eventID, types.EventStatusSwapPending, map[string]interface{}{
				"status": types.EventStatusSwappable,
			})
			if fErr != nil {
				return fErr
			}
			if !freed {
				return apierr.Newf(http.StatusConflict, apierr.CodeConflict, "event changed during rejection")
			}
		}
		message = "Swap rejected"
		return nil
	})
	if err != nil {
		return "", err
	}
	if gone {
		return "", apierr.Newf(http.StatusGone, apierr.CodeGone, "swap cannot proceed: one or more events were deleted")
	}
	ss.log.Info("Swap resolved", "request_id", requestID, "accepted", accepted)
	return message, nil
}

func (ss *swapService) ListRequests(ctx context.Context) (*SwapRequestFeed, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Newf(http.StatusUnauthorized, apierr.CodeForbidden, "no acting user in context")
	}
	incoming, err := ss.swapRequestRepo.GetByResponderID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	outgoing, err := ss.swapRequestRepo.GetByRequesterID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, err
	}
	if incoming == nil {
		incoming = []*types.SwapRequest{}
	}
	if outgoing == nil {
		outgoing = []*types.SwapRequest{}
	}
	return &SwapRequestFeed{Incoming: incoming, Outgoing: outgoing}, nil
}

func (ss *swapService) CascadeEventDeleted(ctx context.Context, tx *gorm.DB, deleted *types.Event) error {
	pending, err := ss.swapRequestRepo.GetPendingByEventID(ctx, tx, deleted.ID)
	if err != nil {
		return err
	}
	for _, request := range pending {
		resolved, rErr := ss.swapRequestRepo.UpdateStatusIf(ctx, tx, request.ID, types.SwapStatusPending, types.SwapStatusRejected)
		if rErr != nil {
			return rErr
		}
		if !resolved {
			ss.log.Debug("Pending request resolved concurrently during cascade", "request_id", request.ID)
			continue
		}
		otherID := request.OtherEventID(deleted.ID)
		freed, fErr := ss.eventRepo.UpdateIfStatus(ctx, tx, otherID, types.EventStatusSwapPending, map[string]interface{}{
			"status": types.EventStatusSwappable,
		})
		if fErr != nil {
			// Best-effort: the delete itself must still go through.
			ss.log.Warn("Failed to reset counterpart event during cascade", "event_id", otherID, "request_id", request.ID, "error", fErr)
			continue
		}
		if !freed {
			ss.log.Debug("Counterpart event missing or already reset during cascade", "event_id", otherID, "request_id", request.ID)
		}
	}
	return nil
}
