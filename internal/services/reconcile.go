package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

// ReconcileReport counts the repairs a sweep applied. A clean store yields
// all zeroes, so running the sweep repeatedly is harmless.
type ReconcileReport struct {
	RequestsRejected int `json:"requests_rejected"`
	EventsReleased   int `json:"events_released"`
}

// Reconcile repairs the detectable crash window of the delete cascade: a
// PENDING request whose event vanished, or a SWAP_PENDING event no PENDING
// request references. Exposed as an explicit operation rather than folded
// into request handling.
func (ss *swapService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := ss.swapRequestRepo.GetPending(ctx, tx)
		if err != nil {
			return err
		}
		for _, request := range pending {
			requesterEvent, err := ss.eventRepo.GetByID(ctx, tx, request.RequesterEventID)
			if err != nil {
				return err
			}
			responderEvent, err := ss.eventRepo.GetByID(ctx, tx, request.ResponderEventID)
			if err != nil {
				return err
			}
			if requesterEvent != nil && responderEvent != nil {
				continue
			}
			resolved, rErr := ss.swapRequestRepo.UpdateStatusIf(ctx, tx, request.ID, types.SwapStatusPending, types.SwapStatusRejected)
			if rErr != nil {
				return rErr
			}
			if resolved {
				report.RequestsRejected++
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
				if freed {
					report.EventsReleased++
				}
			}
		}

		// Whatever is still SWAP_PENDING without a PENDING request had its
		// request resolved while the event reset was lost. Free it.
		orphans, err := ss.eventRepo.GetOrphanedSwapPending(ctx, tx)
		if err != nil {
			return err
		}
		for _, orphan := range orphans {
			freed, fErr := ss.eventRepo.UpdateIfStatus(ctx, tx, orphan.ID, types.EventStatusSwapPending, map[string]interface{}{
				"status": types.EventStatusSwappable,
			})
			if fErr != nil {
				return fErr
			}
			if freed {
				report.EventsReleased++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.RequestsRejected > 0 || report.EventsReleased > 0 {
		ss.log.Info("Reconcile sweep applied repairs", "requests_rejected", report.RequestsRejected, "events_released", report.EventsReleased)
	}
	return report, nil
}
