package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

func TestReconcileOnCleanStoreIsNoop(t *testing.T) {
	env := newTestEnv(t)
	userA := seedUser(t, env.db, "alice")
	userB := seedUser(t, env.db, "bob")
	eventA := seedEvent(t, env.db, userA.ID, types.EventStatusSwappable)
	eventB := seedEvent(t, env.db, userB.ID, types.EventStatusSwappable)
	if _, err := env.swapService.Propose(ctxFor(userA.ID), eventA.ID, eventB.ID); err != nil {
		t.Fatalf("Propose: %v", err)
	}

	report, err := env.swapService.Reconcile(ctxFor(userA.ID))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.RequestsRejected != 0 || report.EventsReleased != 0 {
		t.Fatalf("clean store sweep: want zero repairs, got %+v", report)
	}
	if got := getEvent(t, env.db, eventA.ID).Status; got != types.EventStatusSwapPending {
		t.Fatalf("healthy negotiation must be untouched, got %s", got)
	}
}

func TestReconcileRejectsPendingRequestWithMissingEvent(t *testing.T) {
	env := newTestEnv(t)
	userA := seedUser(t, env.db, "alice")
	userB := seedUser(t, env.db, "bob")
	eventA := seedEvent(t, env.db, userA.ID, types.EventStatusSwappable)
	eventB := seedEvent(t, env.db, userB.ID, types.EventStatusSwappable)

	swap, err := env.swapService.Propose(ctxFor(userA.ID), eventA.ID, eventB.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	// Crash window: event row vanished without the cascade running.
	if err := env.eventRepo.FullDeleteByIDs(ctxFor(userA.ID), nil, []uuid.UUID{eventA.ID}); err != nil {
		t.Fatalf("delete event: %v", err)
	}

	report, err := env.swapService.Reconcile(ctxFor(userA.ID))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.RequestsRejected != 1 {
		t.Fatalf("requests rejected: want=1 got=%d", report.RequestsRejected)
	}
	if report.EventsReleased != 1 {
		t.Fatalf("events released: want=1 got=%d", report.EventsReleased)
	}
	if got := getRequest(t, env.db, swap.ID).Status; got != types.SwapStatusRejected {
		t.Fatalf("request status: want=REJECTED got=%s", got)
	}
	if got := getEvent(t, env.db, eventB.ID).Status; got != types.EventStatusSwappable {
		t.Fatalf("survivor status: want=SWAPPABLE got=%s", got)
	}
	assertStoreInvariants(t, env.db)
}

func TestReconcileReleasesOrphanedSwapPendingEvent(t *testing.T) {
	env := newTestEnv(t)
	userA := seedUser(t, env.db, "alice")
	// Crash window: an event stuck in SWAP_PENDING with its request already
	// resolved and no other PENDING request referencing it.
	orphan := seedEvent(t, env.db, userA.ID, types.EventStatusSwapPending)

	report, err := env.swapService.Reconcile(ctxFor(userA.ID))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.EventsReleased != 1 {
		t.Fatalf("events released: want=1 got=%d", report.EventsReleased)
	}
	if got := getEvent(t, env.db, orphan.ID).Status; got != types.EventStatusSwappable {
		t.Fatalf("orphan status: want=SWAPPABLE got=%s", got)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	userA := seedUser(t, env.db, "alice")
	seedEvent(t, env.db, userA.ID, types.EventStatusSwapPending)

	if _, err := env.swapService.Reconcile(ctxFor(userA.ID)); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	report, err := env.swapService.Reconcile(ctxFor(userA.ID))
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if report.RequestsRejected != 0 || report.EventsReleased != 0 {
		t.Fatalf("second sweep must be a no-op, got %+v", report)
	}
}
