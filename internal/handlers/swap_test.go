package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/services"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

type fakeSwapService struct {
	proposeCalls int
	lastMine     uuid.UUID
	lastTheirs   uuid.UUID
	respondCalls int
	lastAccepted bool
}

func (f *fakeSwapService) ListSwappable(ctx context.Context) ([]*types.Event, error) {
	return []*types.Event{}, nil
}

func (f *fakeSwapService) Propose(ctx context.Context, requesterEventID, responderEventID uuid.UUID) (*types.SwapRequest, error) {
	f.proposeCalls++
	f.lastMine = requesterEventID
	f.lastTheirs = responderEventID
	return &types.SwapRequest{ID: uuid.New(), RequesterEventID: requesterEventID, ResponderEventID: responderEventID, Status: types.SwapStatusPending}, nil
}

func (f *fakeSwapService) Respond(ctx context.Context, requestID uuid.UUID, accepted bool) (string, error) {
	f.respondCalls++
	f.lastAccepted = accepted
	return "Swap accepted", nil
}

func (f *fakeSwapService) ListRequests(ctx context.Context) (*services.SwapRequestFeed, error) {
	return &services.SwapRequestFeed{Incoming: []*types.SwapRequest{}, Outgoing: []*types.SwapRequest{}}, nil
}

func (f *fakeSwapService) CascadeEventDeleted(ctx context.Context, tx *gorm.DB, deleted *types.Event) error {
	return nil
}

func (f *fakeSwapService) Reconcile(ctx context.Context) (*services.ReconcileReport, error) {
	return &services.ReconcileReport{}, nil
}

func newSwapTestRouter(t *testing.T) (*gin.Engine, *fakeSwapService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	fake := &fakeSwapService{}
	h := NewSwapHandler(log, fake)
	router := gin.New()
	router.POST("/api/swap-request", h.Propose)
	router.POST("/api/swap-response/:requestId", h.Respond)
	return router, fake
}

func TestProposeHandlerRejectsMissingIDs(t *testing.T) {
	router, fake := newSwapTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/swap-request", strings.NewReader(`{"my_slot_id":""}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if fake.proposeCalls != 0 {
		t.Fatalf("service must not be called on validation failure")
	}
}

func TestProposeHandlerRejectsMalformedUUID(t *testing.T) {
	router, fake := newSwapTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/swap-request", strings.NewReader(`{"my_slot_id":"not-a-uuid","their_slot_id":"also-not"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if fake.proposeCalls != 0 {
		t.Fatalf("service must not be called on malformed ids")
	}
}

func TestProposeHandlerPassesParsedIDs(t *testing.T) {
	router, fake := newSwapTestRouter(t)
	mine := uuid.New()
	theirs := uuid.New()

	rec := httptest.NewRecorder()
	body := `{"my_slot_id":"` + mine.String() + `","their_slot_id":"` + theirs.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/swap-request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if fake.proposeCalls != 1 || fake.lastMine != mine || fake.lastTheirs != theirs {
		t.Fatalf("service call mismatch: calls=%d mine=%s theirs=%s", fake.proposeCalls, fake.lastMine, fake.lastTheirs)
	}
}

func TestRespondHandlerRequiresBooleanAccepted(t *testing.T) {
	router, fake := newSwapTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/swap-response/"+uuid.NewString(), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if fake.respondCalls != 0 {
		t.Fatalf("service must not be called without a boolean accepted")
	}
}

func TestRespondHandlerForwardsDecision(t *testing.T) {
	router, fake := newSwapTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/swap-response/"+uuid.NewString(), strings.NewReader(`{"accepted":false}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if fake.respondCalls != 1 || fake.lastAccepted != false {
		t.Fatalf("service call mismatch: calls=%d accepted=%v", fake.respondCalls, fake.lastAccepted)
	}
}
