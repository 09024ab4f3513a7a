package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/requestdata"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// One connection keeps concurrent transactions serialized instead of
	// tripping SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Event{}, &types.SwapRequest{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type testEnv struct {
	db              *gorm.DB
	eventRepo       repos.EventRepo
	swapRequestRepo repos.SwapRequestRepo
	swapService     SwapService
	eventService    EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	log := newTestLogger(t)
	eventRepo := repos.NewEventRepo(db, log)
	swapRequestRepo := repos.NewSwapRequestRepo(db, log)
	swapService := NewSwapService(db, log, eventRepo, swapRequestRepo)
	eventService := NewEventService(db, log, eventRepo, swapService)
	return &testEnv{
		db:              db,
		eventRepo:       eventRepo,
		swapRequestRepo: swapRequestRepo,
		swapService:     swapService,
		eventService:    eventService,
	}
}

func seedUser(t *testing.T, db *gorm.DB, name string) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "irrelevant",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, ownerID uuid.UUID, status types.EventStatus) *types.Event {
	t.Helper()
	start := time.Now().Add(time.Hour).Truncate(time.Second)
	event := &types.Event{
		ID:        uuid.New(),
		Title:     "test slot",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		UserID:    ownerID,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func ctxFor(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func getEvent(t *testing.T, db *gorm.DB, id uuid.UUID) *types.Event {
	t.Helper()
	var event types.Event
	if err := db.Where("id = ?", id).First(&event).Error; err != nil {
		t.Fatalf("load event %s: %v", id, err)
	}
	return &event
}

func getRequest(t *testing.T, db *gorm.DB, id uuid.UUID) *types.SwapRequest {
	t.Helper()
	var request types.SwapRequest
	if err := db.Where("id = ?", id).First(&request).Error; err != nil {
		t.Fatalf("load swap request %s: %v", id, err)
	}
	return &request
}

func assertAPIError(t *testing.T, err error, wantStatus int, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status=%d code=%s, got nil", wantStatus, wantCode)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if ae.Status != wantStatus {
		t.Fatalf("error status: want=%d got=%d (%v)", wantStatus, ae.Status, ae)
	}
	if ae.Code != wantCode {
		t.Fatalf("error code: want=%s got=%s (%v)", wantCode, ae.Code, ae)
	}
}

// Checks the two cross-entity invariants: a SWAP_PENDING event has exactly
// one PENDING request referencing it, and a PENDING request has both events
// SWAP_PENDING.
func assertStoreInvariants(t *testing.T, db *gorm.DB) {
	t.Helper()
	var lockedEvents []*types.Event
	if err := db.Where("status = ?", types.EventStatusSwapPending).Find(&lockedEvents).Error; err != nil {
		t.Fatalf("load SWAP_PENDING events: %v", err)
	}
	for _, event := range lockedEvents {
		var count int64
		if err := db.Model(&types.SwapRequest{}).
			Where("status = ? AND (requester_event_id = ? OR responder_event_id = ?)", types.SwapStatusPending, event.ID, event.ID).
			Count(&count).Error; err != nil {
			t.Fatalf("count pending requests for event %s: %v", event.ID, err)
		}
		if count != 1 {
			t.Fatalf("SWAP_PENDING event %s has %d PENDING requests, want exactly 1", event.ID, count)
		}
	}

	var pendingRequests []*types.SwapRequest
	if err := db.Where("status = ?", types.SwapStatusPending).Find(&pendingRequests).Error; err != nil {
		t.Fatalf("load PENDING requests: %v", err)
	}
	for _, request := range pendingRequests {
		for _, eventID := range []uuid.UUID{request.RequesterEventID, request.ResponderEventID} {
			event := getEvent(t, db, eventID)
			if event.Status != types.EventStatusSwapPending {
				t.Fatalf("PENDING request %s references event %s with status %s, want SWAP_PENDING", request.ID, eventID, event.Status)
			}
		}
	}
}
