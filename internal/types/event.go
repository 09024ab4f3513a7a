package types

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	// EventStatusBusy is the default for a newly created slot.
	EventStatusBusy EventStatus = "BUSY"
	// EventStatusSwappable means the owner has offered the slot for exchange.
	EventStatusSwappable EventStatus = "SWAPPABLE"
	// EventStatusSwapPending means the slot is held by an open swap request.
	// Only the swap coordinator moves events into or out of this status.
	EventStatusSwapPending EventStatus = "SWAP_PENDING"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusBusy, EventStatusSwappable, EventStatusSwapPending:
		return true
	}
	return false
}

// Event is a calendar slot owned by exactly one user. Ownership changes only
// when an accepted swap exchanges the two slots of a request.
type Event struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string      `gorm:"not null;column:title" json:"title"`
	StartTime time.Time   `gorm:"not null;index:idx_event_user_start,priority:2;column:start_time" json:"start_time"`
	EndTime   time.Time   `gorm:"not null;column:end_time" json:"end_time"`
	Status    EventStatus `gorm:"not null;default:'BUSY';column:status" json:"status"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_event_user_start,priority:1" json:"user_id"`
	User      *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}

func (Event) TableName() string {
	return "event"
}
