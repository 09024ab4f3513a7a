package types

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// SwapRequest proposes exchanging ownership of two events between two users.
// Requests are never deleted; resolved ones are kept as history. While a
// request is PENDING both referenced events must be SWAP_PENDING so no second
// request can claim either slot.
type SwapRequest struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester        *User      `gorm:"foreignKey:RequesterID;references:ID" json:"requester,omitempty"`
	ResponderID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"responder_id"`
	Responder        *User      `gorm:"foreignKey:ResponderID;references:ID" json:"responder,omitempty"`
	RequesterEventID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requester_event_id"`
	RequesterEvent   *Event     `gorm:"foreignKey:RequesterEventID;references:ID" json:"requester_event,omitempty"`
	ResponderEventID uuid.UUID  `gorm:"type:uuid;not null;index" json:"responder_event_id"`
	ResponderEvent   *Event     `gorm:"foreignKey:ResponderEventID;references:ID" json:"responder_event,omitempty"`
	Status           SwapStatus `gorm:"not null;default:'PENDING';column:status;index" json:"status"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

func (SwapRequest) TableName() string {
	return "swap_request"
}

// OtherEventID returns the counterpart of eventID within the request pair.
func (sr *SwapRequest) OtherEventID(eventID uuid.UUID) uuid.UUID {
	if sr.RequesterEventID == eventID {
		return sr.ResponderEventID
	}
	return sr.RequesterEventID
}
