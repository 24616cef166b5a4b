package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is the flattened read projection the backfill matcher works
// on. It unifies booking and order payments, with the owning facility joined
// in so a session window can be resolved. Not a table.
type PaymentRecord struct {
	ID         uuid.UUID
	FacilityID uuid.UUID
	// Exactly one of BookingID / OrderID is set, depending on the feed.
	BookingID  *uuid.UUID
	OrderID    *uuid.UUID
	Amount     decimal.Decimal
	Method     string
	OperatorID *uuid.UUID
	PaidAt     time.Time
}
