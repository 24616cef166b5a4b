package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is a court/slot reservation. Only the fields the reconciliation
// core needs are modeled here — scheduling lives upstream.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacilityID uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName string  `gorm:"not null"`
	StartsAt   time.Time `gorm:"not null"`
	CreatedAt  time.Time

	Payments []BookingPayment `gorm:"foreignKey:BookingID"`
}

// Payment classification on booking payments. Only declared payments take
// part in the gap-detection pass.
const (
	PaymentDeclared = "declared"
	PaymentOther    = "other"
)

// BookingPayment is a deposit or balance payment tracked by the booking
// subsystem. The ledger core reads these, it never writes them.
type BookingPayment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method         string          `gorm:"type:varchar(20);not null"`
	Classification string          `gorm:"type:varchar(20);not null;default:'declared'"`
	OperatorID     *uuid.UUID      `gorm:"type:uuid"`
	PaidAt         time.Time       `gorm:"not null;index"`
}
