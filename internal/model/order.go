package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a bar/kiosk sale tracked by the ordering subsystem.
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacilityID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time

	Payments []OrderPayment `gorm:"foreignKey:OrderID"`
}

// OrderPayment is one payment applied to an order. Each record maps 1:1 to a
// prospective sale movement — read-only to the ledger core.
type OrderPayment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method     string          `gorm:"type:varchar(20);not null"`
	OperatorID *uuid.UUID      `gorm:"type:uuid"`
	PaidAt     time.Time       `gorm:"not null;index"`
}
