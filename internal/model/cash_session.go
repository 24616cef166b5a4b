package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Movement kinds. The amount is always stored as a positive magnitude;
// the kind encodes direction.
const (
	MovementSale        = "sale"
	MovementExpense     = "expense"
	MovementInitialCash = "initial_cash"
	MovementWithdrawal  = "cash_withdrawal"
	MovementAdjustment  = "adjustment"
)

// Payment methods — closed vocabulary shared by movements and payment feeds.
const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodTransfer     = "transfer"
	MethodCreditCard   = "credit_card"
	MethodDebitCard    = "debit_card"
	MethodMobileWallet = "mobile_wallet"
	MethodOther        = "other"
)

// PaymentMethods lists every accepted method, for validation.
var PaymentMethods = []string{
	MethodCash, MethodCard, MethodTransfer,
	MethodCreditCard, MethodDebitCard, MethodMobileWallet, MethodOther,
}

// MovementKinds lists every accepted movement kind, for validation.
var MovementKinds = []string{
	MovementSale, MovementExpense, MovementInitialCash,
	MovementWithdrawal, MovementAdjustment,
}

// CashSession is one shift-long till instance for a facility.
// At most one session per facility may be open at any instant (enforced by
// the service guard plus a partial unique index, see infra.applySchemaPatches).
//
// Every total below is derived: the aggregator rebuilds them from the
// movement history and they must never be treated as authoritative state.
type CashSession struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacilityID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OperatorID *uuid.UUID `gorm:"type:uuid"`

	InitialCash decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Derived totals — rewritten atomically by the aggregator.
	SalesByMethod    datatypes.JSONType[map[string]decimal.Decimal] `gorm:"type:jsonb"`
	TotalSales       decimal.Decimal                                `gorm:"type:decimal(12,2);not null;default:0"`
	TotalExpenses    decimal.Decimal                                `gorm:"type:decimal(12,2);not null;default:0"`
	TotalWithdrawals decimal.Decimal                                `gorm:"type:decimal(12,2);not null;default:0"`
	ExpectedCash     decimal.Decimal                                `gorm:"type:decimal(12,2);not null;default:0"`
	TotalOrders      int                                            `gorm:"not null;default:0"`
	TotalMovements   int                                            `gorm:"not null;default:0"`

	// Set once at close.
	CountedCash  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CashVariance *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Status       string  `gorm:"type:varchar(20);not null;default:'open';index"`
	OpeningNotes *string
	ClosingNotes *string
	OpenedAt     time.Time  `gorm:"not null"`
	ClosedAt     *time.Time

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// CashMovement is one immutable monetary event in the session ledger.
// Movements are NEVER updated or deleted — corrections create new entries.
// RecordedAt carries the true business time: backfilled movements keep the
// timestamp of the source payment, not the insertion time, and the aggregator
// always iterates in RecordedAt order.
type CashMovement struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index"`
	FacilityID uuid.UUID `gorm:"type:uuid;not null;index"`

	Kind   string          `gorm:"type:varchar(20);not null;index"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method string          `gorm:"type:varchar(20);not null;index"`

	// Optional link to the originating business object.
	BookingID *uuid.UUID `gorm:"type:uuid;index"`
	OrderID   *uuid.UUID `gorm:"type:uuid;index"`

	OperatorID  *uuid.UUID `gorm:"type:uuid"`
	Description string     `gorm:"not null"`
	RecordedAt  time.Time  `gorm:"not null;index"`
}
