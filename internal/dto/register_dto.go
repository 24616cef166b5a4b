package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	FacilityID  string          `json:"facility_id"  validate:"required,uuid"`
	InitialCash decimal.Decimal `json:"initial_cash" validate:"min=0"`
	Notes       *string         `json:"notes"`
}

type CloseSessionRequest struct {
	SessionID   string          `json:"session_id"   validate:"required,uuid"`
	CountedCash decimal.Decimal `json:"counted_cash" validate:"min=0"`
	Notes       *string         `json:"notes"`
}

// RecordMovementRequest covers the live recording path. initial_cash entries
// are written by the open flow and backfilled sales by the reconciler —
// neither is accepted here.
type RecordMovementRequest struct {
	SessionID   string          `json:"session_id"  validate:"required,uuid"`
	Kind        string          `json:"kind"        validate:"required,oneof=sale expense cash_withdrawal adjustment"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Method      string          `json:"method"      validate:"required,oneof=cash card transfer credit_card debit_card mobile_wallet other"`
	BookingID   *string         `json:"booking_id"  validate:"omitempty,uuid"`
	OrderID     *string         `json:"order_id"    validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// TotalsResponse mirrors the derived totals on a session. Everything here is
// a pure function of the movement history plus the initial cash.
type TotalsResponse struct {
	SalesByMethod    map[string]decimal.Decimal `json:"sales_by_method"`
	TotalSales       decimal.Decimal            `json:"total_sales"`
	TotalExpenses    decimal.Decimal            `json:"total_expenses"`
	TotalWithdrawals decimal.Decimal            `json:"total_withdrawals"`
	ExpectedCash     decimal.Decimal            `json:"expected_cash"`
	TotalOrders      int                        `json:"total_orders"`
	TotalMovements   int                        `json:"total_movements"`
}

type SessionResponse struct {
	SessionID    string           `json:"session_id"`
	FacilityID   string           `json:"facility_id"`
	OperatorID   *string          `json:"operator_id"`
	Status       string           `json:"status"`
	InitialCash  decimal.Decimal  `json:"initial_cash"`
	Totals       TotalsResponse   `json:"totals"`
	CountedCash  *decimal.Decimal `json:"counted_cash"`
	CashVariance *decimal.Decimal `json:"cash_variance"`
	OpeningNotes *string          `json:"opening_notes"`
	ClosingNotes *string          `json:"closing_notes"`
	OpenedAt     string           `json:"opened_at"`
	ClosedAt     *string          `json:"closed_at"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	BookingID   *string         `json:"booking_id"`
	OrderID     *string         `json:"order_id"`
	Description string          `json:"description"`
	RecordedAt  string          `json:"recorded_at"`
}
