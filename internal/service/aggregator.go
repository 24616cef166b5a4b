package service

import (
	"sort"

	"courtpos/internal/model"
	"courtpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionTotals is the result of a full recompute over a session's movement
// history. It is a pure function of (initial cash, movements) — running the
// computation twice over an unchanged ledger yields identical values.
type SessionTotals struct {
	SalesByMethod    map[string]decimal.Decimal
	TotalSales       decimal.Decimal
	TotalExpenses    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	ExpectedCash     decimal.Decimal
	TotalOrders      int
	TotalMovements   int
}

// ComputeTotals replays the movement history in recorded_at order (id as
// tie-break) and derives every session total from scratch. Incremental
// counters elsewhere are a cache; this is the authoritative computation.
//
// Rules:
//   - sale: credits its method bucket and total_sales; cash sales also credit
//     expected_cash; a not-yet-seen linked order increments total_orders.
//   - expense: debits its method bucket (floored at zero) and credits
//     total_expenses; cash expenses debit expected_cash (floored at zero).
//   - cash_withdrawal: debits expected_cash only (floored at zero) and
//     credits total_withdrawals.
//   - initial_cash, adjustment: excluded — the declared initial amount is
//     already the starting point, adjustments are informational.
//
// Buckets and expected_cash floor at zero: they project tendered cash on
// hand, which cannot go negative even when upstream data is inconsistent.
func ComputeTotals(initialCash decimal.Decimal, movements []model.CashMovement) SessionTotals {
	ordered := make([]model.CashMovement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].ID.String() < ordered[j].ID.String()
		}
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	buckets := make(map[string]decimal.Decimal, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		buckets[m] = decimal.Zero
	}

	t := SessionTotals{
		SalesByMethod:    buckets,
		TotalSales:       decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		ExpectedCash:     initialCash,
		TotalMovements:   len(ordered),
	}
	seenOrders := make(map[uuid.UUID]bool)

	for _, mov := range ordered {
		switch mov.Kind {
		case model.MovementSale:
			buckets[mov.Method] = buckets[mov.Method].Add(mov.Amount)
			t.TotalSales = t.TotalSales.Add(mov.Amount)
			if mov.Method == model.MethodCash {
				t.ExpectedCash = t.ExpectedCash.Add(mov.Amount)
			}
			if mov.OrderID != nil && !seenOrders[*mov.OrderID] {
				seenOrders[*mov.OrderID] = true
				t.TotalOrders++
			}
		case model.MovementExpense:
			buckets[mov.Method] = floorZero(buckets[mov.Method].Sub(mov.Amount))
			t.TotalExpenses = t.TotalExpenses.Add(mov.Amount)
			if mov.Method == model.MethodCash {
				t.ExpectedCash = floorZero(t.ExpectedCash.Sub(mov.Amount))
			}
		case model.MovementWithdrawal:
			t.ExpectedCash = floorZero(t.ExpectedCash.Sub(mov.Amount))
			t.TotalWithdrawals = t.TotalWithdrawals.Add(mov.Amount)
		case model.MovementInitialCash, model.MovementAdjustment:
			// excluded from totals
		}
	}

	return t
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// applyTotals copies a recompute result onto the session row.
func applyTotals(s *model.CashSession, t SessionTotals) {
	s.SalesByMethod = datatypes.NewJSONType(t.SalesByMethod)
	s.TotalSales = t.TotalSales
	s.TotalExpenses = t.TotalExpenses
	s.TotalWithdrawals = t.TotalWithdrawals
	s.ExpectedCash = t.ExpectedCash
	s.TotalOrders = t.TotalOrders
	s.TotalMovements = t.TotalMovements
}

// Aggregator rebuilds a session's stored totals from its ledger.
type Aggregator struct {
	repo repository.RegisterRepository
}

func NewAggregator(repo repository.RegisterRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// RecalculateTx recomputes one session inside the caller's transaction and
// writes the result back as a single atomic update.
func (a *Aggregator) RecalculateTx(tx *gorm.DB, sessionID uuid.UUID) (*model.CashSession, error) {
	s, err := a.repo.FindSessionByIDTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	movements, err := a.repo.ListMovementsTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	applyTotals(s, ComputeTotals(s.InitialCash, movements))
	if err := a.repo.UpdateSessionTotalsTx(tx, s); err != nil {
		return nil, err
	}
	return s, nil
}
