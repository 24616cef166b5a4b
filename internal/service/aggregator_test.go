package service_test

import (
	"testing"
	"time"

	"courtpos/internal/model"
	"courtpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func mov(kind, method string, amount float64, at time.Time) model.CashMovement {
	return model.CashMovement{
		ID:         uuid.New(),
		Kind:       kind,
		Method:     method,
		Amount:     dec(amount),
		RecordedAt: at,
	}
}

func TestComputeTotalsBasicShift(t *testing.T) {
	base := time.Now()
	movements := []model.CashMovement{
		mov(model.MovementSale, model.MethodCash, 500, base),
		mov(model.MovementSale, model.MethodCard, 300, base.Add(time.Minute)),
		mov(model.MovementExpense, model.MethodCash, 100, base.Add(2*time.Minute)),
		mov(model.MovementWithdrawal, model.MethodCash, 200, base.Add(3*time.Minute)),
	}

	totals := service.ComputeTotals(dec(1000), movements)

	assert.Equal(t, "800", totals.TotalSales.String())
	assert.Equal(t, "100", totals.TotalExpenses.String())
	assert.Equal(t, "200", totals.TotalWithdrawals.String())
	// 1000 + 500 - 100 - 200; the card sale never touches the drawer.
	assert.Equal(t, "1200", totals.ExpectedCash.String())
	assert.Equal(t, "400", totals.SalesByMethod[model.MethodCash].String())
	assert.Equal(t, "300", totals.SalesByMethod[model.MethodCard].String())
	assert.Equal(t, 4, totals.TotalMovements)
}

func TestComputeTotalsIsIdempotent(t *testing.T) {
	base := time.Now()
	movements := []model.CashMovement{
		mov(model.MovementSale, model.MethodCash, 150.50, base),
		mov(model.MovementExpense, model.MethodCash, 40.25, base.Add(time.Minute)),
	}

	first := service.ComputeTotals(dec(500), movements)
	second := service.ComputeTotals(dec(500), movements)

	assert.True(t, first.ExpectedCash.Equal(second.ExpectedCash))
	assert.True(t, first.TotalSales.Equal(second.TotalSales))
	assert.True(t, first.TotalExpenses.Equal(second.TotalExpenses))
	assert.Equal(t, first.TotalMovements, second.TotalMovements)
}

func TestComputeTotalsFloorsAtZero(t *testing.T) {
	base := time.Now()
	movements := []model.CashMovement{
		mov(model.MovementSale, model.MethodCash, 300, base),
		mov(model.MovementExpense, model.MethodCash, 500, base.Add(time.Minute)),
	}

	totals := service.ComputeTotals(decimal.Zero, movements)

	// The drawer projection cannot go negative; the full expense is still
	// accounted for in total_expenses.
	assert.True(t, totals.ExpectedCash.IsZero())
	assert.True(t, totals.SalesByMethod[model.MethodCash].IsZero())
	assert.Equal(t, "500", totals.TotalExpenses.String())
}

func TestComputeTotalsWithdrawalFloorsDrawerOnly(t *testing.T) {
	base := time.Now()
	movements := []model.CashMovement{
		mov(model.MovementWithdrawal, model.MethodCash, 800, base),
	}

	totals := service.ComputeTotals(dec(300), movements)

	assert.True(t, totals.ExpectedCash.IsZero())
	assert.Equal(t, "800", totals.TotalWithdrawals.String())
}

func TestComputeTotalsExcludesInitialCashAndAdjustments(t *testing.T) {
	base := time.Now()
	movements := []model.CashMovement{
		mov(model.MovementInitialCash, model.MethodCash, 1000, base),
		mov(model.MovementAdjustment, model.MethodCash, 50, base.Add(time.Minute)),
	}

	totals := service.ComputeTotals(dec(1000), movements)

	// The declared float is already the starting point — the audit entry must
	// not double it. Both entries still count toward the movement count.
	assert.Equal(t, "1000", totals.ExpectedCash.String())
	assert.True(t, totals.TotalSales.IsZero())
	assert.Equal(t, 2, totals.TotalMovements)
}

func TestComputeTotalsCountsDistinctOrders(t *testing.T) {
	base := time.Now()
	orderID := uuid.New()
	otherOrder := uuid.New()

	first := mov(model.MovementSale, model.MethodCash, 100, base)
	first.OrderID = &orderID
	second := mov(model.MovementSale, model.MethodCard, 200, base.Add(time.Minute))
	second.OrderID = &orderID
	third := mov(model.MovementSale, model.MethodCash, 50, base.Add(2*time.Minute))
	third.OrderID = &otherOrder

	totals := service.ComputeTotals(decimal.Zero, []model.CashMovement{first, second, third})

	assert.Equal(t, 2, totals.TotalOrders)
	assert.Equal(t, "350", totals.TotalSales.String())
}

func TestComputeTotalsReplaysInRecordedOrder(t *testing.T) {
	base := time.Now()
	// Passed newest-first on purpose: the expense would floor a zero drawer if
	// replayed as given. In recorded order the sale lands first.
	movements := []model.CashMovement{
		mov(model.MovementExpense, model.MethodCash, 100, base.Add(time.Minute)),
		mov(model.MovementSale, model.MethodCash, 300, base),
	}

	totals := service.ComputeTotals(decimal.Zero, movements)

	assert.Equal(t, "200", totals.ExpectedCash.String())
	assert.Equal(t, "200", totals.SalesByMethod[model.MethodCash].String())
}

func TestComputeTotalsBucketsCoverAllMethods(t *testing.T) {
	totals := service.ComputeTotals(decimal.Zero, nil)

	require.Len(t, totals.SalesByMethod, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		assert.True(t, totals.SalesByMethod[m].IsZero(), m)
	}
}
