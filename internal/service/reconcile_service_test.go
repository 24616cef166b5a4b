package service_test

import (
	"context"
	"testing"
	"time"

	"courtpos/internal/model"
	"courtpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileService(repo *fakeRegisterRepo, payments *fakePaymentRepo) service.ReconcileService {
	return service.NewReconcileService(repo, payments, service.NewAggregator(repo), nil, 0)
}

// openSession seeds a session directly in the fake, bypassing the service.
func openSession(t *testing.T, repo *fakeRegisterRepo, facilityID uuid.UUID, initialCash decimal.Decimal, openedAt time.Time) uuid.UUID {
	t.Helper()
	s := &model.CashSession{
		ID:          uuid.New(),
		FacilityID:  facilityID,
		InitialCash: initialCash,
		Status:      model.SessionOpen,
		OpenedAt:    openedAt,
	}
	require.NoError(t, repo.CreateSession(context.Background(), s))
	return s.ID
}

func bookingPayment(facilityID, bookingID uuid.UUID, amount decimal.Decimal, method string, paidAt time.Time) model.PaymentRecord {
	return model.PaymentRecord{
		ID:         uuid.New(),
		FacilityID: facilityID,
		BookingID:  &bookingID,
		Amount:     amount,
		Method:     method,
		PaidAt:     paidAt,
	}
}

func orderPayment(facilityID, orderID uuid.UUID, amount decimal.Decimal, method string, paidAt time.Time) model.PaymentRecord {
	return model.PaymentRecord{
		ID:         uuid.New(),
		FacilityID: facilityID,
		OrderID:    &orderID,
		Amount:     amount,
		Method:     method,
		PaidAt:     paidAt,
	}
}

func TestReconcileBackfillsMissingBookingPayment(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	sessionID := openSession(t, repo, facilityID, dec(1000), base)

	// Two declared cash payments of 500, only one ever reached the ledger.
	require.NoError(t, repo.CreateMovement(context.Background(), &model.CashMovement{
		SessionID:   sessionID,
		FacilityID:  facilityID,
		Kind:        model.MovementSale,
		Amount:      dec(500),
		Method:      model.MethodCash,
		BookingID:   &bookingID,
		Description: "Booking deposit",
		RecordedAt:  base.Add(time.Hour),
	}))
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, dec(500), model.MethodCash, base.Add(time.Hour)),
		bookingPayment(facilityID, bookingID, dec(500), model.MethodCash, base.Add(2*time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)

	assert.Equal(t, 1, report.MovementsCreated)
	assert.Equal(t, 0, report.SkippedNoRegister)
	assert.Equal(t, 1, report.SessionsRecomputed)

	// Corrected totals: both 500s in the drawer on top of the float.
	session := repo.sessions[sessionID]
	assert.Equal(t, "2000", session.ExpectedCash.String())
	assert.Equal(t, "1000", session.TotalSales.String())
	assert.Equal(t, 2, session.TotalMovements)

	// The synthesized movement keeps the source payment's business time.
	movements, _ := repo.ListMovements(context.Background(), sessionID)
	require.Len(t, movements, 2)
	assert.True(t, movements[1].RecordedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, bookingID, *movements[1].BookingID)
}

func TestReconcileRunsAreIdempotent(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	openSession(t, repo, facilityID, dec(1000), base)
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, dec(500), model.MethodCash, base.Add(time.Hour)),
	}}
	svc := newReconcileService(repo, payments)

	first, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.MovementsCreated)

	// A second pass over the repaired ledger must create nothing.
	second, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MovementsCreated)
	assert.Len(t, repo.movements, 1)
}

func TestReconcileMatchesAmountsAcrossScales(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	sessionID := openSession(t, repo, facilityID, dec(1000), base)

	// Recorded as "500", declared as "500.00" — exact decimal equality, not
	// string equality, decides the pairing.
	require.NoError(t, repo.CreateMovement(context.Background(), &model.CashMovement{
		SessionID:  sessionID,
		FacilityID: facilityID,
		Kind:       model.MovementSale,
		Amount:     decimal.RequireFromString("500"),
		Method:     model.MethodCash,
		BookingID:  &bookingID,
		RecordedAt: base.Add(time.Hour),
	}))
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, decimal.RequireFromString("500.00"), model.MethodCash, base.Add(time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MovementsCreated)
}

func TestReconcileSkipsPaymentOutsideAnyWindow(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	openSession(t, repo, facilityID, dec(1000), base)

	// Paid a day before the facility ever opened a till.
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, dec(500), model.MethodCash, base.Add(-24*time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)

	assert.Equal(t, 0, report.MovementsCreated)
	assert.Equal(t, 1, report.SkippedNoRegister)
	assert.Empty(t, repo.movements)
}

func TestReconcileAttributesToClosedHistoricalSession(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-72 * time.Hour)
	closedAt := base.Add(8 * time.Hour)

	historic := &model.CashSession{
		ID:          uuid.New(),
		FacilityID:  facilityID,
		InitialCash: dec(200),
		Status:      model.SessionClosed,
		OpenedAt:    base,
		ClosedAt:    &closedAt,
	}
	require.NoError(t, repo.CreateSession(context.Background(), historic))
	openSession(t, repo, facilityID, dec(1000), time.Now().Add(-time.Hour))

	// The payment falls inside the historic shift, not the current one.
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, dec(300), model.MethodCash, base.Add(2*time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)

	assert.Equal(t, 1, report.MovementsCreated)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, historic.ID, repo.movements[0].SessionID)

	// Closing a session never freezes it against repairs.
	assert.Equal(t, "500", repo.sessions[historic.ID].ExpectedCash.String())
}

func TestReconcileOrderPaymentsExistenceCheck(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	orderID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	openSession(t, repo, facilityID, dec(1000), base)

	// Two identical order payments against an empty ledger: detection happens
	// before synthesis, so both are gaps.
	payments := &fakePaymentRepo{orderPayments: []model.PaymentRecord{
		orderPayment(facilityID, orderID, dec(250), model.MethodCard, base.Add(time.Hour)),
		orderPayment(facilityID, orderID, dec(250), model.MethodCard, base.Add(2*time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MovementsCreated)

	// Once any matching movement exists, the existence check satisfies every
	// identical payment — the second pass creates nothing.
	second, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MovementsCreated)
}

func TestReconcileOrderPaymentAlreadyRecorded(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	orderID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	sessionID := openSession(t, repo, facilityID, dec(1000), base)
	require.NoError(t, repo.CreateMovement(context.Background(), &model.CashMovement{
		SessionID:  sessionID,
		FacilityID: facilityID,
		Kind:       model.MovementSale,
		Amount:     dec(250),
		Method:     model.MethodCard,
		OrderID:    &orderID,
		RecordedAt: base.Add(time.Hour),
	}))
	payments := &fakePaymentRepo{orderPayments: []model.PaymentRecord{
		orderPayment(facilityID, orderID, dec(250), model.MethodCard, base.Add(time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MovementsCreated)
}

func TestReconcileBulkModeRecomputesEverySession(t *testing.T) {
	repo := newFakeRegisterRepo()
	base := time.Now().Add(-4 * time.Hour)
	first := openSession(t, repo, uuid.New(), dec(100), base)
	second := openSession(t, repo, uuid.New(), dec(200), base)

	svc := newReconcileService(repo, &fakePaymentRepo{})
	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.MovementsCreated)
	assert.Equal(t, 2, report.SessionsRecomputed)
	// Even with an empty ledger the recompute writes the derived baseline.
	assert.Equal(t, "100", repo.sessions[first].ExpectedCash.String())
	assert.Equal(t, "200", repo.sessions[second].ExpectedCash.String())
}

func TestReconcileMethodMismatchIsAGap(t *testing.T) {
	repo := newFakeRegisterRepo()
	facilityID := uuid.New()
	bookingID := uuid.New()
	base := time.Now().Add(-4 * time.Hour)

	sessionID := openSession(t, repo, facilityID, dec(1000), base)

	// Same amount, wrong method — the recorded card sale cannot satisfy a
	// declared cash payment.
	require.NoError(t, repo.CreateMovement(context.Background(), &model.CashMovement{
		SessionID:  sessionID,
		FacilityID: facilityID,
		Kind:       model.MovementSale,
		Amount:     dec(500),
		Method:     model.MethodCard,
		BookingID:  &bookingID,
		RecordedAt: base.Add(time.Hour),
	}))
	payments := &fakePaymentRepo{bookingPayments: []model.PaymentRecord{
		bookingPayment(facilityID, bookingID, dec(500), model.MethodCash, base.Add(time.Hour)),
	}}

	svc := newReconcileService(repo, payments)
	report, err := svc.Reconcile(context.Background(), &facilityID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MovementsCreated)
	assert.Len(t, repo.movements, 2)
}
