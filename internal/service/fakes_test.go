package service_test

import (
	"context"
	"sort"
	"time"

	"courtpos/internal/model"
	"courtpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory RegisterRepository ─────────────────────────────────────────────

type fakeRegisterRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newFakeRegisterRepo() *fakeRegisterRepo {
	return &fakeRegisterRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

// DB returns nil so services run their transaction callback directly.
func (r *fakeRegisterRepo) DB() *gorm.DB { return nil }

func (r *fakeRegisterRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRegisterRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	return r.FindSessionByIDTx(nil, id)
}

func (r *fakeRegisterRepo) FindSessionByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRegisterRepo) FindOpenSessionByFacility(_ context.Context, facilityID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.FacilityID == facilityID && s.Status == model.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRegisterRepo) FindSessionAt(_ context.Context, facilityID uuid.UUID, at time.Time) (*model.CashSession, error) {
	return r.FindSessionAtTx(nil, facilityID, at)
}

func (r *fakeRegisterRepo) FindSessionAtTx(_ *gorm.DB, facilityID uuid.UUID, at time.Time) (*model.CashSession, error) {
	var best *model.CashSession
	for _, s := range r.sessions {
		if s.FacilityID != facilityID || s.OpenedAt.After(at) {
			continue
		}
		if s.ClosedAt != nil && !s.ClosedAt.After(at) {
			continue
		}
		if best == nil || s.OpenedAt.After(best.OpenedAt) {
			best = s
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *fakeRegisterRepo) UpdateSession(_ context.Context, s *model.CashSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRegisterRepo) UpdateSessionTotalsTx(_ *gorm.DB, s *model.CashSession) error {
	stored, ok := r.sessions[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.SalesByMethod = s.SalesByMethod
	stored.TotalSales = s.TotalSales
	stored.TotalExpenses = s.TotalExpenses
	stored.TotalWithdrawals = s.TotalWithdrawals
	stored.ExpectedCash = s.ExpectedCash
	stored.TotalOrders = s.TotalOrders
	stored.TotalMovements = s.TotalMovements
	return nil
}

func (r *fakeRegisterRepo) ListClosedSessions(_ context.Context, facilityID *uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	var all []model.CashSession
	for _, s := range r.sessions {
		if s.Status != model.SessionClosed {
			continue
		}
		if facilityID != nil && s.FacilityID != *facilityID {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ClosedAt.After(*all[j].ClosedAt)
	})
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeRegisterRepo) ListSessionIDsTx(_ *gorm.DB, facilityID *uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, s := range r.sessions {
		if facilityID != nil && s.FacilityID != *facilityID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r *fakeRegisterRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return r.CreateMovementTx(nil, m)
}

func (r *fakeRegisterRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeRegisterRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return r.ListMovementsTx(nil, sessionID)
}

func (r *fakeRegisterRepo) ListMovementsTx(_ *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var result []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RecordedAt.Equal(result[j].RecordedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

func (r *fakeRegisterRepo) SaleAmountsForBookingTx(_ *gorm.DB, bookingID uuid.UUID, method string) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	for _, m := range r.movements {
		if m.Kind == model.MovementSale && m.Method == method &&
			m.BookingID != nil && *m.BookingID == bookingID {
			amounts = append(amounts, m.Amount)
		}
	}
	return amounts, nil
}

func (r *fakeRegisterRepo) SaleExistsForOrderTx(_ *gorm.DB, orderID uuid.UUID, amount decimal.Decimal, method string) (bool, error) {
	for _, m := range r.movements {
		if m.Kind == model.MovementSale && m.Method == method &&
			m.OrderID != nil && *m.OrderID == orderID && m.Amount.Equal(amount) {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.RegisterRepository = (*fakeRegisterRepo)(nil)

// ── In-memory PaymentSourceRepository ────────────────────────────────────────

type fakePaymentRepo struct {
	bookingPayments []model.PaymentRecord
	orderPayments   []model.PaymentRecord
}

func (r *fakePaymentRepo) ListDeclaredBookingPaymentsTx(_ *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error) {
	return filterByFacility(r.bookingPayments, facilityID), nil
}

func (r *fakePaymentRepo) ListOrderPaymentsTx(_ *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error) {
	return filterByFacility(r.orderPayments, facilityID), nil
}

func filterByFacility(records []model.PaymentRecord, facilityID *uuid.UUID) []model.PaymentRecord {
	var result []model.PaymentRecord
	for _, p := range records {
		if facilityID != nil && p.FacilityID != *facilityID {
			continue
		}
		result = append(result, p)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PaidAt.Before(result[j].PaidAt)
	})
	return result
}

var _ repository.PaymentSourceRepository = (*fakePaymentRepo)(nil)

// ── In-memory FacilityRepository ─────────────────────────────────────────────

type fakeFacilityRepo struct {
	facilities map[uuid.UUID]*model.Facility
}

func newFakeFacilityRepo(ids ...uuid.UUID) *fakeFacilityRepo {
	r := &fakeFacilityRepo{facilities: make(map[uuid.UUID]*model.Facility)}
	for _, id := range ids {
		r.facilities[id] = &model.Facility{ID: id, Name: "Court " + id.String()[:8], Active: true}
	}
	return r
}

func (r *fakeFacilityRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Facility, error) {
	f, ok := r.facilities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (r *fakeFacilityRepo) List(_ context.Context) ([]model.Facility, error) {
	var all []model.Facility
	for _, f := range r.facilities {
		all = append(all, *f)
	}
	return all, nil
}

var _ repository.FacilityRepository = (*fakeFacilityRepo)(nil)
