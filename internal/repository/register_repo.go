package repository

import (
	"context"
	"time"

	"courtpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterRepository persists cash sessions and their movement ledger.
// The ...Tx variants participate in a caller-owned transaction — the
// reconciliation pass runs entirely inside one.
type RegisterRepository interface {
	// DB exposes the underlying handle so services can open transactions.
	// Returns nil under the in-memory test fake.
	DB() *gorm.DB

	CreateSession(ctx context.Context, s *model.CashSession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindSessionByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	FindOpenSessionByFacility(ctx context.Context, facilityID uuid.UUID) (*model.CashSession, error)
	// FindSessionAt returns the session whose [opened_at, closed_at-or-now)
	// window contains the given instant, or gorm.ErrRecordNotFound.
	FindSessionAt(ctx context.Context, facilityID uuid.UUID, at time.Time) (*model.CashSession, error)
	FindSessionAtTx(tx *gorm.DB, facilityID uuid.UUID, at time.Time) (*model.CashSession, error)
	UpdateSession(ctx context.Context, s *model.CashSession) error
	// UpdateSessionTotalsTx rewrites the derived totals as a single update.
	UpdateSessionTotalsTx(tx *gorm.DB, s *model.CashSession) error
	ListClosedSessions(ctx context.Context, facilityID *uuid.UUID, page, limit int) ([]model.CashSession, int64, error)
	ListSessionIDsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]uuid.UUID, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	// ListMovements returns a session's movements ordered by recorded_at
	// (id as tie-break) — the sole read path for totals computation.
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	ListMovementsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error)

	// Matcher queries.
	SaleAmountsForBookingTx(tx *gorm.DB, bookingID uuid.UUID, method string) ([]decimal.Decimal, error)
	SaleExistsForOrderTx(tx *gorm.DB, orderID uuid.UUID, amount decimal.Decimal, method string) (bool, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) DB() *gorm.DB { return r.db }

func (r *registerRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *registerRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	return r.FindSessionByIDTx(r.db.WithContext(ctx), id)
}

func (r *registerRepo) FindSessionByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	if err := tx.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindOpenSessionByFacility(ctx context.Context, facilityID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("facility_id = ? AND status = ?", facilityID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindSessionAt(ctx context.Context, facilityID uuid.UUID, at time.Time) (*model.CashSession, error) {
	return r.FindSessionAtTx(r.db.WithContext(ctx), facilityID, at)
}

func (r *registerRepo) FindSessionAtTx(tx *gorm.DB, facilityID uuid.UUID, at time.Time) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.
		Where("facility_id = ? AND opened_at <= ? AND (closed_at IS NULL OR closed_at > ?)", facilityID, at, at).
		Order("opened_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) UpdateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *registerRepo) UpdateSessionTotalsTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Model(&model.CashSession{}).
		Where("id = ?", s.ID).
		Select("sales_by_method", "total_sales", "total_expenses", "total_withdrawals",
			"expected_cash", "total_orders", "total_movements").
		Updates(s).Error
}

func (r *registerRepo) ListClosedSessions(ctx context.Context, facilityID *uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CashSession{}).Where("status = ?", model.SessionClosed)
	if facilityID != nil {
		q = q.Where("facility_id = ?", *facilityID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []model.CashSession
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *registerRepo) ListSessionIDsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]uuid.UUID, error) {
	q := tx.Model(&model.CashSession{})
	if facilityID != nil {
		q = q.Where("facility_id = ?", *facilityID)
	}
	var ids []uuid.UUID
	err := q.Order("opened_at ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *registerRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *registerRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *registerRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	return r.ListMovementsTx(r.db.WithContext(ctx), sessionID)
}

func (r *registerRepo) ListMovementsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := tx.
		Where("session_id = ?", sessionID).
		Order("recorded_at ASC, id ASC").
		Find(&movs).Error
	return movs, err
}

func (r *registerRepo) SaleAmountsForBookingTx(tx *gorm.DB, bookingID uuid.UUID, method string) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := tx.Model(&model.CashMovement{}).
		Where("booking_id = ? AND method = ? AND kind = ?", bookingID, method, model.MovementSale).
		Order("recorded_at ASC, id ASC").
		Pluck("amount", &amounts).Error
	return amounts, err
}

func (r *registerRepo) SaleExistsForOrderTx(tx *gorm.DB, orderID uuid.UUID, amount decimal.Decimal, method string) (bool, error) {
	var count int64
	err := tx.Model(&model.CashMovement{}).
		Where("order_id = ? AND amount = ? AND method = ? AND kind = ?", orderID, amount, method, model.MovementSale).
		Count(&count).Error
	return count > 0, err
}
