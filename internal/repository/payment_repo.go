package repository

import (
	"courtpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentSourceRepository is the read-only view over the two upstream payment
// feeds. The reconciliation core never mutates these tables; it only scans
// them for gaps. Both listings tolerate empty feeds.
type PaymentSourceRepository interface {
	// ListDeclaredBookingPaymentsTx returns declared booking payments in
	// paid_at order (oldest first), optionally scoped to one facility.
	ListDeclaredBookingPaymentsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error)
	// ListOrderPaymentsTx returns order payments in paid_at order.
	ListOrderPaymentsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error)
}

type paymentSourceRepo struct{ db *gorm.DB }

func NewPaymentSourceRepository(db *gorm.DB) PaymentSourceRepository {
	return &paymentSourceRepo{db: db}
}

func (r *paymentSourceRepo) ListDeclaredBookingPaymentsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error) {
	q := tx.Table("booking_payments").
		Select(`booking_payments.id, booking_payments.booking_id, bookings.facility_id,
			booking_payments.amount, booking_payments.method,
			booking_payments.operator_id, booking_payments.paid_at`).
		Joins("JOIN bookings ON bookings.id = booking_payments.booking_id").
		Where("booking_payments.classification = ?", model.PaymentDeclared)
	if facilityID != nil {
		q = q.Where("bookings.facility_id = ?", *facilityID)
	}

	var records []model.PaymentRecord
	err := q.Order("booking_payments.paid_at ASC").Scan(&records).Error
	return records, err
}

func (r *paymentSourceRepo) ListOrderPaymentsTx(tx *gorm.DB, facilityID *uuid.UUID) ([]model.PaymentRecord, error) {
	q := tx.Table("order_payments").
		Select(`order_payments.id, order_payments.order_id, orders.facility_id,
			order_payments.amount, order_payments.method,
			order_payments.operator_id, order_payments.paid_at`).
		Joins("JOIN orders ON orders.id = order_payments.order_id")
	if facilityID != nil {
		q = q.Where("orders.facility_id = ?", *facilityID)
	}

	var records []model.PaymentRecord
	err := q.Order("order_payments.paid_at ASC").Scan(&records).Error
	return records, err
}
