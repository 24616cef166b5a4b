package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtpos/internal/dto"
	"courtpos/internal/model"
	"courtpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReconcileService detects payments recorded upstream (booking deposits,
// order payments) that never produced a ledger movement, reconstructs the
// missing movements against the session that was open at the time, and
// recomputes every affected total from the corrected ledger.
//
// The whole pass runs in one transaction: either every detected gap is
// inserted and every affected session recomputed, or nothing changes. Once
// committed there is no inverse — synthesized movements are ordinary
// immutable ledger entries.
type ReconcileService interface {
	// Reconcile repairs one facility, or every facility when facilityID is
	// nil (bulk mode, which also recomputes all sessions). The report is
	// returned even when payments had to be skipped.
	Reconcile(ctx context.Context, facilityID *uuid.UUID) (*dto.ReconcileReport, error)
}

type reconcileService struct {
	repo     repository.RegisterRepository
	payments repository.PaymentSourceRepository
	agg      *Aggregator
	rdb      *redis.Client
	lockTTL  time.Duration
}

func NewReconcileService(
	repo repository.RegisterRepository,
	payments repository.PaymentSourceRepository,
	agg *Aggregator,
	rdb *redis.Client,
	lockTTL time.Duration,
) ReconcileService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &reconcileService{repo: repo, payments: payments, agg: agg, rdb: rdb, lockTTL: lockTTL}
}

func (s *reconcileService) Reconcile(ctx context.Context, facilityID *uuid.UUID) (*dto.ReconcileReport, error) {
	// Single-flight per scope: the pass is not reentrant-safe — two
	// concurrent passes could double-insert the same recovered movement.
	scope := "all"
	if facilityID != nil {
		scope = facilityID.String()
	}
	if s.rdb != nil {
		lockKey := "reconcile:lock:" + scope
		ok, err := s.rdb.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("reconcile: acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: a reconciliation pass is already running for %s", ErrConflict, scope)
		}
		defer s.rdb.Del(context.WithoutCancel(ctx), lockKey)
	}

	report := &dto.ReconcileReport{}
	touched := make(map[uuid.UUID]bool)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		missing, err := s.detectGaps(tx, facilityID)
		if err != nil {
			return err
		}

		for _, gap := range missing {
			session, err := s.repo.FindSessionAtTx(tx, gap.record.FacilityID, gap.record.PaidAt)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// Money is never fabricated into a session that was
					// never open — record the skip and move on.
					report.SkippedNoRegister++
					continue
				}
				return err
			}

			mov := &model.CashMovement{
				SessionID:   session.ID,
				FacilityID:  gap.record.FacilityID,
				Kind:        model.MovementSale,
				Amount:      gap.record.Amount,
				Method:      gap.record.Method,
				BookingID:   gap.record.BookingID,
				OrderID:     gap.record.OrderID,
				OperatorID:  gap.record.OperatorID,
				Description: gap.description,
				RecordedAt:  gap.record.PaidAt,
			}
			if err := s.repo.CreateMovementTx(tx, mov); err != nil {
				return err
			}
			touched[session.ID] = true
			report.MovementsCreated++
		}

		// Rebuild totals from the now-complete ledger: every touched session,
		// or every session in bulk mode.
		var ids []uuid.UUID
		if facilityID == nil {
			ids, err = s.repo.ListSessionIDsTx(tx, nil)
			if err != nil {
				return err
			}
		} else {
			for id := range touched {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			if _, err := s.agg.RecalculateTx(tx, id); err != nil {
				return err
			}
			report.SessionsRecomputed++
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("scope", scope).
		Int("created", report.MovementsCreated).
		Int("skipped_no_register", report.SkippedNoRegister).
		Int("recomputed", report.SessionsRecomputed).
		Msg("reconciliation pass committed")

	return report, nil
}

// gap is one payment with no matching ledger movement.
type gap struct {
	record      model.PaymentRecord
	description string
}

// detectGaps runs both detection passes and returns the missing payments in
// original chronological order per source.
func (s *reconcileService) detectGaps(tx *gorm.DB, facilityID *uuid.UUID) ([]gap, error) {
	var gaps []gap

	bookingGaps, err := s.detectBookingGaps(tx, facilityID)
	if err != nil {
		return nil, err
	}
	gaps = append(gaps, bookingGaps...)

	orderGaps, err := s.detectOrderGaps(tx, facilityID)
	if err != nil {
		return nil, err
	}
	gaps = append(gaps, orderGaps...)

	return gaps, nil
}

// detectBookingGaps compares declared booking payments against recorded sale
// movements per (booking, method) with a multiset difference over amounts.
// Declared amounts are consumed oldest first against the first recorded
// amount of exactly equal value; whatever finds no pairing is missing.
// Amounts are fungible, so any valid pairing is correct — the
// first-available-match rule only exists to make the pass deterministic.
func (s *reconcileService) detectBookingGaps(tx *gorm.DB, facilityID *uuid.UUID) ([]gap, error) {
	declared, err := s.payments.ListDeclaredBookingPaymentsTx(tx, facilityID)
	if err != nil {
		return nil, err
	}
	if len(declared) == 0 {
		return nil, nil
	}

	type groupKey struct {
		bookingID uuid.UUID
		method    string
	}
	groups := make(map[groupKey][]model.PaymentRecord)
	var order []groupKey
	for _, p := range declared {
		if p.BookingID == nil {
			continue
		}
		k := groupKey{bookingID: *p.BookingID, method: p.Method}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], p)
	}

	var gaps []gap
	for _, k := range order {
		recorded, err := s.repo.SaleAmountsForBookingTx(tx, k.bookingID, k.method)
		if err != nil {
			return nil, err
		}
		available := make(map[string]int, len(recorded))
		for _, a := range recorded {
			available[a.String()]++
		}
		for _, p := range groups[k] {
			key := p.Amount.String()
			if available[key] > 0 {
				available[key]--
				continue
			}
			gaps = append(gaps, gap{
				record:      p,
				description: "Recovered booking payment (reconciliation backfill)",
			})
		}
	}
	return gaps, nil
}

// detectOrderGaps checks each order payment for an existing sale movement
// with the same order reference, amount and method. Order payments map 1:1
// to prospective movements, so a plain existence check suffices.
func (s *reconcileService) detectOrderGaps(tx *gorm.DB, facilityID *uuid.UUID) ([]gap, error) {
	payments, err := s.payments.ListOrderPaymentsTx(tx, facilityID)
	if err != nil {
		return nil, err
	}

	var gaps []gap
	for _, p := range payments {
		if p.OrderID == nil {
			continue
		}
		exists, err := s.repo.SaleExistsForOrderTx(tx, *p.OrderID, p.Amount, p.Method)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		gaps = append(gaps, gap{
			record:      p,
			description: "Recovered order payment (reconciliation backfill)",
		})
	}
	return gaps, nil
}
