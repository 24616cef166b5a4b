package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtpos/internal/dto"
	"courtpos/internal/model"
	"courtpos/internal/repository"
	"courtpos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterService owns the session lifecycle and the live side of the
// movement ledger. Sessions are created open, mutated only by appending
// movements, and closed exactly once.
type RegisterService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	RecordMovement(ctx context.Context, operatorID uuid.UUID, req dto.RecordMovementRequest) error
	GetCurrent(ctx context.Context, facilityID uuid.UUID) (*dto.SessionResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	History(ctx context.Context, facilityID *uuid.UUID, page, limit int) (*dto.SessionListResponse, error)
	// FindOpenSessionAt resolves the session whose window contains the given
	// instant. Returns (nil, nil) when no window matches — the caller decides
	// what "none" means; the ledger never guesses.
	FindOpenSessionAt(ctx context.Context, facilityID uuid.UUID, at time.Time) (*model.CashSession, error)
}

type registerService struct {
	repo       repository.RegisterRepository
	facilities repository.FacilityRepository
	dispatcher *worker.Dispatcher
}

func NewRegisterService(
	repo repository.RegisterRepository,
	facilities repository.FacilityRepository,
	dispatcher *worker.Dispatcher,
) RegisterService {
	return &registerService{repo: repo, facilities: facilities, dispatcher: dispatcher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *registerService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility_id", ErrValidation)
	}
	if req.InitialCash.IsNegative() {
		return nil, fmt.Errorf("%w: initial_cash cannot be negative", ErrValidation)
	}
	if s.facilities != nil {
		if _, err := s.facilities.FindByID(ctx, facilityID); err != nil {
			return nil, fmt.Errorf("%w: facility %s", ErrNotFound, facilityID)
		}
	}

	// Guard: one open session per facility. The partial unique index on
	// (facility_id) WHERE status='open' backs this up against races.
	if existing, err := s.repo.FindOpenSessionByFacility(ctx, facilityID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: facility already has an open cash session", ErrConflict)
	}

	session := &model.CashSession{
		FacilityID:   facilityID,
		OperatorID:   &operatorID,
		InitialCash:  req.InitialCash,
		Status:       model.SessionOpen,
		OpeningNotes: req.Notes,
		OpenedAt:     time.Now(),
	}
	applyTotals(session, ComputeTotals(req.InitialCash, nil))
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	// Audit entry for the declared float. Excluded from totals — the initial
	// amount is already the aggregator's starting point.
	if req.InitialCash.IsPositive() {
		mov := &model.CashMovement{
			SessionID:   session.ID,
			FacilityID:  facilityID,
			Kind:        model.MovementInitialCash,
			Amount:      req.InitialCash,
			Method:      model.MethodCash,
			OperatorID:  &operatorID,
			Description: "Opening float",
			RecordedAt:  session.OpenedAt,
		}
		if err := s.repo.CreateMovement(ctx, mov); err != nil {
			return nil, err
		}
		session.TotalMovements = 1
	}

	return sessionToResponse(session), nil
}

// ── Close ────────────────────────────────────────────────────────────────────
// Recomputes totals from the ledger, then records the operator count and the
// variance against expected cash. closed_at is set exactly once.

func (s *registerService) Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session_id", ErrValidation)
	}

	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash session %s", ErrNotFound, sessionID)
	}
	if session.Status != model.SessionOpen {
		return nil, fmt.Errorf("%w: cash session is already closed", ErrInvalidState)
	}

	movements, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	applyTotals(session, ComputeTotals(session.InitialCash, movements))

	now := time.Now()
	counted := req.CountedCash
	variance := counted.Sub(session.ExpectedCash)
	session.CountedCash = &counted
	session.CashVariance = &variance
	session.Status = model.SessionClosed
	session.ClosingNotes = req.Notes
	session.ClosedAt = &now

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	// Best-effort: mail the till report to the back office.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueCloseReport(ctx, worker.CloseReportPayload{
			SessionID: session.ID.String(),
		})
	}

	return sessionToResponse(session), nil
}

// ── RecordMovement ───────────────────────────────────────────────────────────
// Appends one immutable movement to an OPEN session. Amounts are positive
// magnitudes; the kind encodes direction. The backfill path bypasses the
// open-session check by construction (it writes through the repository with
// a window-matched session).

func (s *registerService) RecordMovement(ctx context.Context, operatorID uuid.UUID, req dto.RecordMovementRequest) error {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return fmt.Errorf("%w: invalid session_id", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !contains(model.MovementKinds, req.Kind) || req.Kind == model.MovementInitialCash {
		return fmt.Errorf("%w: unknown movement kind %q", ErrValidation, req.Kind)
	}
	if !contains(model.PaymentMethods, req.Method) {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.Method)
	}

	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: cash session %s", ErrNotFound, sessionID)
	}
	if session.Status != model.SessionOpen {
		return fmt.Errorf("%w: cash session is closed", ErrInvalidState)
	}

	var bookingID, orderID *uuid.UUID
	if req.BookingID != nil {
		id, err := uuid.Parse(*req.BookingID)
		if err != nil {
			return fmt.Errorf("%w: invalid booking_id", ErrValidation)
		}
		bookingID = &id
	}
	if req.OrderID != nil {
		id, err := uuid.Parse(*req.OrderID)
		if err != nil {
			return fmt.Errorf("%w: invalid order_id", ErrValidation)
		}
		orderID = &id
	}

	mov := &model.CashMovement{
		SessionID:   session.ID,
		FacilityID:  session.FacilityID,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Method:      req.Method,
		BookingID:   bookingID,
		OrderID:     orderID,
		OperatorID:  &operatorID,
		Description: req.Description,
		RecordedAt:  time.Now(),
	}
	return s.repo.CreateMovement(ctx, mov)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *registerService) GetCurrent(ctx context.Context, facilityID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindOpenSessionByFacility(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("%w: no open cash session for facility", ErrNotFound)
	}
	return sessionToResponse(session), nil
}

func (s *registerService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: cash session %s", ErrNotFound, sessionID)
	}
	// Always serve a fresh recompute — stored totals are only a cache.
	movements, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	applyTotals(session, ComputeTotals(session.InitialCash, movements))
	return sessionToResponse(session), nil
}

func (s *registerService) History(ctx context.Context, facilityID *uuid.UUID, page, limit int) (*dto.SessionListResponse, error) {
	sessions, total, err := s.repo.ListClosedSessions(ctx, facilityID, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, *sessionToResponse(&sessions[i]))
	}
	return &dto.SessionListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *registerService) FindOpenSessionAt(ctx context.Context, facilityID uuid.UUID, at time.Time) (*model.CashSession, error) {
	session, err := s.repo.FindSessionAt(ctx, facilityID, at)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	buckets := s.SalesByMethod.Data()
	if buckets == nil {
		buckets = make(map[string]decimal.Decimal, len(model.PaymentMethods))
		for _, m := range model.PaymentMethods {
			buckets[m] = decimal.Zero
		}
	}

	resp := &dto.SessionResponse{
		SessionID:   s.ID.String(),
		FacilityID:  s.FacilityID.String(),
		Status:      s.Status,
		InitialCash: s.InitialCash,
		Totals: dto.TotalsResponse{
			SalesByMethod:    buckets,
			TotalSales:       s.TotalSales,
			TotalExpenses:    s.TotalExpenses,
			TotalWithdrawals: s.TotalWithdrawals,
			ExpectedCash:     s.ExpectedCash,
			TotalOrders:      s.TotalOrders,
			TotalMovements:   s.TotalMovements,
		},
		CountedCash:  s.CountedCash,
		CashVariance: s.CashVariance,
		OpeningNotes: s.OpeningNotes,
		ClosingNotes: s.ClosingNotes,
		OpenedAt:     s.OpenedAt.UTC().Format(time.RFC3339),
	}
	if s.OperatorID != nil {
		op := s.OperatorID.String()
		resp.OperatorID = &op
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
