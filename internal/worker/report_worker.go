package worker

// report_worker.go
// Processes close-report jobs from QueueCloseReport: renders a till report
// PDF for the closed session and mails it to the back-office inbox. SMTP
// sends run through the circuit breaker so a downed relay fails fast.

import (
	"context"
	"encoding/json"
	"fmt"

	"courtpos/internal/infra"
	"courtpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReportWorker struct {
	repo        repository.RegisterRepository
	mailer      *infra.Mailer
	cb          *infra.CircuitBreaker
	storagePath string
	reportEmail string
}

func NewReportWorker(
	repo repository.RegisterRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	storagePath, reportEmail string,
) *ReportWorker {
	return &ReportWorker{
		repo:        repo,
		mailer:      mailer,
		cb:          cb,
		storagePath: storagePath,
		reportEmail: reportEmail,
	}
}

// Process renders and mails the till report for one closed session.
// Returning an error makes the pool retry and eventually DLQ the job.
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload CloseReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	if w.reportEmail == "" {
		log.Warn().Msg("report_worker: no report email configured — skipping")
		return nil
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("report_worker: invalid session id")
		return nil
	}

	session, err := w.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("report_worker: load session: %w", err)
	}
	movements, err := w.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("report_worker: load movements: %w", err)
	}

	pdfPath, err := infra.GenerateSessionReportPDF(session, movements, w.storagePath)
	if err != nil {
		return fmt.Errorf("report_worker: render pdf: %w", err)
	}

	subject := fmt.Sprintf("Till report — session %s", shortID(session.ID))
	body := fmt.Sprintf(
		"Cash session %s closed.\nExpected cash: %s\nCounted cash: %s\nVariance: %s\n",
		session.ID, session.ExpectedCash.StringFixed(2),
		fixedOrDash(session.CountedCash), fixedOrDash(session.CashVariance),
	)

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendReport(w.reportEmail, subject, body, pdfPath)
	})
	if sendErr != nil {
		return fmt.Errorf("report_worker: send email: %w", sendErr)
	}

	log.Info().Str("session_id", session.ID.String()).Msg("report_worker: till report sent")
	return nil
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}

func fixedOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}
