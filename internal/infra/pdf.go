package infra

// pdf.go — Till report generation using go-pdf/fpdf.
// One A5 page per closed session: header, session window, per-method sales,
// expense/withdrawal totals, expected vs counted cash and the variance, plus
// a movement appendix. Saved to storagePath/till_{session}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"courtpos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateSessionReportPDF renders the end-of-shift till report for a session.
// storagePath is created if needed. Returns the absolute path of the file.
func GenerateSessionReportPDF(session *model.CashSession, movements []model.CashMovement, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("till_%s.pdf", session.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Till Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Session %s", session.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Facility %s", session.FacilityID), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Opened: "+session.OpenedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if session.ClosedAt != nil {
		pdf.CellFormat(contentW, 5, "Closed: "+session.ClosedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.6
	col2 := contentW * 0.4

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(col1, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, value, "", 1, "R", false, 0, "")
	}

	// ── Sales by method ──────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, "Sales by method", "", 1, "L", false, 0, "")
	buckets := session.SalesByMethod.Data()
	for _, method := range model.PaymentMethods {
		amount, ok := buckets[method]
		if !ok || amount.IsZero() {
			continue
		}
		row(method, "$"+amount.StringFixed(2), false)
	}
	row("Total sales", "$"+session.TotalSales.StringFixed(2), true)
	pdf.Ln(2)

	// ── Cash position ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, "Cash position", "", 1, "L", false, 0, "")
	row("Opening float", "$"+session.InitialCash.StringFixed(2), false)
	row("Expenses", "-$"+session.TotalExpenses.StringFixed(2), false)
	row("Withdrawals", "-$"+session.TotalWithdrawals.StringFixed(2), false)
	row("Expected cash", "$"+session.ExpectedCash.StringFixed(2), true)
	if session.CountedCash != nil {
		row("Counted cash", "$"+session.CountedCash.StringFixed(2), true)
	}
	if session.CashVariance != nil {
		row("Variance", formatSigned(*session.CashVariance), true)
	}
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Movement appendix ────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Movements (%d)", len(movements)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	for _, mov := range movements {
		desc := mov.Description
		if len(desc) > 34 {
			desc = desc[:33] + "…"
		}
		pdf.CellFormat(contentW*0.24, 4, mov.RecordedAt.Format("02/01 15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.5, 4, fmt.Sprintf("%s %s", mov.Kind, desc), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.26, 4, "$"+mov.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func formatSigned(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
