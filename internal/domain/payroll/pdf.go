package payroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	cryptoutil "payday/internal/platform/crypto"
)

// maskAccount keeps only the last four characters of an account number
// visible on the rendered payslip.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}

// GeneratePayslipPDF renders a released payslip to storage/payslips and
// returns the file path. With encryption at rest configured the PDF is
// stored encrypted and the plain file removed.
func (s *Service) GeneratePayslipPDF(ctx context.Context, crypto *cryptoutil.Service, payslipID string) (string, error) {
	slip, err := s.store.GetPayslip(ctx, payslipID)
	if err != nil {
		return "", err
	}
	if slip.Release != ReleaseReleased {
		return "", ErrPayslipNotReleased
	}

	if err := os.MkdirAll("storage/payslips", 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join("storage/payslips", slip.ID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", slip.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", slip.EmployeeEmail))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", slip.Period.String()))
	pdf.Ln(7)
	if crypto != nil && len(slip.BankAccountEnc) > 0 {
		if account, err := crypto.DecryptString(slip.BankAccountEnc); err == nil && account != "" {
			pdf.Cell(0, 8, fmt.Sprintf("Paid to: %s", maskAccount(account)))
			pdf.Ln(7)
		}
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range slip.Earnings {
		if !line.Visible {
			continue
		}
		pdf.Cell(120, 7, line.Label)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", line.Amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range slip.Deductions {
		if !line.Visible {
			continue
		}
		pdf.Cell(120, 7, line.Label)
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", line.Amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", slip.Gross))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %.2f", slip.TotalDeductions))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", slip.Net))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}

	if crypto != nil && crypto.Configured() {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		encrypted, err := crypto.Encrypt(data)
		if err != nil {
			return "", err
		}
		encryptedPath := filePath + ".enc"
		if err := os.WriteFile(encryptedPath, encrypted, 0o600); err != nil {
			return "", err
		}
		if err := os.Remove(filePath); err != nil {
			return "", err
		}
		return encryptedPath, nil
	}

	return filePath, nil
}
