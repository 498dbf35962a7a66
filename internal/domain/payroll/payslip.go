package payroll

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPayslip draws a one-page A4 payslip and returns the PDF bytes.
func RenderPayslip(d PayslipData) ([]byte, error) {
	period := time.Date(d.Year, time.Month(d.Month), 1, 0, 0, 0, 0, time.UTC)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", d.LoginID, period.Format("2006-01")), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", strings.TrimSpace(d.FirstName+" "+d.LastName), d.LoginID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", d.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", period.Format("January 2006")))
	pdf.Ln(10)

	lines := []struct {
		label string
		value string
	}{
		{"Base salary", d.BaseSalary.StringFixed(2)},
		{"Allowances", d.Allowances.StringFixed(2)},
		{"Bonus", d.Bonus.StringFixed(2)},
		{"Deductions", d.Deductions.StringFixed(2)},
		{"Tax", d.Tax.StringFixed(2)},
	}
	for _, line := range lines {
		pdf.CellFormat(60, 8, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, line.value, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(60, 8, "Net", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, d.NetSalary.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)

	if d.PaymentDate != nil || d.PaymentMethod != "" {
		pdf.Ln(6)
		paid := "-"
		if d.PaymentDate != nil {
			paid = d.PaymentDate.Format("2006-01-02")
		}
		pdf.Cell(0, 8, fmt.Sprintf("Paid: %s %s", paid, d.PaymentMethod))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
