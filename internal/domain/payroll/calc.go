package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"hrcore/internal/apperrors"
)

// ExpectedNet is base + allowances + bonus - deductions - tax.
func ExpectedNet(r Record) decimal.Decimal {
	return r.BaseSalary.Add(r.Allowances).Add(r.Bonus).Sub(r.Deductions).Sub(r.Tax)
}

// Evaluate attaches advisory warnings. A supplied net that disagrees with
// the formula is reported, never corrected.
func Evaluate(r Record) Result {
	expected := ExpectedNet(r)
	warnings := []string{}
	if !r.NetSalary.Equal(expected) {
		warnings = append(warnings, WarningNetVariance)
	}
	if r.NetSalary.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	return Result{Record: r, ExpectedNet: expected, Warnings: warnings}
}

func validateRecord(r Record) error {
	if r.AccountID == "" {
		return fmt.Errorf("%w: account id is required", apperrors.ErrValidation)
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", apperrors.ErrValidation)
	}
	if r.Year < MinYear || r.Year > MaxYear {
		return fmt.Errorf("%w: year must be between %d and %d", apperrors.ErrValidation, MinYear, MaxYear)
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"baseSalary", r.BaseSalary},
		{"allowances", r.Allowances},
		{"deductions", r.Deductions},
		{"bonus", r.Bonus},
		{"tax", r.Tax},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, a.name)
		}
	}
	return nil
}

func recordFromInput(in RecordInput) Record {
	return Record{
		AccountID:     in.AccountID,
		Month:         in.Month,
		Year:          in.Year,
		BaseSalary:    in.BaseSalary.Round(2),
		Allowances:    in.Allowances.Round(2),
		Deductions:    in.Deductions.Round(2),
		Bonus:         in.Bonus.Round(2),
		Tax:           in.Tax.Round(2),
		NetSalary:     in.NetSalary.Round(2),
		PaymentDate:   in.PaymentDate,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
	}
}

func applyPatch(r Record, p Patch) Record {
	if p.Month != nil {
		r.Month = *p.Month
	}
	if p.Year != nil {
		r.Year = *p.Year
	}
	setAmount(&r.BaseSalary, p.BaseSalary)
	setAmount(&r.Allowances, p.Allowances)
	setAmount(&r.Deductions, p.Deductions)
	setAmount(&r.Bonus, p.Bonus)
	setAmount(&r.Tax, p.Tax)
	setAmount(&r.NetSalary, p.NetSalary)
	if p.PaymentDate != nil {
		r.PaymentDate = p.PaymentDate
	}
	if p.PaymentMethod != nil {
		r.PaymentMethod = *p.PaymentMethod
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	return r
}

func setAmount(dst *decimal.Decimal, v *decimal.Decimal) {
	if v != nil {
		*dst = v.Round(2)
	}
}
