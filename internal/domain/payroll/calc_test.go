package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amounts(base, allowances, deductions, bonus, tax, net string) Record {
	return Record{
		AccountID:  "acct-1",
		Month:      6,
		Year:       2025,
		BaseSalary: decimal.RequireFromString(base),
		Allowances: decimal.RequireFromString(allowances),
		Deductions: decimal.RequireFromString(deductions),
		Bonus:      decimal.RequireFromString(bonus),
		Tax:        decimal.RequireFromString(tax),
		NetSalary:  decimal.RequireFromString(net),
	}
}

func TestExpectedNet(t *testing.T) {
	r := amounts("1000", "200.50", "100", "50", "120.25", "0")
	if got := ExpectedNet(r).String(); got != "1030.25" {
		t.Fatalf("expected 1030.25, got %s", got)
	}
}

func TestEvaluateWarnings(t *testing.T) {
	exact := Evaluate(amounts("1000", "0", "0", "0", "0", "1000"))
	if len(exact.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", exact.Warnings)
	}

	off := Evaluate(amounts("1000", "0", "0", "0", "0", "900"))
	if len(off.Warnings) != 1 || off.Warnings[0] != WarningNetVariance {
		t.Fatalf("expected net_variance, got %v", off.Warnings)
	}
	if !off.NetSalary.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("supplied net must be kept, got %s", off.NetSalary)
	}

	negative := Evaluate(amounts("100", "0", "150", "0", "0", "-50"))
	if len(negative.Warnings) != 1 || negative.Warnings[0] != WarningNegativeNet {
		t.Fatalf("expected negative_net only, got %v", negative.Warnings)
	}
}

func TestValidateRecord(t *testing.T) {
	cases := map[string]Record{
		"month zero":      func() Record { r := amounts("1", "0", "0", "0", "0", "1"); r.Month = 0; return r }(),
		"month thirteen":  func() Record { r := amounts("1", "0", "0", "0", "0", "1"); r.Month = 13; return r }(),
		"ancient year":    func() Record { r := amounts("1", "0", "0", "0", "0", "1"); r.Year = 1899; return r }(),
		"negative base":   amounts("-1", "0", "0", "0", "0", "1"),
		"negative tax":    amounts("1", "0", "0", "0", "-0.01", "1"),
		"missing account": func() Record { r := amounts("1", "0", "0", "0", "0", "1"); r.AccountID = ""; return r }(),
	}
	for name, r := range cases {
		if err := validateRecord(r); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := validateRecord(amounts("1", "0", "0", "0", "0", "-5")); err != nil {
		t.Fatalf("negative net is allowed: %v", err)
	}
}
