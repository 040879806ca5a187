package payroll

import (
	"testing"
	"time"
)

func hasFinding(det Detection, code string) bool {
	for _, f := range det.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestDetectNegativeNet(t *testing.T) {
	slip := &Payslip{Gross: 100, TotalDeductions: 150, Net: -50}
	det := Detect(slip, nil)
	if !hasFinding(det, FindingNegativeNet) {
		t.Fatal("expected negative_net finding")
	}
	if !hasFinding(det, FindingDeductionsExceed) {
		t.Fatal("expected deductions_exceed_gross finding")
	}
	if !det.HasHigh || det.Severity != SeverityHigh {
		t.Fatalf("expected high severity, got %+v", det)
	}
}

func TestDetectDeductionRatio(t *testing.T) {
	slip := &Payslip{Gross: 1000, TotalDeductions: 601, Net: 399}
	det := Detect(slip, nil)
	if !hasFinding(det, FindingDeductionRatio) {
		t.Fatal("expected deduction_ratio finding")
	}
	if !det.HasHigh {
		t.Fatal("ratio finding is high severity")
	}
}

func TestDetectDeductionRatioBoundary(t *testing.T) {
	// exactly 60% does not fire
	slip := &Payslip{Gross: 1000, TotalDeductions: 600, Net: 400}
	det := Detect(slip, nil)
	if hasFinding(det, FindingDeductionRatio) {
		t.Fatal("60% exactly should not fire")
	}
}

func TestDetectVariance(t *testing.T) {
	history := []HistoryTotals{
		{Period: Period{Year: 2025, Month: time.March}, Gross: 1000, Net: 900},
		{Period: Period{Year: 2025, Month: time.April}, Gross: 1000, Net: 900},
		{Period: Period{Year: 2025, Month: time.May}, Gross: 1000, Net: 900},
	}
	slip := &Payslip{Gross: 1500, TotalDeductions: 0, Net: 1500}
	det := Detect(slip, history)
	if !hasFinding(det, FindingGrossVariance) {
		t.Fatal("expected gross_variance finding")
	}
	if !hasFinding(det, FindingNetVariance) {
		t.Fatal("expected net_variance finding")
	}
	if det.HasHigh {
		t.Fatal("variance findings are medium severity")
	}
	if det.Severity != SeverityMedium {
		t.Fatalf("got severity %s", det.Severity)
	}
}

func TestDetectVarianceBoundary(t *testing.T) {
	history := []HistoryTotals{{Gross: 1000, Net: 1000}}
	// exactly 1.4x does not fire
	slip := &Payslip{Gross: 1400, Net: 1400}
	det := Detect(slip, history)
	if len(det.Findings) != 0 {
		t.Fatalf("expected no findings, got %v", det.Findings)
	}
}

func TestDetectSkipsVarianceWithoutHistory(t *testing.T) {
	slip := &Payslip{Gross: 10000, TotalDeductions: 0, Net: 10000}
	det := Detect(slip, nil)
	if len(det.Findings) != 0 {
		t.Fatalf("first payslip should not trip variance, got %v", det.Findings)
	}
}

func TestDetectCleanPayslip(t *testing.T) {
	history := []HistoryTotals{{Gross: 1000, Net: 950}}
	slip := &Payslip{Gross: 1000, TotalDeductions: 50, Net: 950}
	det := Detect(slip, history)
	if len(det.Findings) != 0 {
		t.Fatalf("expected clean detection, got %v", det.Findings)
	}
	if det.HasHigh {
		t.Fatal("clean payslip must not block")
	}
}
