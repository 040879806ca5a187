package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	FindingNegativeNet      = "negative_net"
	FindingDeductionsExceed = "deductions_exceed_gross"
	FindingDeductionRatio   = "deduction_ratio"
	FindingNetVariance      = "net_variance"
	FindingGrossVariance    = "gross_variance"
)

var (
	deductionRatioLimit = decimal.RequireFromString("0.6")
	varianceFactor      = decimal.RequireFromString("1.4")
)

// Detection is the aggregated outcome for one payslip. HasHigh blocks
// release; a detection with no findings is not persisted.
type Detection struct {
	Findings []Finding
	Severity string
	HasHigh  bool
}

// Detect inspects a freshly computed payslip against the employee's up to
// 3 most recent released payslips for earlier periods. All checks are
// independent; several findings can fire for the same payslip. Historical
// comparison is skipped entirely when there is no released history.
func Detect(slip *Payslip, history []HistoryTotals) Detection {
	var findings []Finding
	gross := dec(slip.Gross)
	deductions := dec(slip.TotalDeductions)
	net := dec(slip.Net)

	if net.IsNegative() {
		findings = append(findings, Finding{
			Code:     FindingNegativeNet,
			Message:  fmt.Sprintf("net pay %.2f is negative", slip.Net),
			Severity: SeverityHigh,
		})
	}
	if deductions.GreaterThan(gross) {
		findings = append(findings, Finding{
			Code:     FindingDeductionsExceed,
			Message:  fmt.Sprintf("deductions %.2f exceed gross %.2f", slip.TotalDeductions, slip.Gross),
			Severity: SeverityHigh,
		})
	}
	if gross.IsPositive() && deductions.GreaterThan(gross.Mul(deductionRatioLimit)) {
		findings = append(findings, Finding{
			Code:     FindingDeductionRatio,
			Message:  fmt.Sprintf("deductions %.2f exceed 60%% of gross %.2f", slip.TotalDeductions, slip.Gross),
			Severity: SeverityHigh,
		})
	}

	if len(history) > 0 {
		avgGross, avgNet := historyAverages(history)
		if net.GreaterThan(avgNet.Mul(varianceFactor)) {
			findings = append(findings, Finding{
				Code:     FindingNetVariance,
				Message:  fmt.Sprintf("net pay %.2f exceeds 1.4x the recent average %s", slip.Net, avgNet.Round(2)),
				Severity: SeverityMedium,
			})
		}
		if gross.GreaterThan(avgGross.Mul(varianceFactor)) {
			findings = append(findings, Finding{
				Code:     FindingGrossVariance,
				Message:  fmt.Sprintf("gross pay %.2f exceeds 1.4x the recent average %s", slip.Gross, avgGross.Round(2)),
				Severity: SeverityMedium,
			})
		}
	}

	det := Detection{Findings: findings, Severity: SeverityLow}
	for _, f := range findings {
		if severityRank(f.Severity) > severityRank(det.Severity) {
			det.Severity = f.Severity
		}
		if f.Severity == SeverityHigh {
			det.HasHigh = true
		}
	}
	return det
}

func historyAverages(history []HistoryTotals) (avgGross, avgNet decimal.Decimal) {
	count := decimal.NewFromInt(int64(len(history)))
	for _, h := range history {
		avgGross = avgGross.Add(dec(h.Gross))
		avgNet = avgNet.Add(dec(h.Net))
	}
	return avgGross.Div(count), avgNet.Div(count)
}

func severityRank(severity string) int {
	switch severity {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}
