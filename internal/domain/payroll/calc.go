package payroll

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CalcInput carries everything the calculator reads for one employee and
// one period. All reads happen before computation; Compute itself never
// touches storage.
type CalcInput struct {
	Period        Period
	Assignments   []Assignment
	Paycodes      map[string]Paycode
	Adjustments   []Adjustment
	OvertimeHours float64
	UnpaidDays    int
}

type CalcResult struct {
	Earnings        []Line
	Deductions      []Line
	Applied         []Adjustment
	OvertimeHours   float64
	UnpaidDays      int
	Gross           float64
	TotalDeductions float64
	Net             float64
}

var oneHundred = decimal.NewFromInt(100)

// Compute turns assignments, pending adjustments, accepted overtime and
// accepted unpaid leave into concrete line items and totals. Step order
// matters: percentage assignments apply against the gross accumulated by
// every earlier step, and unpaid-leave and bonus proration use the base
// built from non-overtime fixed/manual earnings.
func Compute(in CalcInput) (CalcResult, error) {
	res := CalcResult{OvertimeHours: in.OvertimeHours, UnpaidDays: in.UnpaidDays}
	base := decimal.Zero

	var percentages []Assignment
	for _, a := range in.Assignments {
		pc, ok := in.Paycodes[a.PaycodeID]
		if !ok {
			return CalcResult{}, fmt.Errorf("%w: assignment %s -> paycode %s", ErrUnknownPaycode, a.ID, a.PaycodeID)
		}
		if a.CalcKind == CalcKindPercentage {
			percentages = append(percentages, a)
			continue
		}

		var amount decimal.Decimal
		switch a.CalcKind {
		case CalcKindFixed, CalcKindManual:
			amount = dec(a.Amount)
		case CalcKindHourly:
			if pc.Role == RoleOvertime {
				amount = dec(a.HourlyRate).Mul(dec(in.OvertimeHours))
			} else {
				amount = dec(a.Units).Mul(dec(a.HourlyRate))
			}
		default:
			return CalcResult{}, fmt.Errorf("%w: %q on assignment %s", ErrUnknownCalcKind, a.CalcKind, a.ID)
		}
		amount = money(amount)

		line := Line{PaycodeID: pc.ID, Code: pc.Code, Label: pc.Name, Amount: amount.InexactFloat64(), Visible: true}
		if pc.Type == PaycodeTypeDeduction {
			res.Deductions = append(res.Deductions, line)
			continue
		}
		res.Earnings = append(res.Earnings, line)
		if (a.CalcKind == CalcKindFixed || a.CalcKind == CalcKindManual) && pc.Role != RoleOvertime {
			base = base.Add(amount)
		}
	}

	for _, adj := range in.Adjustments {
		amount := money(dec(adj.Amount))
		line := Line{Label: adj.Label, Amount: amount.InexactFloat64(), Visible: true}
		if adj.Type == PaycodeTypeDeduction {
			res.Deductions = append(res.Deductions, line)
		} else {
			res.Earnings = append(res.Earnings, line)
		}
		res.Applied = append(res.Applied, adj)
	}

	if in.UnpaidDays > 0 {
		daily := base.Div(decimal.NewFromInt(int64(in.Period.Days())))
		amount := money(daily.Mul(decimal.NewFromInt(int64(in.UnpaidDays))))
		res.Deductions = append(res.Deductions, Line{
			Label:   fmt.Sprintf("Unpaid leave (%d days)", in.UnpaidDays),
			Amount:  amount.InexactFloat64(),
			Visible: true,
		})
	}

	if in.Period.Month == time.December && base.IsPositive() && !hasBonusLine(res.Earnings, in.Paycodes) {
		line := Line{Code: BonusPaycodeCode, Label: BonusPaycodeName, Amount: money(base).InexactFloat64(), Visible: true}
		if pc, ok := paycodeByRole(in.Paycodes, RoleBonus); ok {
			line.PaycodeID = pc.ID
			line.Code = pc.Code
			line.Label = pc.Name
		}
		res.Earnings = append(res.Earnings, line)
	}

	grossSoFar := sumLines(res.Earnings)
	for _, a := range percentages {
		pc := in.Paycodes[a.PaycodeID]
		amount := money(dec(a.Percentage).Div(oneHundred).Mul(grossSoFar))
		line := Line{PaycodeID: pc.ID, Code: pc.Code, Label: pc.Name, Amount: amount.InexactFloat64(), Visible: true}
		if pc.Type == PaycodeTypeDeduction {
			res.Deductions = append(res.Deductions, line)
		} else {
			res.Earnings = append(res.Earnings, line)
		}
	}

	gross := sumLines(res.Earnings)
	deductions := sumLines(res.Deductions)
	res.Gross = gross.InexactFloat64()
	res.TotalDeductions = deductions.InexactFloat64()
	res.Net = gross.Sub(deductions).InexactFloat64()
	return res, nil
}

// dec converts a stored float into a decimal, treating non-finite input
// as zero. decimal.NewFromFloat panics on NaN and infinities.
func dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// money applies the line-item numeric policy: clamp negatives to zero and
// round to 2 decimals. Intermediate ratios stay unrounded; only values
// becoming line items pass through here.
func money(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(dec(l.Amount))
	}
	return total
}

func hasBonusLine(earnings []Line, paycodes map[string]Paycode) bool {
	for _, l := range earnings {
		if l.Code == BonusPaycodeCode {
			return true
		}
		if pc, ok := paycodes[l.PaycodeID]; ok && pc.Role == RoleBonus {
			return true
		}
	}
	return false
}

func paycodeByRole(paycodes map[string]Paycode, role string) (Paycode, bool) {
	for _, pc := range paycodes {
		if pc.Role == role && !pc.Archived {
			return pc, true
		}
	}
	return Paycode{}, false
}

// SumOvertimeHours totals accepted overtime hours dated within the
// period, rounded to 2 decimals.
func SumOvertimeHours(entries []OvertimeEntry, p Period) float64 {
	total := decimal.Zero
	for _, e := range entries {
		if PeriodOf(e.WorkDate).Equal(p) {
			total = total.Add(dec(e.Hours))
		}
	}
	return total.Round(2).InexactFloat64()
}

// UnpaidDaysIn counts the calendar days of each leave window that fall
// inside the period, summed across windows.
func UnpaidDaysIn(windows []LeaveWindow, p Period) int {
	days := 0
	for _, w := range windows {
		days += overlapDays(w, p)
	}
	return days
}

func overlapDays(w LeaveWindow, p Period) int {
	start := w.StartDate
	if start.Before(p.Start()) {
		start = p.Start()
	}
	end := w.EndDate
	if end.After(p.End()) {
		end = p.End()
	}
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
