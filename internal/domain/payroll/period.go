package payroll

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period identifies a calendar month. Every run-scoped payroll entity
// (payslips, adjustments, anomalies, runs) is keyed by one.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses the wire form "YYYY-MM".
func ParsePeriod(value string) (Period, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// MarshalJSON emits the wire form "YYYY-MM".
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePeriod(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Days returns the number of calendar days in the period's month.
func (p Period) Days() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month, p.Days(), 0, 0, 0, 0, time.UTC)
}

func (p Period) Equal(other Period) bool {
	return p.Year == other.Year && p.Month == other.Month
}

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}
