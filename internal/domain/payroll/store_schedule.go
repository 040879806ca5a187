package payroll

import (
	"context"
	"encoding/json"
	"time"
)

// The schedule is a singleton row; the seed creates it and every tick
// reads it fresh.

func (s *Store) GetSchedule(ctx context.Context) (Schedule, error) {
	var sched Schedule
	var holidays []byte
	var overridePeriod *string
	err := s.DB.QueryRow(ctx, `
    SELECT enabled, day_of_month, roll_back_to_workday, holidays_json,
           run_hour, run_minute, override_period, override_run_date, updated_at
    FROM payroll_schedule
    WHERE id = 1
  `).Scan(&sched.Enabled, &sched.DayOfMonth, &sched.RollBackToWorkday, &holidays,
		&sched.RunHour, &sched.RunMinute, &overridePeriod, &sched.OverrideRunDate, &sched.UpdatedAt)
	if err != nil {
		return Schedule{}, err
	}
	if sched.OverridePeriod, err = scanPeriodPtr(overridePeriod); err != nil {
		return Schedule{}, err
	}
	if sched.Holidays, err = unmarshalHolidays(holidays); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func (s *Store) UpdateSchedule(ctx context.Context, sched Schedule) error {
	holidays, err := marshalHolidays(sched.Holidays)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE payroll_schedule
    SET enabled = $1, day_of_month = $2, roll_back_to_workday = $3, holidays_json = $4,
        run_hour = $5, run_minute = $6, override_period = $7, override_run_date = $8, updated_at = $9
    WHERE id = 1
  `, sched.Enabled, sched.DayOfMonth, sched.RollBackToWorkday, holidays,
		sched.RunHour, sched.RunMinute, periodPtrArg(sched.OverridePeriod), sched.OverrideRunDate, sched.UpdatedAt)
	return err
}

// ClearScheduleOverride resets the one-off override after a triggered
// run so it fires exactly once.
func (s *Store) ClearScheduleOverride(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_schedule
    SET override_period = NULL, override_run_date = NULL, updated_at = now()
    WHERE id = 1
  `)
	return err
}

func marshalHolidays(holidays []time.Time) ([]byte, error) {
	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Format("2006-01-02"))
	}
	return json.Marshal(dates)
}

func unmarshalHolidays(raw []byte) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, err
	}
	var out []time.Time
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
