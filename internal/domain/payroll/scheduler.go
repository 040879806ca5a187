package payroll

import (
	"context"
	"log/slog"
	"time"
)

// tickTolerance keeps a 60s recurring tick idempotent: the scheduled
// timestamp matches at most one tick, so no "already ran today" flag is
// persisted.
const tickTolerance = 60 * time.Second

// TickDecision is the outcome of evaluating one scheduler tick.
type TickDecision struct {
	Run          bool
	Period       Period
	PayDate      time.Time
	UsedOverride bool
}

// EvaluateTick decides whether an automatic run is due at the given
// instant. Pure; the caller loads the schedule fresh each tick.
func EvaluateTick(now time.Time, sched Schedule) TickDecision {
	if !sched.Enabled {
		return TickDecision{}
	}

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), sched.RunHour, sched.RunMinute, 0, 0, now.Location())
	if now.Before(scheduled) || now.Sub(scheduled) >= tickTolerance {
		return TickDecision{}
	}

	var target time.Time
	usedOverride := false
	if sched.OverrideRunDate != nil {
		target = truncateDay(sched.OverrideRunDate.In(time.UTC))
		usedOverride = true
	} else {
		target = TargetPayDate(Period{Year: now.Year(), Month: now.Month()}, sched)
	}
	if !sameDate(now, target) {
		return TickDecision{}
	}

	period := PeriodOf(target)
	if sched.OverridePeriod != nil {
		period = *sched.OverridePeriod
		usedOverride = true
	}

	return TickDecision{Run: true, Period: period, PayDate: target, UsedOverride: usedOverride}
}

// TargetPayDate computes the automatic pay date for a month: the
// configured day-of-month (clamped to the month's length), rolled
// backward past weekends and configured holidays when enabled.
func TargetPayDate(p Period, sched Schedule) time.Time {
	day := sched.DayOfMonth
	if day < 1 {
		day = 1
	}
	if day > p.Days() {
		day = p.Days()
	}
	date := time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
	if !sched.RollBackToWorkday {
		return date
	}
	for isWeekend(date) || isHoliday(date, sched.Holidays) {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func isHoliday(t time.Time, holidays []time.Time) bool {
	for _, h := range holidays {
		if sameDate(t, h) {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// RunScheduled is the tick entry point. It loads the schedule, evaluates
// the tick, builds eligibility and triggers a run when one is due. A
// used one-off override is cleared after the run so it fires exactly
// once.
func (s *Service) RunScheduled(ctx context.Context) error {
	sched, err := s.store.GetSchedule(ctx)
	if err != nil {
		return err
	}

	dec := EvaluateTick(s.now(), sched)
	if !dec.Run {
		return nil
	}

	employeeIDs, err := s.EligibleEmployees(ctx, dec.Period)
	if err != nil {
		return err
	}
	if len(employeeIDs) == 0 {
		slog.Info("scheduled payroll run skipped, nobody eligible", "period", dec.Period.String())
		return nil
	}

	run, err := s.Run(ctx, RunRequest{
		Period:      dec.Period,
		PayDate:     dec.PayDate,
		EmployeeIDs: employeeIDs,
		Trigger:     RunTriggerScheduled,
	})
	if err != nil {
		return err
	}
	slog.Info("scheduled payroll run finished", "runId", run.ID, "period", dec.Period.String(), "released", run.Counters.Released, "blocked", run.Counters.Blocked, "failed", run.Counters.Failed)

	if dec.UsedOverride {
		if err := s.store.ClearScheduleOverride(ctx); err != nil {
			slog.Warn("clearing schedule override failed", "err", err)
		}
	}
	return nil
}
