package payroll

import (
	"testing"
	"time"
)

func enabledSchedule() Schedule {
	return Schedule{
		Enabled:           true,
		DayOfMonth:        25,
		RollBackToWorkday: true,
		RunHour:           6,
		RunMinute:         0,
	}
}

func TestTargetPayDateWeekendRollBack(t *testing.T) {
	// 2025-10-25 is a Saturday; expect Friday the 24th
	got := TargetPayDate(Period{Year: 2025, Month: time.October}, enabledSchedule())
	want := time.Date(2025, time.October, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTargetPayDateHolidayRollBack(t *testing.T) {
	sched := enabledSchedule()
	// 2025-10-24 (Friday) is a holiday; Saturday the 25th rolls to Thursday the 23rd
	sched.Holidays = []time.Time{time.Date(2025, time.October, 24, 0, 0, 0, 0, time.UTC)}
	got := TargetPayDate(Period{Year: 2025, Month: time.October}, sched)
	want := time.Date(2025, time.October, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTargetPayDateNoRollBack(t *testing.T) {
	sched := enabledSchedule()
	sched.RollBackToWorkday = false
	got := TargetPayDate(Period{Year: 2025, Month: time.October}, sched)
	if got.Day() != 25 {
		t.Fatalf("got day %d", got.Day())
	}
}

func TestTargetPayDateClampsToMonthEnd(t *testing.T) {
	sched := enabledSchedule()
	sched.DayOfMonth = 31
	sched.RollBackToWorkday = false
	got := TargetPayDate(Period{Year: 2025, Month: time.February}, sched)
	if got.Day() != 28 {
		t.Fatalf("got day %d", got.Day())
	}
}

func TestEvaluateTickFires(t *testing.T) {
	// 2025-06-25 is a Wednesday
	now := time.Date(2025, time.June, 25, 6, 0, 30, 0, time.UTC)
	dec := EvaluateTick(now, enabledSchedule())
	if !dec.Run {
		t.Fatal("expected run decision")
	}
	if !dec.Period.Equal(Period{Year: 2025, Month: time.June}) {
		t.Fatalf("got period %v", dec.Period)
	}
	if dec.PayDate.Day() != 25 {
		t.Fatalf("got pay date %v", dec.PayDate)
	}
	if dec.UsedOverride {
		t.Fatal("no override configured")
	}
}

func TestEvaluateTickToleranceWindow(t *testing.T) {
	sched := enabledSchedule()
	base := time.Date(2025, time.June, 25, 6, 0, 0, 0, time.UTC)

	if dec := EvaluateTick(base.Add(-time.Second), sched); dec.Run {
		t.Fatal("fired before the scheduled time")
	}
	if dec := EvaluateTick(base, sched); !dec.Run {
		t.Fatal("did not fire at the scheduled time")
	}
	if dec := EvaluateTick(base.Add(59*time.Second), sched); !dec.Run {
		t.Fatal("did not fire inside the tolerance window")
	}
	if dec := EvaluateTick(base.Add(60*time.Second), sched); dec.Run {
		t.Fatal("fired after the tolerance window; a second tick must not rerun")
	}
}

func TestEvaluateTickDisabled(t *testing.T) {
	sched := enabledSchedule()
	sched.Enabled = false
	now := time.Date(2025, time.June, 25, 6, 0, 30, 0, time.UTC)
	if dec := EvaluateTick(now, sched); dec.Run {
		t.Fatal("disabled schedule must never fire")
	}
}

func TestEvaluateTickWrongDay(t *testing.T) {
	now := time.Date(2025, time.June, 24, 6, 0, 30, 0, time.UTC)
	if dec := EvaluateTick(now, enabledSchedule()); dec.Run {
		t.Fatal("fired on a day that is not the pay date")
	}
}

func TestEvaluateTickRolledBackDay(t *testing.T) {
	// pay date for October 2025 rolls back to Friday the 24th
	now := time.Date(2025, time.October, 24, 6, 0, 30, 0, time.UTC)
	dec := EvaluateTick(now, enabledSchedule())
	if !dec.Run {
		t.Fatal("expected run on the rolled-back workday")
	}

	onConfigured := time.Date(2025, time.October, 25, 6, 0, 30, 0, time.UTC)
	if dec := EvaluateTick(onConfigured, enabledSchedule()); dec.Run {
		t.Fatal("must not also fire on the configured day")
	}
}

func TestEvaluateTickOverride(t *testing.T) {
	sched := enabledSchedule()
	overrideDate := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	overridePeriod := Period{Year: 2025, Month: time.May}
	sched.OverrideRunDate = &overrideDate
	sched.OverridePeriod = &overridePeriod

	now := time.Date(2025, time.June, 10, 6, 0, 30, 0, time.UTC)
	dec := EvaluateTick(now, sched)
	if !dec.Run {
		t.Fatal("expected override run")
	}
	if !dec.UsedOverride {
		t.Fatal("expected UsedOverride")
	}
	if !dec.Period.Equal(overridePeriod) {
		t.Fatalf("got period %v", dec.Period)
	}
	if !sameDate(dec.PayDate, overrideDate) {
		t.Fatalf("got pay date %v", dec.PayDate)
	}
}

func TestEvaluateTickOverridePeriodOnly(t *testing.T) {
	sched := enabledSchedule()
	overridePeriod := Period{Year: 2025, Month: time.April}
	sched.OverridePeriod = &overridePeriod

	// regular pay date for June, override only changes the period
	now := time.Date(2025, time.June, 25, 6, 0, 30, 0, time.UTC)
	dec := EvaluateTick(now, sched)
	if !dec.Run || !dec.UsedOverride {
		t.Fatalf("got %+v", dec)
	}
	if !dec.Period.Equal(overridePeriod) {
		t.Fatalf("got period %v", dec.Period)
	}
}
