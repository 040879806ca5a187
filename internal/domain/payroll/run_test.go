package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeStore is the in-memory StoreAPI used by engine tests.
type fakeStore struct {
	employees   map[string]Employee
	paycodes    []Paycode
	assignments []Assignment
	adjustments map[string]*Adjustment
	payslips    map[string]*Payslip
	anomalies   []*Anomaly
	runs        map[string]*Run
	overtime    []OvertimeEntry
	leave       []LeaveWindow
	history     map[string][]HistoryTotals
	schedule    Schedule

	overrideCleared bool
	onRunning       func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees:   map[string]Employee{},
		adjustments: map[string]*Adjustment{},
		payslips:    map[string]*Payslip{},
		runs:        map[string]*Run{},
		history:     map[string][]HistoryTotals{},
	}
}

func (f *fakeStore) GetEmployee(_ context.Context, employeeID string) (Employee, error) {
	e, ok := f.employees[employeeID]
	if !ok {
		return Employee{}, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	return e, nil
}

func (f *fakeStore) UpdateEmployeeBankAccount(_ context.Context, employeeID string, encrypted []byte) error {
	e, ok := f.employees[employeeID]
	if !ok {
		return fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	e.BankAccountEnc = encrypted
	f.employees[employeeID] = e
	return nil
}

func (f *fakeStore) EligibleEmployeeIDs(_ context.Context, period Period) ([]string, error) {
	var ids []string
	for id, e := range f.employees {
		if e.Status != EmployeeStatusActive {
			continue
		}
		released := false
		for _, slip := range f.payslips {
			if slip.EmployeeID == id && slip.Period.Equal(period) && slip.Release == ReleaseReleased {
				released = true
			}
		}
		pending := false
		for _, adj := range f.adjustments {
			if adj.EmployeeID == id && adj.Period.Equal(period) && adj.Status == AdjustmentPending {
				pending = true
			}
		}
		if !released || pending {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListPaycodes(_ context.Context, includeArchived bool) ([]Paycode, error) {
	if includeArchived {
		return f.paycodes, nil
	}
	var out []Paycode
	for _, pc := range f.paycodes {
		if !pc.Archived {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPaycode(_ context.Context, paycodeID string) (Paycode, error) {
	for _, pc := range f.paycodes {
		if pc.ID == paycodeID {
			return pc, nil
		}
	}
	return Paycode{}, ErrNotFound
}

func (f *fakeStore) CreatePaycode(_ context.Context, pc *Paycode) error {
	f.paycodes = append(f.paycodes, *pc)
	return nil
}

func (f *fakeStore) EnsurePaycode(_ context.Context, pc *Paycode) error {
	for _, existing := range f.paycodes {
		if existing.Code == pc.Code {
			return nil
		}
	}
	f.paycodes = append(f.paycodes, *pc)
	return nil
}

func (f *fakeStore) ArchivePaycode(_ context.Context, paycodeID string) error {
	for i := range f.paycodes {
		if f.paycodes[i].ID == paycodeID {
			f.paycodes[i].Archived = true
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) ListAssignments(_ context.Context, employeeID string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPaycodeAssignments(_ context.Context, employeeID, paycodeID string) ([]Assignment, error) {
	var out []Assignment
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && a.PaycodeID == paycodeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, a *Assignment) error {
	f.assignments = append(f.assignments, *a)
	return nil
}

func (f *fakeStore) EndAssignment(_ context.Context, assignmentID string, to Period) error {
	for i := range f.assignments {
		if f.assignments[i].ID == assignmentID {
			f.assignments[i].EffectiveTo = &to
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) ListAdjustments(_ context.Context, period Period, employeeID string) ([]Adjustment, error) {
	var out []Adjustment
	for _, adj := range f.adjustments {
		if adj.Period.Equal(period) && (employeeID == "" || adj.EmployeeID == employeeID) {
			out = append(out, *adj)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingAdjustments(_ context.Context, employeeID string, period Period) ([]Adjustment, error) {
	var out []Adjustment
	for _, adj := range f.adjustments {
		if adj.EmployeeID == employeeID && adj.Period.Equal(period) && adj.Status == AdjustmentPending {
			out = append(out, *adj)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAdjustment(_ context.Context, adj *Adjustment) error {
	clone := *adj
	f.adjustments[adj.ID] = &clone
	return nil
}

func (f *fakeStore) UpdatePendingAdjustment(_ context.Context, adj *Adjustment) error {
	existing, ok := f.adjustments[adj.ID]
	if !ok || existing.Status != AdjustmentPending {
		return ErrAdjustmentNotPending
	}
	existing.Type, existing.Label, existing.Amount = adj.Type, adj.Label, adj.Amount
	return nil
}

func (f *fakeStore) CancelAdjustment(_ context.Context, adjustmentID string) error {
	existing, ok := f.adjustments[adjustmentID]
	if !ok || existing.Status != AdjustmentPending {
		return ErrAdjustmentNotPending
	}
	existing.Status = AdjustmentCancelled
	return nil
}

func (f *fakeStore) MarkAdjustmentsApplied(_ context.Context, adjustmentIDs []string, runID string) error {
	for _, id := range adjustmentIDs {
		if adj, ok := f.adjustments[id]; ok {
			adj.Status = AdjustmentApplied
			adj.RunID = runID
		}
	}
	return nil
}

func (f *fakeStore) HasReleasedPayslip(_ context.Context, employeeID string, period Period) (bool, error) {
	for _, slip := range f.payslips {
		if slip.EmployeeID == employeeID && slip.Period.Equal(period) && slip.Release == ReleaseReleased {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreatePayslip(_ context.Context, slip *Payslip) error {
	clone := *slip
	f.payslips[slip.ID] = &clone
	return nil
}

func (f *fakeStore) SetPayslipStatus(_ context.Context, payslipID, processing, release string, releasedAt *time.Time) error {
	slip, ok := f.payslips[payslipID]
	if !ok {
		return ErrNotFound
	}
	slip.Processing = processing
	slip.Release = release
	if releasedAt != nil {
		slip.ReleasedAt = releasedAt
	}
	return nil
}

func (f *fakeStore) MarkRunPayslipsFailed(_ context.Context, runID, employeeID string) error {
	for _, slip := range f.payslips {
		if slip.RunID == runID && slip.EmployeeID == employeeID && slip.Processing == ProcessingInProgress {
			slip.Processing = ProcessingFailed
		}
	}
	return nil
}

func (f *fakeStore) GetPayslip(_ context.Context, payslipID string) (Payslip, error) {
	slip, ok := f.payslips[payslipID]
	if !ok {
		return Payslip{}, ErrNotFound
	}
	return *slip, nil
}

func (f *fakeStore) ListPayslips(_ context.Context, employeeID string, period Period, limit, offset int) ([]Payslip, error) {
	var out []Payslip
	for _, slip := range f.payslips {
		if employeeID != "" && slip.EmployeeID != employeeID {
			continue
		}
		if !period.IsZero() && !slip.Period.Equal(period) {
			continue
		}
		out = append(out, *slip)
	}
	return out, nil
}

func (f *fakeStore) ReleasedHistory(_ context.Context, employeeID string, before Period, limit int) ([]HistoryTotals, error) {
	return f.history[employeeID], nil
}

func (f *fakeStore) SweepOrphanPayslips(_ context.Context, cutoff time.Time) (int, error) {
	swept := 0
	for _, slip := range f.payslips {
		if slip.Processing == ProcessingInProgress && slip.CreatedAt.Before(cutoff) {
			slip.Processing = ProcessingFailed
			swept++
		}
	}
	return swept, nil
}

func (f *fakeStore) CreateAnomaly(_ context.Context, anomaly *Anomaly) error {
	clone := *anomaly
	f.anomalies = append(f.anomalies, &clone)
	return nil
}

func (f *fakeStore) ListAnomalies(_ context.Context, status string, period Period, limit, offset int) ([]Anomaly, error) {
	var out []Anomaly
	for _, a := range f.anomalies {
		if status != "" && a.Status != status {
			continue
		}
		if !period.IsZero() && !a.Period.Equal(period) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) ReviewAnomaly(_ context.Context, anomalyID, status, decidedBy, note string) error {
	for _, a := range f.anomalies {
		if a.ID == anomalyID && a.Status == AnomalyStatusOpen {
			a.Status, a.DecidedBy, a.DecisionNote = status, decidedBy, note
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) CreateRun(_ context.Context, run *Run) error {
	clone := *run
	f.runs[run.ID] = &clone
	return nil
}

func (f *fakeStore) UpdateRunStatus(_ context.Context, runID, status, errMsg string, completedAt *time.Time) error {
	run, ok := f.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Status = status
	run.Error = errMsg
	if completedAt != nil {
		run.CompletedAt = completedAt
	}
	if status == RunStatusRunning && f.onRunning != nil {
		f.onRunning()
	}
	return nil
}

func (f *fakeStore) UpdateRunCounters(_ context.Context, runID string, counters Counters) error {
	run, ok := f.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.Counters = counters
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return Run{}, ErrNotFound
	}
	return *run, nil
}

func (f *fakeStore) ListRuns(_ context.Context, limit, offset int) ([]Run, error) {
	var out []Run
	for _, run := range f.runs {
		out = append(out, *run)
	}
	return out, nil
}

func (f *fakeStore) ListAcceptedOvertime(_ context.Context, employeeID string, period Period) ([]OvertimeEntry, error) {
	var out []OvertimeEntry
	for _, e := range f.overtime {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUnpaidLeave(_ context.Context, employeeID string, period Period) ([]LeaveWindow, error) {
	return f.leave, nil
}

func (f *fakeStore) GetSchedule(_ context.Context) (Schedule, error) {
	return f.schedule, nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, sched Schedule) error {
	f.schedule = sched
	return nil
}

func (f *fakeStore) ClearScheduleOverride(_ context.Context) error {
	f.schedule.OverridePeriod = nil
	f.schedule.OverrideRunDate = nil
	f.overrideCleared = true
	return nil
}

var _ StoreAPI = (*fakeStore)(nil)

type fakeNotifier struct {
	released   int
	alerts     int
	failAlerts bool
}

func (f *fakeNotifier) PayslipReleased(_ context.Context, _ *Payslip) error {
	f.released++
	return nil
}

func (f *fakeNotifier) AnomalyAlert(_ context.Context, _ *Anomaly, _ *Payslip) error {
	if f.failAlerts {
		return errors.New("smtp down")
	}
	f.alerts++
	return nil
}

func seedEmployee(store *fakeStore, id string, salary float64) {
	store.employees[id] = Employee{ID: id, FirstName: "Test", LastName: id, Email: id + "@example.com", Status: EmployeeStatusActive}
	store.paycodes = []Paycode{
		{ID: "pc-salary", Code: "EARN1", Name: "Base Salary", Type: PaycodeTypeEarning, Role: RoleNone},
		{ID: "pc-tax", Code: "TAX1", Name: "Income Tax", Type: PaycodeTypeDeduction, Role: RoleNone},
	}
	store.assignments = append(store.assignments,
		Assignment{ID: "as-" + id, EmployeeID: id, PaycodeID: "pc-salary", CalcKind: CalcKindFixed, Amount: salary, EffectiveFrom: Period{Year: 2020, Month: time.January}},
		Assignment{ID: "at-" + id, EmployeeID: id, PaycodeID: "pc-tax", CalcKind: CalcKindPercentage, Percentage: 5, EffectiveFrom: Period{Year: 2020, Month: time.January}},
	)
}

func testRequest(employeeIDs ...string) RunRequest {
	return RunRequest{
		Period:      Period{Year: 2025, Month: time.June},
		PayDate:     time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC),
		EmployeeIDs: employeeIDs,
		Trigger:     RunTriggerManual,
	}
}

func TestRunReleasesPayslip(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	seedEmployee(store, "e1", 1000)
	svc := NewService(store, notifier)

	run, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, RunStatusCompleted, run.Status)
	require.Equal(t, 1, run.Counters.EmployeesConsidered)
	require.Equal(t, 1, run.Counters.PayslipsCreated)
	require.Equal(t, 1, run.Counters.Released)
	require.Equal(t, 1, run.Counters.EmailsSent)
	require.Zero(t, run.Counters.Blocked)
	require.Zero(t, run.Counters.Failed)
	require.Equal(t, 1, notifier.released)

	require.Len(t, store.payslips, 1)
	for _, slip := range store.payslips {
		require.Equal(t, ReleaseReleased, slip.Release)
		require.Equal(t, ProcessingCompleted, slip.Processing)
		require.NotNil(t, slip.ReleasedAt)
		require.Equal(t, 1000.0, slip.Gross)
		require.Equal(t, 50.0, slip.TotalDeductions)
		require.Equal(t, slip.Gross-slip.TotalDeductions, slip.Net)
		require.Equal(t, PayslipKindRegular, slip.Kind)
	}
}

func TestRunAppliesAdjustments(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	store.adjustments["adj1"] = &Adjustment{
		ID: "adj1", EmployeeID: "e1", Period: Period{Year: 2025, Month: time.June},
		Type: PaycodeTypeEarning, Label: "Spot bonus", Amount: 200, Status: AdjustmentPending,
	}
	svc := NewService(store, &fakeNotifier{})

	run, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, run.Counters.Released)
	require.Equal(t, AdjustmentApplied, store.adjustments["adj1"].Status)
	require.Equal(t, run.ID, store.adjustments["adj1"].RunID)
	for _, slip := range store.payslips {
		require.Equal(t, PayslipKindAdjustment, slip.Kind)
		require.Equal(t, 1140.0, slip.Net)
	}
}

func TestRunIdempotentRerun(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	svc := NewService(store, &fakeNotifier{})

	first, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, first.Counters.Released)

	second, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, second.Counters.Skipped)
	require.Zero(t, second.Counters.PayslipsCreated)
	require.Zero(t, second.Counters.Released)
	require.Len(t, store.payslips, 1)
}

func TestRunRerunWithNewAdjustment(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	svc := NewService(store, &fakeNotifier{})

	_, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)

	store.adjustments["adj1"] = &Adjustment{
		ID: "adj1", EmployeeID: "e1", Period: Period{Year: 2025, Month: time.June},
		Type: PaycodeTypeEarning, Label: "Correction", Amount: 100, Status: AdjustmentPending,
	}
	second, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, second.Counters.Released)
	require.Equal(t, 1, second.Counters.PayslipsCreated)
	require.Len(t, store.payslips, 2)
}

func TestRunBlocksHighAnomaly(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	seedEmployee(store, "e1", 100)
	store.adjustments["adj1"] = &Adjustment{
		ID: "adj1", EmployeeID: "e1", Period: Period{Year: 2025, Month: time.June},
		Type: PaycodeTypeDeduction, Label: "Recovery", Amount: 300, Status: AdjustmentPending,
	}
	svc := NewService(store, notifier)

	run, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, run.Counters.Blocked)
	require.Equal(t, 1, run.Counters.AnomaliesFound)
	require.Equal(t, 1, run.Counters.AnomalyAlertsSent)
	require.Zero(t, run.Counters.Released)
	require.Equal(t, 1, notifier.alerts)
	require.Zero(t, notifier.released)

	// blocked payslip stays in draft and the adjustment stays pending
	for _, slip := range store.payslips {
		require.Equal(t, ReleaseDraft, slip.Release)
		require.Equal(t, ProcessingCompleted, slip.Processing)
		require.Nil(t, slip.ReleasedAt)
	}
	require.Equal(t, AdjustmentPending, store.adjustments["adj1"].Status)

	require.Len(t, store.anomalies, 1)
	require.Equal(t, SeverityHigh, store.anomalies[0].Severity)
	require.Equal(t, AnomalyStatusOpen, store.anomalies[0].Status)
}

func TestRunBlockedCountsEvenWhenAlertFails(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{failAlerts: true}
	seedEmployee(store, "e1", 100)
	store.adjustments["adj1"] = &Adjustment{
		ID: "adj1", EmployeeID: "e1", Period: Period{Year: 2025, Month: time.June},
		Type: PaycodeTypeDeduction, Label: "Recovery", Amount: 300, Status: AdjustmentPending,
	}
	svc := NewService(store, notifier)

	run, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.Equal(t, 1, run.Counters.Blocked)
	require.Zero(t, run.Counters.AnomalyAlertsSent)
}

func TestRunContinuesAfterEmployeeFailure(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	seedEmployee(store, "e2", 1000)
	delete(store.employees, "e1")
	svc := NewService(store, &fakeNotifier{})

	run, err := svc.Run(context.Background(), testRequest("e1", "e2"))
	require.NoError(t, err)
	require.Equal(t, RunStatusCompleted, run.Status)
	require.Equal(t, 2, run.Counters.EmployeesConsidered)
	require.Equal(t, 1, run.Counters.Failed)
	require.Equal(t, 1, run.Counters.Released)
}

func TestRunRejectsConcurrentPeriod(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	svc := NewService(store, &fakeNotifier{})

	var concurrent error
	ran := false
	store.onRunning = func() {
		if ran {
			return
		}
		ran = true
		_, concurrent = svc.Run(context.Background(), testRequest("e1"))
	}

	_, err := svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
	require.ErrorIs(t, concurrent, ErrRunInProgress)

	// the gate is released after completion
	_, err = svc.Run(context.Background(), testRequest("e1"))
	require.NoError(t, err)
}

func TestRunValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeNotifier{})

	_, err := svc.Run(context.Background(), RunRequest{})
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Run(context.Background(), RunRequest{Period: Period{Year: 2025, Month: time.June}})
	require.ErrorIs(t, err, ErrInvalidPayDate)

	_, err = svc.Run(context.Background(), RunRequest{
		Period:  Period{Year: 2025, Month: time.June},
		PayDate: time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrNoEmployees)
}

func TestRunDecemberCreatesBonusPaycode(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	svc := NewService(store, &fakeNotifier{})

	req := testRequest("e1")
	req.Period = Period{Year: 2025, Month: time.December}
	req.PayDate = time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC)
	_, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	found := false
	for _, pc := range store.paycodes {
		if pc.Code == BonusPaycodeCode {
			found = true
			require.Equal(t, RoleBonus, pc.Role)
		}
	}
	require.True(t, found, "bonus paycode should be created on demand")
	for _, slip := range store.payslips {
		require.Equal(t, 2000.0, slip.Gross)
	}
}

func TestRunScheduledFiresAndClearsOverride(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	overridePeriod := Period{Year: 2025, Month: time.May}
	store.schedule = Schedule{
		Enabled:           true,
		DayOfMonth:        25,
		RollBackToWorkday: true,
		RunHour:           6,
		OverridePeriod:    &overridePeriod,
	}
	svc := NewService(store, &fakeNotifier{})
	svc.now = func() time.Time {
		return time.Date(2025, time.June, 25, 6, 0, 30, 0, time.UTC)
	}

	require.NoError(t, svc.RunScheduled(context.Background()))
	require.Len(t, store.runs, 1)
	for _, run := range store.runs {
		require.Equal(t, RunTriggerScheduled, run.Trigger)
		require.True(t, run.Period.Equal(overridePeriod))
	}
	require.True(t, store.overrideCleared)
}

func TestRunScheduledNoopOffSchedule(t *testing.T) {
	store := newFakeStore()
	seedEmployee(store, "e1", 1000)
	store.schedule = Schedule{Enabled: true, DayOfMonth: 25, RunHour: 6}
	svc := NewService(store, &fakeNotifier{})
	svc.now = func() time.Time {
		return time.Date(2025, time.June, 24, 6, 0, 30, 0, time.UTC)
	}

	require.NoError(t, svc.RunScheduled(context.Background()))
	require.Empty(t, store.runs)
}

func TestSweepOrphans(t *testing.T) {
	store := newFakeStore()
	stale := time.Now().Add(-3 * time.Hour)
	store.payslips["p1"] = &Payslip{ID: "p1", Processing: ProcessingInProgress, CreatedAt: stale}
	store.payslips["p2"] = &Payslip{ID: "p2", Processing: ProcessingInProgress, CreatedAt: time.Now()}
	svc := NewService(store, &fakeNotifier{})

	swept, err := svc.SweepOrphans(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, swept)
	require.Equal(t, ProcessingFailed, store.payslips["p1"].Processing)
	require.Equal(t, ProcessingInProgress, store.payslips["p2"].Processing)
}
