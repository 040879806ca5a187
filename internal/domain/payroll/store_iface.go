package payroll

import (
	"context"
	"time"
)

// StoreAPI is everything the engine reads and writes. The pgx-backed
// Store implements it; tests use an in-memory fake.
type StoreAPI interface {
	GetEmployee(ctx context.Context, employeeID string) (Employee, error)
	EligibleEmployeeIDs(ctx context.Context, period Period) ([]string, error)
	UpdateEmployeeBankAccount(ctx context.Context, employeeID string, encrypted []byte) error

	ListPaycodes(ctx context.Context, includeArchived bool) ([]Paycode, error)
	GetPaycode(ctx context.Context, paycodeID string) (Paycode, error)
	CreatePaycode(ctx context.Context, pc *Paycode) error
	EnsurePaycode(ctx context.Context, pc *Paycode) error
	ArchivePaycode(ctx context.Context, paycodeID string) error

	ListAssignments(ctx context.Context, employeeID string) ([]Assignment, error)
	ListPaycodeAssignments(ctx context.Context, employeeID, paycodeID string) ([]Assignment, error)
	CreateAssignment(ctx context.Context, a *Assignment) error
	EndAssignment(ctx context.Context, assignmentID string, to Period) error

	ListAdjustments(ctx context.Context, period Period, employeeID string) ([]Adjustment, error)
	ListPendingAdjustments(ctx context.Context, employeeID string, period Period) ([]Adjustment, error)
	CreateAdjustment(ctx context.Context, adj *Adjustment) error
	UpdatePendingAdjustment(ctx context.Context, adj *Adjustment) error
	CancelAdjustment(ctx context.Context, adjustmentID string) error
	MarkAdjustmentsApplied(ctx context.Context, adjustmentIDs []string, runID string) error

	HasReleasedPayslip(ctx context.Context, employeeID string, period Period) (bool, error)
	CreatePayslip(ctx context.Context, slip *Payslip) error
	SetPayslipStatus(ctx context.Context, payslipID, processing, release string, releasedAt *time.Time) error
	MarkRunPayslipsFailed(ctx context.Context, runID, employeeID string) error
	GetPayslip(ctx context.Context, payslipID string) (Payslip, error)
	ListPayslips(ctx context.Context, employeeID string, period Period, limit, offset int) ([]Payslip, error)
	ReleasedHistory(ctx context.Context, employeeID string, before Period, limit int) ([]HistoryTotals, error)
	SweepOrphanPayslips(ctx context.Context, cutoff time.Time) (int, error)

	CreateAnomaly(ctx context.Context, anomaly *Anomaly) error
	ListAnomalies(ctx context.Context, status string, period Period, limit, offset int) ([]Anomaly, error)
	ReviewAnomaly(ctx context.Context, anomalyID, status, decidedBy, note string) error

	CreateRun(ctx context.Context, run *Run) error
	UpdateRunStatus(ctx context.Context, runID, status, errMsg string, completedAt *time.Time) error
	UpdateRunCounters(ctx context.Context, runID string, counters Counters) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)

	ListAcceptedOvertime(ctx context.Context, employeeID string, period Period) ([]OvertimeEntry, error)
	ListUnpaidLeave(ctx context.Context, employeeID string, period Period) ([]LeaveWindow, error)

	GetSchedule(ctx context.Context) (Schedule, error)
	UpdateSchedule(ctx context.Context, sched Schedule) error
	ClearScheduleOverride(ctx context.Context) error
}
