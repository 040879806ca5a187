package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	cryptoutil "payday/internal/platform/crypto"
)

// Staff-facing operations. Paycodes and assignments are read-only during
// a run; these mutations happen outside run execution.

func (s *Service) ListPaycodes(ctx context.Context, includeArchived bool) ([]Paycode, error) {
	return s.store.ListPaycodes(ctx, includeArchived)
}

func (s *Service) CreatePaycode(ctx context.Context, pc *Paycode) error {
	pc.Code = strings.ToUpper(strings.TrimSpace(pc.Code))
	if pc.Code == "" || strings.TrimSpace(pc.Name) == "" {
		return fmt.Errorf("%w: paycode code and name are required", ErrInvalidInput)
	}
	if pc.Type != PaycodeTypeEarning && pc.Type != PaycodeTypeDeduction {
		return fmt.Errorf("%w: paycode type must be earning or deduction", ErrInvalidInput)
	}
	switch pc.Role {
	case "":
		pc.Role = RoleNone
	case RoleNone, RoleOvertime, RoleUnpaidLeave, RoleBonus:
	default:
		return fmt.Errorf("%w: unknown paycode role %q", ErrInvalidInput, pc.Role)
	}
	pc.ID = uuid.NewString()
	pc.CreatedAt = s.now()
	return s.store.CreatePaycode(ctx, pc)
}

func (s *Service) ArchivePaycode(ctx context.Context, paycodeID string) error {
	return s.store.ArchivePaycode(ctx, paycodeID)
}

func (s *Service) ListAssignments(ctx context.Context, employeeID string) ([]Assignment, error) {
	return s.store.ListAssignments(ctx, employeeID)
}

// CreateAssignment rejects intervals overlapping an existing assignment
// of the same employee and paycode.
func (s *Service) CreateAssignment(ctx context.Context, a *Assignment) error {
	switch a.CalcKind {
	case CalcKindFixed, CalcKindPercentage, CalcKindHourly, CalcKindManual:
	default:
		return fmt.Errorf("%w: unknown calculation kind %q", ErrInvalidInput, a.CalcKind)
	}
	if a.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: effectiveFrom is required", ErrInvalidInput)
	}
	if a.EffectiveTo != nil && !a.EffectiveFrom.Before(*a.EffectiveTo) {
		return fmt.Errorf("%w: effectiveTo must be after effectiveFrom", ErrInvalidInput)
	}
	if _, err := s.store.GetPaycode(ctx, a.PaycodeID); err != nil {
		return fmt.Errorf("loading paycode: %w", err)
	}
	existing, err := s.store.ListPaycodeAssignments(ctx, a.EmployeeID, a.PaycodeID)
	if err != nil {
		return fmt.Errorf("loading assignments: %w", err)
	}
	if err := ValidateNoOverlap(existing, *a); err != nil {
		return err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	return s.store.CreateAssignment(ctx, a)
}

// EndAssignment closes an assignment's interval. Assignments are never
// deleted.
func (s *Service) EndAssignment(ctx context.Context, assignmentID string, to Period) error {
	if to.IsZero() {
		return fmt.Errorf("%w: end period is required", ErrInvalidInput)
	}
	return s.store.EndAssignment(ctx, assignmentID, to)
}

func (s *Service) ListAdjustments(ctx context.Context, period Period, employeeID string) ([]Adjustment, error) {
	return s.store.ListAdjustments(ctx, period, employeeID)
}

func (s *Service) CreateAdjustment(ctx context.Context, adj *Adjustment) error {
	if adj.Type != PaycodeTypeEarning && adj.Type != PaycodeTypeDeduction {
		return fmt.Errorf("%w: adjustment type must be earning or deduction", ErrInvalidInput)
	}
	if adj.Period.IsZero() {
		return ErrInvalidPeriod
	}
	if strings.TrimSpace(adj.Label) == "" {
		return fmt.Errorf("%w: adjustment label is required", ErrInvalidInput)
	}
	if adj.Amount < 0 {
		return fmt.Errorf("%w: adjustment amount must not be negative", ErrInvalidInput)
	}
	adj.ID = uuid.NewString()
	adj.Status = AdjustmentPending
	adj.CreatedAt = s.now()
	return s.store.CreateAdjustment(ctx, adj)
}

// UpdateAdjustment edits a pending adjustment; applied ones are
// immutable history.
func (s *Service) UpdateAdjustment(ctx context.Context, adj *Adjustment) error {
	if adj.Amount < 0 {
		return fmt.Errorf("%w: adjustment amount must not be negative", ErrInvalidInput)
	}
	return s.store.UpdatePendingAdjustment(ctx, adj)
}

func (s *Service) CancelAdjustment(ctx context.Context, adjustmentID string) error {
	return s.store.CancelAdjustment(ctx, adjustmentID)
}

func (s *Service) ListAnomalies(ctx context.Context, status string, period Period, limit, offset int) ([]Anomaly, error) {
	return s.store.ListAnomalies(ctx, status, period, limit, offset)
}

// ReviewAnomaly records the human decision on an open anomaly.
func (s *Service) ReviewAnomaly(ctx context.Context, anomalyID, decision, decidedBy, note string) error {
	if decision != AnomalyStatusReviewed && decision != AnomalyStatusDismissed {
		return fmt.Errorf("%w: decision must be reviewed or dismissed", ErrInvalidInput)
	}
	return s.store.ReviewAnomaly(ctx, anomalyID, decision, decidedBy, note)
}

// ApprovePayslip releases a payslip that an anomaly left in draft, after
// human review.
func (s *Service) ApprovePayslip(ctx context.Context, payslipID string) (*Payslip, error) {
	slip, err := s.store.GetPayslip(ctx, payslipID)
	if err != nil {
		return nil, err
	}
	if slip.Release == ReleaseReleased {
		return &slip, nil
	}
	releasedAt := s.now()
	if err := s.store.SetPayslipStatus(ctx, slip.ID, ProcessingCompleted, ReleaseReleased, &releasedAt); err != nil {
		return nil, err
	}
	slip.Release = ReleaseReleased
	slip.ReleasedAt = &releasedAt
	if err := s.notifier.PayslipReleased(ctx, &slip); err != nil {
		slog.Warn("payslip notification dispatch failed", "payslipId", slip.ID, "err", err)
	}
	return &slip, nil
}

func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	return s.store.GetRun(ctx, runID)
}

func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	return s.store.ListRuns(ctx, limit, offset)
}

// UpdateBankAccount replaces the employee's payout account. The value
// is stored encrypted at rest; later payslips snapshot the new account.
func (s *Service) UpdateBankAccount(ctx context.Context, enc *cryptoutil.Service, employeeID, account string) error {
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("%w: bank account is required", ErrInvalidInput)
	}
	encrypted, err := enc.EncryptString(account)
	if err != nil {
		return err
	}
	return s.store.UpdateEmployeeBankAccount(ctx, employeeID, encrypted)
}

func (s *Service) GetPayslip(ctx context.Context, payslipID string) (Payslip, error) {
	return s.store.GetPayslip(ctx, payslipID)
}

func (s *Service) ListPayslips(ctx context.Context, employeeID string, period Period, limit, offset int) ([]Payslip, error) {
	return s.store.ListPayslips(ctx, employeeID, period, limit, offset)
}

func (s *Service) GetSchedule(ctx context.Context) (Schedule, error) {
	return s.store.GetSchedule(ctx)
}

func (s *Service) UpdateSchedule(ctx context.Context, sched Schedule) error {
	if sched.DayOfMonth < 1 || sched.DayOfMonth > 31 {
		return fmt.Errorf("%w: dayOfMonth must be between 1 and 31", ErrInvalidInput)
	}
	if sched.RunHour < 0 || sched.RunHour > 23 || sched.RunMinute < 0 || sched.RunMinute > 59 {
		return fmt.Errorf("%w: run time must be a valid time of day", ErrInvalidInput)
	}
	sched.UpdatedAt = s.now()
	return s.store.UpdateSchedule(ctx, sched)
}
