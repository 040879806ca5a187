package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Run executes one payroll run for an explicit list of employees. The
// orchestrator never infers "all employees" itself; callers build
// eligibility first. Employees are processed strictly sequentially so
// counters and per-employee side effects never race, and the idempotency
// check needs no lock.
func (s *Service) Run(ctx context.Context, req RunRequest) (*Run, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !s.gate.TryAcquire(req.Period) {
		return nil, ErrRunInProgress
	}
	defer s.gate.Release(req.Period)

	trigger := req.Trigger
	if trigger == "" {
		trigger = RunTriggerManual
	}
	run := &Run{
		ID:        uuid.NewString(),
		Period:    req.Period,
		PayDate:   truncateDay(req.PayDate),
		Trigger:   trigger,
		Status:    RunStatusQueued,
		StartedAt: s.now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("creating payroll run: %w", err)
	}
	if err := s.store.UpdateRunStatus(ctx, run.ID, RunStatusRunning, "", nil); err != nil {
		now := s.now()
		_ = s.store.UpdateRunStatus(ctx, run.ID, RunStatusFailed, err.Error(), &now)
		return nil, fmt.Errorf("starting payroll run: %w", err)
	}
	run.Status = RunStatusRunning

	run.Counters.EmployeesConsidered = len(req.EmployeeIDs)
	for _, employeeID := range req.EmployeeIDs {
		outcome := s.processEmployee(ctx, run, employeeID)
		switch outcome {
		case OutcomeReleased:
			run.Counters.Released++
		case OutcomeBlocked:
			run.Counters.Blocked++
		case OutcomeFailed:
			run.Counters.Failed++
		case OutcomeSkipped:
			run.Counters.Skipped++
		}
		if err := s.store.UpdateRunCounters(ctx, run.ID, run.Counters); err != nil {
			slog.Warn("updating run counters failed", "runId", run.ID, "err", err)
		}
	}

	// Best-effort batch: a run where every employee failed still
	// completes, with the counters telling the story.
	completedAt := s.now()
	if err := s.store.UpdateRunStatus(ctx, run.ID, RunStatusCompleted, "", &completedAt); err != nil {
		slog.Warn("completing run failed", "runId", run.ID, "err", err)
	}
	run.Status = RunStatusCompleted
	run.CompletedAt = &completedAt
	if s.onRunComplete != nil {
		s.onRunComplete(run.Counters)
	}
	return run, nil
}

// processEmployee drives one employee through compute, detect and
// persist. It never returns an error; any failure becomes a failed
// payslip marker for this employee alone and the run moves on.
func (s *Service) processEmployee(ctx context.Context, run *Run, employeeID string) string {
	pending, err := s.store.ListPendingAdjustments(ctx, employeeID, run.Period)
	if err != nil {
		return s.failEmployee(ctx, run, employeeID, fmt.Errorf("listing pending adjustments: %w", err))
	}
	released, err := s.store.HasReleasedPayslip(ctx, employeeID, run.Period)
	if err != nil {
		return s.failEmployee(ctx, run, employeeID, fmt.Errorf("checking released payslip: %w", err))
	}
	if released && len(pending) == 0 {
		// Already paid and nothing new: re-running the period is a no-op.
		return OutcomeSkipped
	}

	slip, result, err := s.computePayslip(ctx, run, employeeID, pending)
	if err != nil {
		return s.failEmployee(ctx, run, employeeID, err)
	}
	if err := s.store.CreatePayslip(ctx, slip); err != nil {
		return s.failEmployee(ctx, run, employeeID, fmt.Errorf("creating payslip: %w", err))
	}
	run.Counters.PayslipsCreated++

	history, err := s.store.ReleasedHistory(ctx, employeeID, run.Period, 3)
	if err != nil {
		return s.failEmployee(ctx, run, employeeID, fmt.Errorf("loading released history: %w", err))
	}
	det := Detect(slip, history)

	var anomaly *Anomaly
	if len(det.Findings) > 0 {
		anomaly = &Anomaly{
			ID:           uuid.NewString(),
			RunID:        run.ID,
			PayslipID:    slip.ID,
			EmployeeID:   employeeID,
			Period:       run.Period,
			Severity:     det.Severity,
			Findings:     det.Findings,
			FindingCount: len(det.Findings),
			Status:       AnomalyStatusOpen,
			CreatedAt:    s.now(),
		}
		if err := s.store.CreateAnomaly(ctx, anomaly); err != nil {
			return s.failEmployee(ctx, run, employeeID, fmt.Errorf("creating anomaly: %w", err))
		}
		run.Counters.AnomaliesFound++
	}

	if det.HasHigh {
		// Needs human review: keep the payslip in draft and alert the
		// payroll managers. Blocking is an expected outcome, not an error.
		if err := s.store.SetPayslipStatus(ctx, slip.ID, ProcessingCompleted, ReleaseDraft, nil); err != nil {
			return s.failEmployee(ctx, run, employeeID, fmt.Errorf("blocking payslip: %w", err))
		}
		if err := s.notifier.AnomalyAlert(ctx, anomaly, slip); err != nil {
			slog.Warn("anomaly alert dispatch failed", "payslipId", slip.ID, "err", err)
		} else {
			run.Counters.AnomalyAlertsSent++
		}
		return OutcomeBlocked
	}

	if len(result.Applied) > 0 {
		ids := make([]string, 0, len(result.Applied))
		for _, adj := range result.Applied {
			ids = append(ids, adj.ID)
		}
		if err := s.store.MarkAdjustmentsApplied(ctx, ids, run.ID); err != nil {
			return s.failEmployee(ctx, run, employeeID, fmt.Errorf("applying adjustments: %w", err))
		}
	}
	releasedAt := s.now()
	if err := s.store.SetPayslipStatus(ctx, slip.ID, ProcessingCompleted, ReleaseReleased, &releasedAt); err != nil {
		return s.failEmployee(ctx, run, employeeID, fmt.Errorf("releasing payslip: %w", err))
	}
	slip.Release = ReleaseReleased
	slip.ReleasedAt = &releasedAt
	if err := s.notifier.PayslipReleased(ctx, slip); err != nil {
		slog.Warn("payslip notification dispatch failed", "payslipId", slip.ID, "err", err)
	} else {
		run.Counters.EmailsSent++
	}
	return OutcomeReleased
}

func (s *Service) computePayslip(ctx context.Context, run *Run, employeeID string, pending []Adjustment) (*Payslip, CalcResult, error) {
	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, CalcResult{}, fmt.Errorf("loading employee: %w", err)
	}

	if run.Period.Month == time.December {
		if err := s.ensureBonusPaycode(ctx); err != nil {
			return nil, CalcResult{}, err
		}
	}
	paycodes, err := s.store.ListPaycodes(ctx, true)
	if err != nil {
		return nil, CalcResult{}, fmt.Errorf("loading paycodes: %w", err)
	}
	paycodesByID := make(map[string]Paycode, len(paycodes))
	for _, pc := range paycodes {
		paycodesByID[pc.ID] = pc
	}

	assignments, err := s.store.ListAssignments(ctx, employeeID)
	if err != nil {
		return nil, CalcResult{}, fmt.Errorf("loading assignments: %w", err)
	}
	overtime, err := s.store.ListAcceptedOvertime(ctx, employeeID, run.Period)
	if err != nil {
		return nil, CalcResult{}, fmt.Errorf("loading overtime: %w", err)
	}
	leave, err := s.store.ListUnpaidLeave(ctx, employeeID, run.Period)
	if err != nil {
		return nil, CalcResult{}, fmt.Errorf("loading unpaid leave: %w", err)
	}

	result, err := Compute(CalcInput{
		Period:        run.Period,
		Assignments:   ResolveAssignments(assignments, paycodesByID, run.Period),
		Paycodes:      paycodesByID,
		Adjustments:   pending,
		OvertimeHours: SumOvertimeHours(overtime, run.Period),
		UnpaidDays:    UnpaidDaysIn(leave, run.Period),
	})
	if err != nil {
		return nil, CalcResult{}, err
	}

	kind := PayslipKindRegular
	if len(result.Applied) > 0 {
		kind = PayslipKindAdjustment
	}
	slip := &Payslip{
		ID:              uuid.NewString(),
		RunID:           run.ID,
		EmployeeID:      employeeID,
		Period:          run.Period,
		EmployeeName:    employee.FullName(),
		EmployeeEmail:   employee.Email,
		BankAccountEnc:  employee.BankAccountEnc,
		Kind:            kind,
		Processing:      ProcessingInProgress,
		Release:         ReleaseDraft,
		Earnings:        result.Earnings,
		Deductions:      result.Deductions,
		Gross:           result.Gross,
		TotalDeductions: result.TotalDeductions,
		Net:             result.Net,
		OvertimeHours:   result.OvertimeHours,
		UnpaidDays:      result.UnpaidDays,
		CreatedAt:       s.now(),
	}
	return slip, result, nil
}

// ensureBonusPaycode creates the 13th-month bonus paycode on first use;
// an existing definition is never overwritten.
func (s *Service) ensureBonusPaycode(ctx context.Context) error {
	pc := &Paycode{
		ID:        uuid.NewString(),
		Code:      BonusPaycodeCode,
		Name:      BonusPaycodeName,
		Type:      PaycodeTypeEarning,
		Role:      RoleBonus,
		CreatedAt: s.now(),
	}
	if err := s.store.EnsurePaycode(ctx, pc); err != nil {
		return fmt.Errorf("ensuring bonus paycode: %w", err)
	}
	return nil
}

func (s *Service) failEmployee(ctx context.Context, run *Run, employeeID string, cause error) string {
	slog.Warn("payroll computation failed for employee", "runId", run.ID, "employeeId", employeeID, "err", cause)
	if err := s.store.MarkRunPayslipsFailed(ctx, run.ID, employeeID); err != nil {
		slog.Warn("marking payslips failed errored", "runId", run.ID, "employeeId", employeeID, "err", err)
	}
	return OutcomeFailed
}
