package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var employee Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, bank_account_enc, status
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email, &employee.BankAccountEnc, &employee.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	return employee, err
}

func (s *Store) UpdateEmployeeBankAccount(ctx context.Context, employeeID string, encrypted []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET bank_account_enc = $2 WHERE id = $1
  `, employeeID, encrypted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	return nil
}

// EligibleEmployeeIDs returns active employees that are either unpaid for
// the period or have a pending adjustment for it.
func (s *Store) EligibleEmployeeIDs(ctx context.Context, period Period) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id
    FROM employees e
    WHERE e.status = $1
      AND (
        NOT EXISTS (
          SELECT 1 FROM payslips p
          WHERE p.employee_id = e.id AND p.period = $2 AND p.release_status = $3
        )
        OR EXISTS (
          SELECT 1 FROM payroll_adjustments a
          WHERE a.employee_id = e.id AND a.period = $2 AND a.status = $4
        )
      )
    ORDER BY e.last_name, e.first_name
  `, EmployeeStatusActive, periodArg(period), ReleaseReleased, AdjustmentPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListAcceptedOvertime(ctx context.Context, employeeID string, period Period) ([]OvertimeEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, work_date, hours
    FROM overtime_requests
    WHERE employee_id = $1
      AND status = $2
      AND work_date >= $3
      AND work_date <= $4
  `, employeeID, RequestStatusAccepted, period.Start(), period.End())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OvertimeEntry
	for rows.Next() {
		var entry OvertimeEntry
		if err := rows.Scan(&entry.EmployeeID, &entry.WorkDate, &entry.Hours); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) ListUnpaidLeave(ctx context.Context, employeeID string, period Period) ([]LeaveWindow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT start_date, end_date
    FROM leave_requests
    WHERE employee_id = $1
      AND status = $2
      AND paid = false
      AND start_date <= $3
      AND end_date >= $4
  `, employeeID, RequestStatusAccepted, period.End(), period.Start())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaveWindow
	for rows.Next() {
		var window LeaveWindow
		if err := rows.Scan(&window.StartDate, &window.EndDate); err != nil {
			return nil, err
		}
		out = append(out, window)
	}
	return out, rows.Err()
}
