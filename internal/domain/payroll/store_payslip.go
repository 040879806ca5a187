package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) HasReleasedPayslip(ctx context.Context, employeeID string, period Period) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payslips
    WHERE employee_id = $1 AND period = $2 AND release_status = $3
  `, employeeID, periodArg(period), ReleaseReleased).Scan(&count)
	return count > 0, err
}

func (s *Store) CreatePayslip(ctx context.Context, slip *Payslip) error {
	earnings, err := json.Marshal(slip.Earnings)
	if err != nil {
		return err
	}
	deductions, err := json.Marshal(slip.Deductions)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payslips (
      id, run_id, employee_id, period, employee_name, employee_email, bank_account_enc,
      kind, processing_status, release_status, earnings_json, deductions_json,
      gross, deductions, net, overtime_hours, unpaid_days, created_at
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `, slip.ID, slip.RunID, slip.EmployeeID, periodArg(slip.Period), slip.EmployeeName, slip.EmployeeEmail, slip.BankAccountEnc,
		slip.Kind, slip.Processing, slip.Release, earnings, deductions,
		slip.Gross, slip.TotalDeductions, slip.Net, slip.OvertimeHours, slip.UnpaidDays, slip.CreatedAt)
	return err
}

func (s *Store) SetPayslipStatus(ctx context.Context, payslipID, processing, release string, releasedAt *time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payslips
    SET processing_status = $1, release_status = $2, released_at = COALESCE($3, released_at)
    WHERE id = $4
  `, processing, release, releasedAt, payslipID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payslip %s: %w", payslipID, ErrNotFound)
	}
	return nil
}

func (s *Store) MarkRunPayslipsFailed(ctx context.Context, runID, employeeID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payslips
    SET processing_status = $1
    WHERE run_id = $2 AND employee_id = $3 AND processing_status = $4
  `, ProcessingFailed, runID, employeeID, ProcessingInProgress)
	return err
}

func (s *Store) GetPayslip(ctx context.Context, payslipID string) (Payslip, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, run_id, employee_id, period, employee_name, employee_email, bank_account_enc,
           kind, processing_status, release_status, earnings_json, deductions_json,
           gross, deductions, net, overtime_hours, unpaid_days, created_at, released_at
    FROM payslips
    WHERE id = $1
  `, payslipID)
	slip, err := scanPayslip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payslip{}, fmt.Errorf("payslip %s: %w", payslipID, ErrNotFound)
	}
	return slip, err
}

func (s *Store) ListPayslips(ctx context.Context, employeeID string, period Period, limit, offset int) ([]Payslip, error) {
	query := `
    SELECT id, run_id, employee_id, period, employee_name, employee_email, bank_account_enc,
           kind, processing_status, release_status, earnings_json, deductions_json,
           gross, deductions, net, overtime_hours, unpaid_days, created_at, released_at
    FROM payslips
    WHERE 1=1
  `
	var args []any
	if employeeID != "" {
		args = append(args, employeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if !period.IsZero() {
		args = append(args, periodArg(period))
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payslip
	for rows.Next() {
		slip, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}

// ReleasedHistory returns gross/net of the most recent released payslips
// for periods strictly before the given one, newest first.
func (s *Store) ReleasedHistory(ctx context.Context, employeeID string, before Period, limit int) ([]HistoryTotals, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT period, gross, net
    FROM payslips
    WHERE employee_id = $1 AND release_status = $2 AND period < $3
    ORDER BY period DESC
    LIMIT $4
  `, employeeID, ReleaseReleased, periodArg(before), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryTotals
	for rows.Next() {
		var h HistoryTotals
		var period string
		if err := rows.Scan(&period, &h.Gross, &h.Net); err != nil {
			return nil, err
		}
		if h.Period, err = scanPeriod(period); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SweepOrphanPayslips marks payslips left in-progress before the cutoff
// as failed; a crashed run cannot finish them itself.
func (s *Store) SweepOrphanPayslips(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payslips
    SET processing_status = $1
    WHERE processing_status = $2 AND created_at < $3
  `, ProcessingFailed, ProcessingInProgress, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanPayslip(row pgx.Row) (Payslip, error) {
	var slip Payslip
	var period string
	var earnings, deductions []byte
	err := row.Scan(&slip.ID, &slip.RunID, &slip.EmployeeID, &period, &slip.EmployeeName, &slip.EmployeeEmail, &slip.BankAccountEnc,
		&slip.Kind, &slip.Processing, &slip.Release, &earnings, &deductions,
		&slip.Gross, &slip.TotalDeductions, &slip.Net, &slip.OvertimeHours, &slip.UnpaidDays, &slip.CreatedAt, &slip.ReleasedAt)
	if err != nil {
		return Payslip{}, err
	}
	if slip.Period, err = scanPeriod(period); err != nil {
		return Payslip{}, err
	}
	if err := json.Unmarshal(earnings, &slip.Earnings); err != nil {
		return Payslip{}, err
	}
	if err := json.Unmarshal(deductions, &slip.Deductions); err != nil {
		return Payslip{}, err
	}
	return slip, nil
}
