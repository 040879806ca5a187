package payroll

import (
	"context"
	"fmt"
)

func (s *Store) ListAdjustments(ctx context.Context, period Period, employeeID string) ([]Adjustment, error) {
	query := `
    SELECT id, employee_id, period, type, label, amount, status, COALESCE(run_id::text, ''), created_at
    FROM payroll_adjustments
    WHERE period = $1
  `
	args := []any{periodArg(period)}
	if employeeID != "" {
		query += " AND employee_id = $2"
		args = append(args, employeeID)
	}
	query += " ORDER BY created_at DESC"
	return s.queryAdjustments(ctx, query, args...)
}

func (s *Store) ListPendingAdjustments(ctx context.Context, employeeID string, period Period) ([]Adjustment, error) {
	return s.queryAdjustments(ctx, `
    SELECT id, employee_id, period, type, label, amount, status, COALESCE(run_id::text, ''), created_at
    FROM payroll_adjustments
    WHERE employee_id = $1 AND period = $2 AND status = $3
    ORDER BY created_at
  `, employeeID, periodArg(period), AdjustmentPending)
}

func (s *Store) queryAdjustments(ctx context.Context, query string, args ...any) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		var adj Adjustment
		var period string
		if err := rows.Scan(&adj.ID, &adj.EmployeeID, &period, &adj.Type, &adj.Label, &adj.Amount, &adj.Status, &adj.RunID, &adj.CreatedAt); err != nil {
			return nil, err
		}
		if adj.Period, err = scanPeriod(period); err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

func (s *Store) CreateAdjustment(ctx context.Context, adj *Adjustment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_adjustments (id, employee_id, period, type, label, amount, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, adj.ID, adj.EmployeeID, periodArg(adj.Period), adj.Type, adj.Label, adj.Amount, adj.Status, adj.CreatedAt)
	return err
}

// UpdatePendingAdjustment edits amount, label and type; the status guard
// in the WHERE clause enforces that applied and cancelled adjustments are
// immutable.
func (s *Store) UpdatePendingAdjustment(ctx context.Context, adj *Adjustment) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_adjustments
    SET type = $1, label = $2, amount = $3
    WHERE id = $4 AND status = $5
  `, adj.Type, adj.Label, adj.Amount, adj.ID, AdjustmentPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjustment %s: %w", adj.ID, ErrAdjustmentNotPending)
	}
	return nil
}

func (s *Store) CancelAdjustment(ctx context.Context, adjustmentID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_adjustments SET status = $1 WHERE id = $2 AND status = $3
  `, AdjustmentCancelled, adjustmentID, AdjustmentPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjustment %s: %w", adjustmentID, ErrAdjustmentNotPending)
	}
	return nil
}

func (s *Store) MarkAdjustmentsApplied(ctx context.Context, adjustmentIDs []string, runID string) error {
	if len(adjustmentIDs) == 0 {
		return nil
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_adjustments
    SET status = $1, run_id = $2
    WHERE id = ANY($3) AND status = $4
  `, AdjustmentApplied, runID, adjustmentIDs, AdjustmentPending)
	return err
}
