package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListPaycodes(ctx context.Context, includeArchived bool) ([]Paycode, error) {
	query := `
    SELECT id, code, name, type, role, archived, created_at
    FROM paycodes
  `
	if !includeArchived {
		query += " WHERE archived = false"
	}
	query += " ORDER BY code"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Paycode
	for rows.Next() {
		var pc Paycode
		if err := rows.Scan(&pc.ID, &pc.Code, &pc.Name, &pc.Type, &pc.Role, &pc.Archived, &pc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *Store) GetPaycode(ctx context.Context, paycodeID string) (Paycode, error) {
	var pc Paycode
	err := s.DB.QueryRow(ctx, `
    SELECT id, code, name, type, role, archived, created_at
    FROM paycodes
    WHERE id = $1
  `, paycodeID).Scan(&pc.ID, &pc.Code, &pc.Name, &pc.Type, &pc.Role, &pc.Archived, &pc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Paycode{}, fmt.Errorf("paycode %s: %w", paycodeID, ErrNotFound)
	}
	return pc, err
}

func (s *Store) CreatePaycode(ctx context.Context, pc *Paycode) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO paycodes (id, code, name, type, role, archived, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, pc.ID, pc.Code, pc.Name, pc.Type, pc.Role, pc.Archived, pc.CreatedAt)
	return err
}

// EnsurePaycode inserts the paycode unless one with the same code already
// exists; an existing definition is never overwritten.
func (s *Store) EnsurePaycode(ctx context.Context, pc *Paycode) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO paycodes (id, code, name, type, role, archived, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (code) DO NOTHING
  `, pc.ID, pc.Code, pc.Name, pc.Type, pc.Role, pc.Archived, pc.CreatedAt)
	return err
}

func (s *Store) ArchivePaycode(ctx context.Context, paycodeID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE paycodes SET archived = true WHERE id = $1", paycodeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("paycode %s: %w", paycodeID, ErrNotFound)
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, employeeID string) ([]Assignment, error) {
	return s.queryAssignments(ctx, `
    SELECT id, employee_id, paycode_id, calc_kind, amount, percentage, hourly_rate, units, effective_from, effective_to, created_at
    FROM paycode_assignments
    WHERE employee_id = $1
    ORDER BY effective_from, created_at
  `, employeeID)
}

func (s *Store) ListPaycodeAssignments(ctx context.Context, employeeID, paycodeID string) ([]Assignment, error) {
	return s.queryAssignments(ctx, `
    SELECT id, employee_id, paycode_id, calc_kind, amount, percentage, hourly_rate, units, effective_from, effective_to, created_at
    FROM paycode_assignments
    WHERE employee_id = $1 AND paycode_id = $2
    ORDER BY effective_from
  `, employeeID, paycodeID)
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		var from string
		var to *string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.PaycodeID, &a.CalcKind, &a.Amount, &a.Percentage, &a.HourlyRate, &a.Units, &from, &to, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.EffectiveFrom, err = scanPeriod(from); err != nil {
			return nil, err
		}
		if a.EffectiveTo, err = scanPeriodPtr(to); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAssignment(ctx context.Context, a *Assignment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO paycode_assignments (id, employee_id, paycode_id, calc_kind, amount, percentage, hourly_rate, units, effective_from, effective_to, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, a.ID, a.EmployeeID, a.PaycodeID, a.CalcKind, a.Amount, a.Percentage, a.HourlyRate, a.Units, periodArg(a.EffectiveFrom), periodPtrArg(a.EffectiveTo), a.CreatedAt)
	return err
}

func (s *Store) EndAssignment(ctx context.Context, assignmentID string, to Period) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE paycode_assignments SET effective_to = $1 WHERE id = $2
  `, periodArg(to), assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	return nil
}
