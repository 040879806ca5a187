package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_runs (id, period, pay_date, trigger_source, status, started_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, run.ID, periodArg(run.Period), run.PayDate, run.Trigger, run.Status, run.StartedAt)
	return err
}

func (s *Store) UpdateRunStatus(ctx context.Context, runID, status, errMsg string, completedAt *time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs
    SET status = $1, error = NULLIF($2, ''), completed_at = COALESCE($3, completed_at)
    WHERE id = $4
  `, status, errMsg, completedAt, runID)
	return err
}

func (s *Store) UpdateRunCounters(ctx context.Context, runID string, counters Counters) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs
    SET employees_considered = $1, payslips_created = $2, released = $3, blocked = $4,
        failed = $5, skipped = $6, anomalies_found = $7, emails_sent = $8, anomaly_alerts_sent = $9
    WHERE id = $10
  `, counters.EmployeesConsidered, counters.PayslipsCreated, counters.Released, counters.Blocked,
		counters.Failed, counters.Skipped, counters.AnomaliesFound, counters.EmailsSent, counters.AnomalyAlertsSent, runID)
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.DB.QueryRow(ctx, runSelect+" WHERE id = $1", runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, runSelect+" ORDER BY started_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

const runSelect = `
    SELECT id, period, pay_date, trigger_source, status, COALESCE(error, ''),
           employees_considered, payslips_created, released, blocked, failed, skipped,
           anomalies_found, emails_sent, anomaly_alerts_sent, started_at, completed_at
    FROM payroll_runs
`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	var period string
	err := row.Scan(&run.ID, &period, &run.PayDate, &run.Trigger, &run.Status, &run.Error,
		&run.Counters.EmployeesConsidered, &run.Counters.PayslipsCreated, &run.Counters.Released, &run.Counters.Blocked,
		&run.Counters.Failed, &run.Counters.Skipped, &run.Counters.AnomaliesFound, &run.Counters.EmailsSent,
		&run.Counters.AnomalyAlertsSent, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return Run{}, err
	}
	if run.Period, err = scanPeriod(period); err != nil {
		return Run{}, err
	}
	return run, nil
}
