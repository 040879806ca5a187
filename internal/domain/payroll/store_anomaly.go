package payroll

import (
	"context"
	"encoding/json"
	"fmt"
)

// CreateAnomaly relies on the uniqueness constraint over
// (period, run_id, employee_id, payslip_id): a payslip gets at most one
// anomaly record, carrying all of its findings.
func (s *Store) CreateAnomaly(ctx context.Context, anomaly *Anomaly) error {
	findings, err := json.Marshal(anomaly.Findings)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO payroll_anomalies (
      id, run_id, payslip_id, employee_id, period, severity,
      findings_json, finding_count, status, created_at
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (period, run_id, employee_id, payslip_id)
    DO UPDATE SET severity = EXCLUDED.severity,
                  findings_json = EXCLUDED.findings_json,
                  finding_count = EXCLUDED.finding_count
  `, anomaly.ID, anomaly.RunID, anomaly.PayslipID, anomaly.EmployeeID, periodArg(anomaly.Period), anomaly.Severity,
		findings, anomaly.FindingCount, anomaly.Status, anomaly.CreatedAt)
	return err
}

func (s *Store) ListAnomalies(ctx context.Context, status string, period Period, limit, offset int) ([]Anomaly, error) {
	query := `
    SELECT id, run_id, payslip_id, employee_id, period, severity,
           findings_json, finding_count, status, COALESCE(decided_by, ''), COALESCE(decision_note, ''), created_at
    FROM payroll_anomalies
    WHERE 1=1
  `
	var args []any
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
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

	var out []Anomaly
	for rows.Next() {
		var a Anomaly
		var period string
		var findings []byte
		if err := rows.Scan(&a.ID, &a.RunID, &a.PayslipID, &a.EmployeeID, &period, &a.Severity,
			&findings, &a.FindingCount, &a.Status, &a.DecidedBy, &a.DecisionNote, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.Period, err = scanPeriod(period); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(findings, &a.Findings); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ReviewAnomaly(ctx context.Context, anomalyID, status, decidedBy, note string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_anomalies
    SET status = $1, decided_by = $2, decision_note = $3
    WHERE id = $4 AND status = $5
  `, status, decidedBy, note, anomalyID, AnomalyStatusOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("anomaly %s: %w", anomalyID, ErrNotFound)
	}
	return nil
}
