package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

const (
	JobPayrollTick = "payroll_tick"
	JobOrphanSweep = "orphan_payslip_sweep"
)

// Service runs the recurring background jobs (the payroll scheduler tick
// and the orphan-payslip sweep) on cron schedules and records every
// execution in job_runs.
type Service struct {
	DB   *pgxpool.Pool
	cron *cron.Cron
}

func New(db *pgxpool.Pool) *Service {
	return &Service{
		DB:   db,
		cron: cron.New(),
	}
}

func (s *Service) Start() {
	s.cron.Start()
	slog.Info("background jobs started")
}

func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("background jobs stopped")
}

// Register schedules a job. Errors from the job are logged and recorded,
// never propagated: a failed tick leaves all state untouched and the
// next tick retries from scratch.
func (s *Service) Register(name, spec string, run func(context.Context) (any, error)) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.runJob(ctx, name, run)
	})
	return err
}

func (s *Service) runJob(ctx context.Context, name string, run func(context.Context) (any, error)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", name, "panic", r)
		}
	}()

	runID := uuid.NewString()
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, status, started_at)
    VALUES ($1,$2,'running',now())
  `, runID, name); err != nil {
		slog.Warn("job run insert failed", "job", name, "err", err)
		runID = ""
	}

	details, err := run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		slog.Warn("job run failed", "job", name, "err", err)
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "job", name, "err", updErr)
		}
	}
}
