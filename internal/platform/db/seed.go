package db

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"payday/internal/platform/config"
)

// Seed bootstraps the singleton schedule row and, when configured, an
// admin login. Both inserts are idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if _, err := pool.Exec(ctx, `
    INSERT INTO payroll_schedule (id, enabled, day_of_month, roll_back_to_workday, holidays_json, run_hour, run_minute)
    VALUES (1, false, 25, true, '[]', 6, 0)
    ON CONFLICT (id) DO NOTHING
  `); err != nil {
		return err
	}

	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		slog.Info("seed admin skipped, SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (id, email, password_hash, role)
    VALUES ($1,$2,$3,'payroll_admin')
    ON CONFLICT (email) DO NOTHING
  `, uuid.NewString(), email, string(hash))
	return err
}
