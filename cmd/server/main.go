package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"payday/internal/domain/auth"
	"payday/internal/domain/notifications"
	"payday/internal/domain/payroll"
	"payday/internal/platform/config"
	cryptoutil "payday/internal/platform/crypto"
	"payday/internal/platform/db"
	"payday/internal/platform/email"
	"payday/internal/platform/jobs"
	"payday/internal/platform/metrics"
	"payday/internal/transport/http/api"
	authhandler "payday/internal/transport/http/handlers/auth"
	notificationshandler "payday/internal/transport/http/handlers/notifications"
	payrollhandler "payday/internal/transport/http/handlers/payroll"
	"payday/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("encryption key: %v", err)
	}

	notifStore := notifications.NewStore(pool)
	notifService := notifications.New(notifStore, email.New(cfg), cfg.EmailFrom)
	dispatcher := notifications.NewDispatcher(notifService)

	payrollStore := payroll.NewStore(pool)
	payrollService := payroll.NewService(payrollStore, dispatcher)
	payrollService.UseLocation(loc)

	collector := metrics.New()
	payrollService.OnRunComplete(func(c payroll.Counters) {
		collector.RecordRun(c.Released, c.Blocked, c.Failed)
	})

	jobRunner := jobs.New(pool)
	if cfg.SchedulerEnabled {
		if err := jobRunner.Register(jobs.JobPayrollTick, cfg.SchedulerTick, func(ctx context.Context) (any, error) {
			return nil, payrollService.RunScheduled(ctx)
		}); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}
	if err := jobRunner.Register(jobs.JobOrphanSweep, cfg.OrphanSweepSpec, func(ctx context.Context) (any, error) {
		swept, err := payrollService.SweepOrphans(ctx, cfg.OrphanTimeout)
		return map[string]int{"swept": swept}, err
	}); err != nil {
		log.Fatalf("orphan sweep: %v", err)
	}
	jobRunner.Start()
	defer jobRunner.Stop()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireAuth, middleware.RequireManager).
			Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
			})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(auth.NewService(pool), cfg.JWTSecret).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, crypto, cfg.OrphanTimeout).RegisterRoutes(r)
		notificationshandler.NewHandler(notifService).RegisterRoutes(r)
	})

	slog.Info("payday server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
