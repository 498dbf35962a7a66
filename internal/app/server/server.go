package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"hrcore/internal/domain/account"
	"hrcore/internal/domain/attendance"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/leave"
	"hrcore/internal/domain/ledger"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/platform/config"
	"hrcore/internal/platform/db"
	"hrcore/internal/platform/jobs"
	"hrcore/internal/platform/metrics"
	"hrcore/internal/platform/querier"
	accounthandler "hrcore/internal/transport/http/handlers/accounts"
	attendancehandler "hrcore/internal/transport/http/handlers/attendance"
	audithandler "hrcore/internal/transport/http/handlers/audit"
	authhandler "hrcore/internal/transport/http/handlers/auth"
	leavehandler "hrcore/internal/transport/http/handlers/leave"
	ledgerhandler "hrcore/internal/transport/http/handlers/ledger"
	notificationshandler "hrcore/internal/transport/http/handlers/notifications"
	opshandler "hrcore/internal/transport/http/handlers/ops"
	payrollhandler "hrcore/internal/transport/http/handlers/payroll"
	"hrcore/internal/transport/http/middleware"
)

// Services bundles the domain services behind the HTTP surface.
type Services struct {
	Tokens        *auth.TokenIssuer
	Accounts      *account.Service
	Ledger        *ledger.Service
	Attendance    *attendance.Service
	Leave         *leave.Service
	Payroll       *payroll.Service
	Audit         *audit.Service
	Notifications *notifications.Service
	Idempotency   *middleware.IdempotencyStore
	// AccountStatus gates bearer tokens on the account still being active.
	AccountStatus middleware.AccountStatus
}

func NewServices(q querier.Querier, cfg config.Config, tokens *auth.TokenIssuer) Services {
	accounts := account.NewService(account.NewStore(q), account.Settings{
		OrgPrefix:            cfg.OrgPrefix,
		TempCredentialLength: cfg.TempCredentialLength,
	}, tokens)
	return Services{
		Tokens:        tokens,
		Accounts:      accounts,
		AccountStatus: accounts,
		Ledger:        ledger.NewService(ledger.NewStore(q)),
		Attendance:    attendance.NewService(attendance.NewStore(q), cfg.Location()),
		Leave:         leave.NewService(leave.NewStore(q)),
		Payroll:       payroll.NewService(payroll.NewStore(q)),
		Audit:         audit.New(q),
		Notifications: notifications.New(notifications.NewStore(q)),
		Idempotency:   middleware.NewIdempotencyStore(q),
	}
}

// NewRouter assembles middleware and routes. collector may be nil.
func NewRouter(cfg config.Config, pinger opshandler.Pinger, svc Services, collector *metrics.Collector) (http.Handler, error) {
	globalLimit, err := middleware.RateLimit(cfg.RateLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	loginLimit, err := middleware.LoginRateLimit(cfg.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.ClientIP)
	router.Use(middleware.Auth(svc.Tokens, svc.AccountStatus))
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	ops := opshandler.NewHandler(pinger, collector)
	ops.RegisterProbes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(globalLimit)

		authhandler.NewHandler(svc.Accounts, svc.Audit).RegisterRoutes(r, loginLimit)
		accounthandler.NewHandler(svc.Accounts, svc.Audit).RegisterRoutes(r)
		ledgerhandler.NewHandler(svc.Ledger, svc.Accounts, svc.Audit, svc.Idempotency, cfg.ImportMaxBytes).RegisterRoutes(r)
		attendancehandler.NewHandler(svc.Attendance, svc.Audit).RegisterRoutes(r)
		leavehandler.NewHandler(svc.Leave, svc.Audit, svc.Idempotency, svc.Notifications).RegisterRoutes(r)
		payrollhandler.NewHandler(svc.Payroll, svc.Audit, svc.Idempotency, svc.Notifications).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit).RegisterRoutes(r)
		notificationshandler.NewHandler(svc.Notifications).RegisterRoutes(r)
		ops.RegisterRoutes(r)
	})
	return router, nil
}

type App struct {
	Config   config.Config
	Pool     *pgxpool.Pool
	Services Services
	Jobs     *jobs.Service
	Router   http.Handler
}

// New connects to Postgres, applies migrations and the admin seed when
// enabled, and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	secret, err := signingSecret(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, err
		}
	}

	svc := NewServices(pool, cfg, auth.NewTokenIssuer(secret, cfg.TokenTTL))
	if cfg.RunSeed {
		if err := db.Seed(ctx, svc.Accounts, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	router, err := NewRouter(cfg, pool, svc, collector)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Pool:     pool,
		Services: svc,
		Jobs:     jobs.New(jobs.NewRunLog(pool)),
		Router:   router,
	}, nil
}

// signingSecret falls back to an ephemeral secret outside production, which
// invalidates issued tokens on restart.
func signingSecret(cfg config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	if cfg.IsProduction() {
		return "", errors.New("JWT_SECRET is required in production")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	log.Warn().Msg("JWT_SECRET unset; using an ephemeral signing secret")
	return hex.EncodeToString(buf), nil
}

// Run serves HTTP and background maintenance until ctx is cancelled, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)
	a.Jobs.Schedule(ctx, a.Config.MaintenanceInterval, func() jobs.Job {
		return jobs.IdempotencyPurge(a.Services.Idempotency, a.Config.IdempotencyTTL, time.Now)
	})

	httpServer := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.Config.Addr).Str("env", a.Config.Environment).Msg("hr core server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		a.Jobs.Wait()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
