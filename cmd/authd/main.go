package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tegfinance/authcore/migrations"
	"github.com/tegfinance/authcore/pkg/account"
	"github.com/tegfinance/authcore/pkg/api"
	"github.com/tegfinance/authcore/pkg/audit"
	"github.com/tegfinance/authcore/pkg/authflow"
	"github.com/tegfinance/authcore/pkg/config"
	"github.com/tegfinance/authcore/pkg/lockout"
	"github.com/tegfinance/authcore/pkg/password"
	"github.com/tegfinance/authcore/pkg/reset"
	"github.com/tegfinance/authcore/pkg/session"
	"github.com/tegfinance/authcore/pkg/totp"
)

type Config struct {
	Database config.DatabaseConfig
	Server   config.ServerConfig
	Login    config.LoginConfig
	Password config.PasswordConfig
	Reset    config.ResetConfig
	Totp     config.TotpConfig
	Session  config.SessionConfig
	Admin    config.AdminConfig
}

func main() {
	godotenv.Load()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	dbURL := cfg.Database.ToDatabaseURL()

	if err := runMigrations(ctx, dbURL); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	accounts := account.NewPostgresRepository(pool)
	hasher := password.NewBcryptHasher(cfg.Password.BcryptCost)
	policy := password.Policy{MinLength: cfg.Password.MinLength}

	if err := bootstrapAdmin(ctx, accounts, hasher, cfg.Admin); err != nil {
		return err
	}

	sessions := session.NewManager(session.NewPostgresRepository(pool), cfg.Session.Lifetime)
	codes := totp.NewService(cfg.Totp.Issuer, cfg.Totp.Period, cfg.Totp.Skew)
	gateway := authflow.NewGateway(accounts, hasher, lockout.Policy{
		MaxFailedAttempts: int32(cfg.Login.MaxFailedAttempts),
		LockoutDuration:   cfg.Login.LockoutDuration,
	}, codes)
	resets := reset.NewService(accounts, sessions, hasher, policy, cfg.Reset.TokenExpiry, nil)
	enroll := totp.NewEnrollment(accounts, codes)
	audits := audit.NewPostgresRecorder(pool)

	go sessions.RunCleanup(ctx, cfg.Session.CleanupInterval)

	handle := api.NewHandle(gateway, sessions, resets, enroll, audits, api.CookieConfig{
		Name:     cfg.Session.CookieName,
		HttpOnly: cfg.Session.CookieHttpOnly,
		Secure:   cfg.Session.CookieSecure,
	})

	logger := httplog.NewLogger("authd", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	api.Routes(r, handle)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

func runMigrations(ctx context.Context, dbURL string) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	return migrations.Run(ctx, db)
}

// bootstrapAdmin seeds the first account on an empty database so the
// service is usable immediately after provisioning.
func bootstrapAdmin(ctx context.Context, accounts account.Repository, hasher password.Hasher, cfg config.AdminConfig) error {
	n, err := accounts.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	created, err := accounts.Create(ctx, account.CreateAccountParams{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	slog.Info("seeded initial admin account", "username", created.Username)
	return nil
}
