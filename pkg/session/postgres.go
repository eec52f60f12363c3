package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository backed by PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const sessionColumns = `s.id, s.account_id, s.token, s.ip_address, s.user_agent, s.created_at, s.expires_at, s.last_activity`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.Token,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.LastActivity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, arg CreateSessionParams) (Session, error) {
	query := `
		INSERT INTO sessions (account_id, token, ip_address, user_agent, expires_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, account_id, token, ip_address, user_agent, created_at, expires_at, last_activity`

	row := r.pool.QueryRow(ctx, query,
		arg.AccountID, arg.Token, arg.IPAddress, arg.UserAgent, arg.ExpiresAt, arg.LastActivity)
	s, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetLiveByToken(ctx context.Context, token string, now time.Time) (Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.token = $1 AND s.expires_at > $2 AND a.is_active`

	return scanSession(r.pool.QueryRow(ctx, query, token, now))
}

func (r *PostgresRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE sessions SET last_activity = $2 WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	if _, err := r.pool.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAllByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `DELETE FROM sessions WHERE account_id = $1`

	tag, err := r.pool.Exec(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete account sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= $1`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
