package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder appends audit events to the audit_log table
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a new PostgreSQL audit recorder
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

func (r *PostgresRecorder) Record(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_log (account_id, action, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, event.AccountID, event.Action, event.IPAddress, event.UserAgent); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}
