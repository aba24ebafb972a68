package budget

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresLedger is a LedgerStore backed by PostgreSQL. Users bring their
// own instance; connection URL comes from AGENTESE_LEDGER_URL.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger connects to connURL and ensures the ledger table
// exists.
func NewPostgresLedger(ctx context.Context, connURL string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("ledger connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger ping: %w", err)
	}

	l := &PostgresLedger{pool: pool}
	if err := l.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger migrate: %w", err)
	}

	log.Info().Msg("✅ postgres budget ledger initialized")
	return l, nil
}

func (l *PostgresLedger) migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS agentese_ledger (
			id         BIGSERIAL PRIMARY KEY,
			account_id TEXT NOT NULL,
			kind       TEXT NOT NULL,
			amount     DOUBLE PRECISION NOT NULL,
			path       TEXT NOT NULL DEFAULT '',
			aspect     TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_agentese_ledger_account ON agentese_ledger (account_id);
	`
	_, err := l.pool.Exec(ctx, ddl)
	return err
}

func (l *PostgresLedger) Record(ctx context.Context, entry LedgerEntry) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO agentese_ledger (account_id, kind, amount, path, aspect) VALUES ($1, $2, $3, $4, $5)`,
		entry.AccountID, entry.Kind, entry.Amount, entry.Path, entry.Aspect)
	return err
}

func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (float64, error) {
	var balance float64
	err := l.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE WHEN kind = 'credit' THEN amount ELSE -amount END), 0) FROM agentese_ledger WHERE account_id = $1`,
		accountID).Scan(&balance)
	return balance, err
}

func (l *PostgresLedger) Close(ctx context.Context) error {
	l.pool.Close()
	return nil
}
