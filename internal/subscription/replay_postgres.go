package subscription

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresReplayLog is a durable ReplayLog, activated when
// AGENTESE_REPLAY_LOG_URL is set. Rows are filtered against a Pattern
// in Go after a bounded SQL fetch, the same way InMemoryReplayLog
// filters its ring — the store only needs to get candidates out of
// persistence cheaply, not evaluate segment wildcards in SQL.
type PostgresReplayLog struct {
	pool *pgxpool.Pool
}

// NewPostgresReplayLog connects, pings, and migrates the events table.
func NewPostgresReplayLog(ctx context.Context, connURL string) (*PostgresReplayLog, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	l := &PostgresReplayLog{pool: pool}
	if err := l.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

func (l *PostgresReplayLog) migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agentese_events (
			id BIGSERIAL PRIMARY KEY,
			context TEXT NOT NULL,
			segments TEXT[] NOT NULL,
			aspect TEXT NOT NULL,
			payload JSONB,
			recorded_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS agentese_events_recorded_at_idx
			ON agentese_events (recorded_at);
	`)
	return err
}

// Append persists an event. Failures are logged, not returned: a
// publisher's Append must never block or fail the publish itself.
func (l *PostgresReplayLog) Append(e Event) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		payload = []byte("null")
	}
	ctx := context.Background()
	_, err = l.pool.Exec(ctx,
		`INSERT INTO agentese_events (context, segments, aspect, payload, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.Context, e.Segments, e.Aspect, payload, e.Timestamp)
	if err != nil {
		log.Warn().Err(err).Str("context", e.Context).Str("aspect", e.Aspect).Msg("⚠️  failed to persist event")
	}
}

func (l *PostgresReplayLog) Since(pattern *Pattern, from time.Time) []Event {
	ctx := context.Background()
	rows, err := l.pool.Query(ctx,
		`SELECT context, segments, aspect, payload, recorded_at
		 FROM agentese_events WHERE recorded_at >= $1 ORDER BY recorded_at ASC`,
		from)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  replay query failed")
		return nil
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, ok := scanEvent(rows)
		if ok && pattern.Matches(e.Context, e.Segments, e.Aspect) {
			out = append(out, e)
		}
	}
	return out
}

func (l *PostgresReplayLog) LastN(pattern *Pattern, n int) []Event {
	ctx := context.Background()
	rows, err := l.pool.Query(ctx,
		`SELECT context, segments, aspect, payload, recorded_at
		 FROM agentese_events ORDER BY recorded_at DESC LIMIT $1`,
		n*10+100) // overfetch since pattern filtering happens after the scan
	if err != nil {
		log.Warn().Err(err).Msg("⚠️  replay query failed")
		return nil
	}
	defer rows.Close()

	var matching []Event
	for rows.Next() {
		e, ok := scanEvent(rows)
		if ok && pattern.Matches(e.Context, e.Segments, e.Aspect) {
			matching = append(matching, e)
		}
	}
	// rows arrived newest-first; restore chronological order before trimming.
	for i, j := 0, len(matching)-1; i < j; i, j = i+1, j-1 {
		matching[i], matching[j] = matching[j], matching[i]
	}
	if len(matching) > n {
		matching = matching[len(matching)-n:]
	}
	return matching
}

func (l *PostgresReplayLog) Close(ctx context.Context) error {
	l.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(rows rowScanner) (Event, bool) {
	var e Event
	var payload []byte
	if err := rows.Scan(&e.Context, &e.Segments, &e.Aspect, &payload, &e.Timestamp); err != nil {
		log.Warn().Err(err).Msg("⚠️  failed to scan replayed event")
		return Event{}, false
	}
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &e.Payload)
	}
	return e, true
}
