package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

const callsSchema = `
CREATE TABLE IF NOT EXISTS calls (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT 'medium',
	status       TEXT NOT NULL DEFAULT 'new',
	scheduled_at BIGINT,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   BIGINT NOT NULL,
	updated_at   BIGINT
)`

const selectCalls = `SELECT id, name, phone, address, priority, status, scheduled_at, notes, created_at, updated_at FROM calls`

// PoolConfig controls database/sql pool behavior
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	out := c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 10
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 10
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 5 * time.Second
	}
	return out
}

// OpenPostgres opens a pgx-backed database/sql pool and pings it.
// dsn must not be logged; it contains secrets.
func OpenPostgres(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	pool = pool.withDefaults()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}

// PostgresStore implements Store on a single calls table
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresStore(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, callsSchema); err != nil {
		return nil, fmt.Errorf("failed to create calls table: %w", err)
	}
	logger = logger.With().Str("component", "postgres_store").Logger()
	logger.Info().Msg("Postgres store initialized")
	return &PostgresStore{db: db, logger: logger}, nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]types.Call, error) {
	rows, err := s.db.QueryContext(ctx, selectCalls)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	calls := []types.Call{}
	for rows.Next() {
		var (
			c         types.Call
			scheduled sql.NullInt64
			updated   sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Priority, &c.Status,
			&scheduled, &c.Notes, &c.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if scheduled.Valid {
			c.ScheduledAt = &scheduled.Int64
		}
		if updated.Valid {
			c.UpdatedAt = &updated.Int64
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, c types.Call) (string, error) {
	if c.ID == "" {
		c.ID = NewID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (id, name, phone, address, priority, status, scheduled_at, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.Phone, c.Address, string(c.Priority), string(c.Status),
		nullable(c.ScheduledAt), c.Notes, c.CreatedAt, nullable(c.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert call: %w", err)
	}
	return c.ID, nil
}

func nullable(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// buildSetClause renders the patch as positional SET assignments starting at $1
func buildSetClause(p types.Patch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority))
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.ClearSchedule {
		sets = append(sets, "scheduled_at = NULL")
	} else if p.ScheduledAt != nil {
		add("scheduled_at", *p.ScheduledAt)
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	if len(sets) > 0 && p.UpdatedAt != nil {
		add("updated_at", *p.UpdatedAt)
	}
	return strings.Join(sets, ", "), args
}

func (s *PostgresStore) Update(ctx context.Context, id string, p types.Patch) error {
	set, args := buildSetClause(p)
	if set == "" {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM calls WHERE id = $1`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE calls SET %s WHERE id = $%d`, set, len(args)), args...)
	if err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}
	return nil
}
