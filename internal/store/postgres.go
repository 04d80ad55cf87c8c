package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jobboard-cli/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pool, err := NewPool(ctx, connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, connString string, poolCfg *PoolConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ledger (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	stage      TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_ledger_stage_key ON ledger(stage, key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ProcessedKeys(ctx context.Context, stage string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT key FROM ledger WHERE stage = $1`, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: processed keys %s", stage)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		keys[k] = true
	}
	return keys, eris.Wrap(rows.Err(), "postgres: iterate keys")
}

func (s *PostgresStore) Append(ctx context.Context, stage, key string, payload []byte) error {
	if err := validPayload(stage, key, payload); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ledger (id, stage, key, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), stage, key, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: append %s entry %q", stage, key)
}

func (s *PostgresStore) Entries(ctx context.Context, stage string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, stage, key, payload, created_at FROM ledger WHERE stage = $1 ORDER BY seq`,
		stage,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: entries %s", stage)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Stage, &e.Key, &payload, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate entries")
}

func (s *PostgresStore) Reset(ctx context.Context, stage string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ledger WHERE stage = $1`, stage)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: reset %s", stage)
	}
	return int(tag.RowsAffected()), nil
}
