package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ledger (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	stage      TEXT NOT NULL,
	key        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_ledger_stage_key ON ledger(stage, key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ProcessedKeys(ctx context.Context, stage string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT key FROM ledger WHERE stage = ?`, stage)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: processed keys %s", stage)
	}
	defer rows.Close() //nolint:errcheck

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		keys[k] = true
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: iterate keys")
}

func (s *SQLiteStore) Append(ctx context.Context, stage, key string, payload []byte) error {
	if err := validPayload(stage, key, payload); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger (id, stage, key, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), stage, key, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: append %s entry %q", stage, key)
}

func (s *SQLiteStore) Entries(ctx context.Context, stage string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, key, payload, created_at FROM ledger WHERE stage = ? ORDER BY seq`,
		stage,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: entries %s", stage)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Stage, &e.Key, &payload, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate entries")
}

func (s *SQLiteStore) Reset(ctx context.Context, stage string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledger WHERE stage = ?`, stage)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: reset %s", stage)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
