// Package store persists the append-only ledgers behind resumable pipeline
// stages.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Entry is one outcome appended to a stage ledger.
type Entry struct {
	ID        string          `json:"id"`
	Stage     string          `json:"stage"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals the entry payload into v.
func (e Entry) Decode(v any) error {
	return eris.Wrapf(json.Unmarshal(e.Payload, v), "store: decode %s entry %q", e.Stage, e.Key)
}

// Ledger is an append-only log of processed keys per stage.
type Ledger interface {
	// ProcessedKeys returns every key recorded for stage.
	ProcessedKeys(ctx context.Context, stage string) (map[string]bool, error)
	// Append records the outcome for key. Payload must be valid JSON.
	Append(ctx context.Context, stage, key string, payload []byte) error
	// Entries returns the stage's entries in append order.
	Entries(ctx context.Context, stage string) ([]Entry, error)
	// Reset discards everything recorded for stage.
	Reset(ctx context.Context, stage string) (int, error)
}

// Store is a Ledger with a lifecycle.
type Store interface {
	Ledger
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a migrated store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(driver) {
	case "", "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres", "postgresql":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Latest collapses entries to the most recent one per key, ordered by each
// key's first appearance.
func Latest(entries []Entry) []Entry {
	pos := make(map[string]int, len(entries))
	var out []Entry
	for _, e := range entries {
		if i, ok := pos[e.Key]; ok {
			out[i] = e
			continue
		}
		pos[e.Key] = len(out)
		out = append(out, e)
	}
	return out
}

func validPayload(stage, key string, payload []byte) error {
	if !json.Valid(payload) {
		return eris.Errorf("store: %s entry %q payload is not valid JSON", stage, key)
	}
	return nil
}
