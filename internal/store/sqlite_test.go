package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_AppendAndProcessedKeys(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "careers", "Acme", []byte(`{"roles":[]}`)))
	require.NoError(t, st.Append(ctx, "careers", "Beta", []byte(`{"roles":[1]}`)))
	require.NoError(t, st.Append(ctx, "enrich", "Gamma", []byte(`{}`)))

	keys, err := st.ProcessedKeys(ctx, "careers")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Acme": true, "Beta": true}, keys)

	keys, err = st.ProcessedKeys(ctx, "geocode")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLite_EntriesInAppendOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, st.Append(ctx, "careers", k, []byte(`{"k":"`+k+`"}`)))
	}

	entries, err := st.Entries(ctx, "careers")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Key)
	assert.Equal(t, "a", entries[1].Key)
	assert.Equal(t, "b", entries[2].Key)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "careers", entries[0].Stage)
	assert.False(t, entries[0].CreatedAt.IsZero())

	var payload struct{ K string }
	require.NoError(t, entries[1].Decode(&payload))
	assert.Equal(t, "a", payload.K)
}

func TestSQLite_AppendRejectsInvalidJSON(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.Append(context.Background(), "careers", "Acme", []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestSQLite_Reset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "careers", "Acme", []byte(`{}`)))
	require.NoError(t, st.Append(ctx, "enrich", "Acme", []byte(`{}`)))

	n, err := st.Reset(ctx, "careers")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := st.ProcessedKeys(ctx, "careers")
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = st.ProcessedKeys(ctx, "enrich")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s1, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Migrate(ctx))
	require.NoError(t, s1.Append(ctx, "geocode", "CB1 1AA", []byte(`{"lat":52.2,"lon":0.13}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, "sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() }) //nolint:errcheck

	keys, err := s2.ProcessedKeys(ctx, "geocode")
	require.NoError(t, err)
	assert.True(t, keys["CB1 1AA"])
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestLatest(t *testing.T) {
	entries := []Entry{
		{Key: "a", Payload: []byte(`1`)},
		{Key: "b", Payload: []byte(`2`)},
		{Key: "a", Payload: []byte(`3`)},
	}
	got := Latest(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, `3`, string(got[0].Payload))
	assert.Equal(t, "b", got[1].Key)
}
