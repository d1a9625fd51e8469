package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets every store implementation share one conformance suite
var storeFactories = map[string]func(t *testing.T) Store{
	"FileStore": func(t *testing.T) Store {
		return NewFileStore(t.TempDir())
	},
	"SQLiteStore": func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nameduel.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	},
}

func TestStoreRoundTrip(t *testing.T) {
	for label, factory := range storeFactories {
		t.Run(label, func(t *testing.T) {
			store := factory(t)

			session := newTestSession(t, "ada", "bea", "cyn")
			session.Status = StatusActive
			session.History = append(session.History, Match{
				ID: "m1", Seq: 0, NameA: "ada", NameB: "bea", Outcome: OutcomeTie,
				Timestamp:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
				PriorRatingA: 1000, PriorRatingB: 1000,
			})
			session.Names[0].Matches, session.Names[0].Ties = 1, 1
			session.Names[1].Matches, session.Names[1].Ties = 1, 1

			require.NoError(t, store.SaveSession(session))

			restored, err := store.LoadSession(session.ID)
			require.NoError(t, err)

			assert.Equal(t, session.ID, restored.ID)
			assert.Equal(t, session.Seed, restored.Seed)
			assert.Equal(t, session.Names, restored.Names)
			assert.Equal(t, session.Status, restored.Status)
			require.Len(t, restored.History, 1)
			assert.True(t, session.History[0].Timestamp.Equal(restored.History[0].Timestamp))
		})
	}
}

func TestStoreLoadMissing(t *testing.T) {
	for label, factory := range storeFactories {
		t.Run(label, func(t *testing.T) {
			_, err := factory(t).LoadSession("session_nope")
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestStoreListSessions(t *testing.T) {
	for label, factory := range storeFactories {
		t.Run(label, func(t *testing.T) {
			store := factory(t)

			infos, err := store.ListSessions()
			require.NoError(t, err)
			assert.Empty(t, infos)

			first := newTestSession(t, "a", "b")
			second := newTestSession(t, "c", "d", "e")
			first.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			second.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, store.SaveSession(first))
			require.NoError(t, store.SaveSession(second))

			infos, err = store.ListSessions()
			require.NoError(t, err)
			require.Len(t, infos, 2)

			// Newest first
			assert.Equal(t, second.ID, infos[0].ID)
			assert.Equal(t, 3, infos[0].NameCount)
			assert.Equal(t, first.ID, infos[1].ID)
			assert.Positive(t, infos[0].SizeBytes)
		})
	}
}

func TestStoreDeleteSession(t *testing.T) {
	for label, factory := range storeFactories {
		t.Run(label, func(t *testing.T) {
			store := factory(t)

			session := newTestSession(t, "a", "b")
			require.NoError(t, store.SaveSession(session))
			require.NoError(t, store.DeleteSession(session.ID))

			_, err := store.LoadSession(session.ID)
			assert.ErrorIs(t, err, ErrSessionNotFound)

			// Deleting again is not an error
			assert.NoError(t, store.DeleteSession(session.ID))
		})
	}
}

func TestFileStoreAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	session := newTestSession(t, "a", "b")
	require.NoError(t, store.SaveSession(session))

	// No temp file remains after a successful save
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}

func TestFileStoreCorruptedSession(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_bad.json"), []byte("{not json"), 0o644))

	_, err := store.LoadSession("session_bad")
	assert.ErrorIs(t, err, ErrSessionCorrupted)
}
