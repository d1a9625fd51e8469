package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// SQLiteStore persists sessions in a single SQLite database. Listing fields
// live in real columns; the authoritative session document is stored as a
// JSON payload so round-trips stay lossless.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('setup', 'active', 'complete')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    name_count INTEGER NOT NULL,
    match_count INTEGER NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_updated_at ON session(updated_at);
`

// NewSQLiteStore opens (creating if needed) a SQLite-backed session store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open database: %v", ErrStorageOperation, err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: cannot create schema: %v", ErrStorageOperation, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSession upserts the session row and its JSON payload
func (s *SQLiteStore) SaveSession(session *TournamentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil || session.ID == "" {
		return fmt.Errorf("%w: session has no ID", ErrStorageOperation)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJSONSerialization, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO session (id, title, status, created_at, updated_at, name_count, match_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			updated_at = excluded.updated_at,
			name_count = excluded.name_count,
			match_count = excluded.match_count,
			payload = excluded.payload`,
		session.ID, session.Title, string(session.Status),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
		len(session.Names), len(session.History), string(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	return nil
}

// LoadSession reads, validates and re-indexes a stored session
func (s *SQLiteStore) LoadSession(id string) (*TournamentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrStorageOperation)
	}

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM session WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	var session TournamentSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
	}

	session.RebuildIndex()
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions enumerates stored sessions, newest first
func (s *SQLiteStore) ListSessions() ([]SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, title, status, created_at, updated_at, name_count, match_count, LENGTH(payload)
		FROM session
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	defer func() { _ = rows.Close() }()

	infos := make([]SessionInfo, 0)
	for rows.Next() {
		var info SessionInfo
		var status, created, updated string
		if err := rows.Scan(&info.ID, &info.Title, &status, &created, &updated,
			&info.NameCount, &info.Matches, &info.SizeBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
		}
		info.Status = SessionStatus(status)
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	return infos, nil
}

// DeleteSession removes a stored session; missing sessions are not an error
func (s *SQLiteStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return fmt.Errorf("%w: session ID is required", ErrStorageOperation)
	}
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	return nil
}
