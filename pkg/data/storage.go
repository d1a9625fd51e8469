package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Error types for storage operations
var (
	ErrStorageOperation  = errors.New("storage operation failed")
	ErrJSONSerialization = errors.New("JSON serialization error")
	ErrAtomicWrite       = errors.New("atomic write operation failed")
)

// Store is the persistence collaborator the tournament controller calls
// after every mutating operation. Implementations must round-trip a full
// TournamentSession losslessly: undo and resumption depend on exact
// snapshot fidelity.
type Store interface {
	SaveSession(session *TournamentSession) error
	LoadSession(id string) (*TournamentSession, error)
	ListSessions() ([]SessionInfo, error)
	DeleteSession(id string) error
}

// SessionInfo summarizes a stored session without loading all of it
type SessionInfo struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	NameCount int           `json:"name_count"`
	Matches   int           `json:"matches"`
	SizeBytes int64         `json:"size_bytes"`
}

// FileStore persists sessions as one JSON document per session, written
// atomically via a temp file and rename.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed session store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// SaveSession writes the session atomically to <dir>/<id>.json
func (fs *FileStore) SaveSession(session *TournamentSession) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if session == nil || session.ID == "" {
		return fmt.Errorf("%w: session has no ID", ErrStorageOperation)
	}

	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create storage directory: %v", ErrStorageOperation, err)
	}

	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJSONSerialization, err)
	}

	target := fs.sessionPath(session.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrAtomicWrite, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrAtomicWrite, err)
	}
	return nil
}

// LoadSession reads, validates and re-indexes a stored session
func (fs *FileStore) LoadSession(id string) (*TournamentSession, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if id == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrStorageOperation)
	}

	payload, err := os.ReadFile(fs.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	var session TournamentSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
	}

	session.RebuildIndex()
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions enumerates stored sessions, newest first
func (fs *FileStore) ListSessions() ([]SessionInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionInfo{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}

	infos := make([]SessionInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		payload, err := os.ReadFile(filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			continue
		}

		// Parse only the fields the listing needs
		var partial struct {
			ID        string        `json:"id"`
			Title     string        `json:"title"`
			Status    SessionStatus `json:"status"`
			CreatedAt time.Time     `json:"created_at"`
			UpdatedAt time.Time     `json:"updated_at"`
			Names     []struct{}    `json:"names"`
			History   []struct{}    `json:"history"`
		}
		if err := json.Unmarshal(payload, &partial); err != nil || partial.ID == "" {
			continue
		}

		stat, err := entry.Info()
		var size int64
		if err == nil {
			size = stat.Size()
		}

		infos = append(infos, SessionInfo{
			ID:        partial.ID,
			Title:     partial.Title,
			Status:    partial.Status,
			CreatedAt: partial.CreatedAt,
			UpdatedAt: partial.UpdatedAt,
			NameCount: len(partial.Names),
			Matches:   len(partial.History),
			SizeBytes: size,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// DeleteSession removes a stored session; missing sessions are not an error
func (fs *FileStore) DeleteSession(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if id == "" {
		return fmt.Errorf("%w: session ID is required", ErrStorageOperation)
	}
	if err := os.Remove(fs.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStorageOperation, err)
	}
	return nil
}

func (fs *FileStore) sessionPath(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
