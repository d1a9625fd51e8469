package data

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Error types for session management
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidSessionState = errors.New("invalid session state")
	ErrSessionCorrupted    = errors.New("session data corrupted")
	ErrNameNotFound        = errors.New("name not found in pool")
)

// SessionStatus represents the lifecycle state of a tournament session
type SessionStatus string

const (
	StatusSetup    SessionStatus = "setup"    // pool assembled, no voting yet
	StatusActive   SessionStatus = "active"   // scheduler has pairs to offer
	StatusComplete SessionStatus = "complete" // scheduler exhausted; undo may reopen
)

// TournamentSession is the aggregate root of one ranking run. The tournament
// controller is its sole writer; everything here serializes losslessly so a
// resumed session replays undo and scheduling exactly, and every other
// component works from read-only copies.
type TournamentSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Config SessionConfig `json:"config"`

	// Names in original pool order. Pool order is the analytics tie-break,
	// so insertion order is load-bearing and never reshuffled here.
	Names []Name `json:"names"`

	// Full match history with pre-match snapshots; grows by append only,
	// shrinks only by undo from the end.
	History []Match `json:"history"`

	// Seed for the scheduler's tie-breaking shuffle, fixed at creation
	Seed int64 `json:"seed"`

	// Consecutive undos since the last appended match; bounds the undo window
	UndosSinceAppend int `json:"undos_since_append"`

	nameIndex map[string]int // rebuilt after load, never serialized
}

// NewSession creates a tournament session in Setup state
func NewSession(title string, names []Name, config SessionConfig, now time.Time) (*TournamentSession, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: session needs at least 2 names", ErrInvalidSessionState)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: session title is required", ErrRequiredField)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	id, err := generateSessionID(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	seed := config.Pairing.Seed
	if seed == 0 {
		seed, err = randomSeed()
		if err != nil {
			return nil, fmt.Errorf("failed to generate scheduler seed: %w", err)
		}
	}

	pool := make([]Name, len(names))
	copy(pool, names)

	seen := make(map[string]bool, len(pool))
	for i := range pool {
		if pool[i].ID == "" {
			return nil, fmt.Errorf("%w: name at index %d has no ID", ErrInvalidName, i)
		}
		if seen[pool[i].ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, pool[i].ID)
		}
		seen[pool[i].ID] = true

		pool[i].Rating = config.Elo.InitialRating
		pool[i].Matches, pool[i].Wins, pool[i].Losses, pool[i].Ties = 0, 0, 0, 0
	}

	session := &TournamentSession{
		ID:        id,
		Title:     title,
		Status:    StatusSetup,
		CreatedAt: now,
		UpdatedAt: now,
		Config:    config,
		Names:     pool,
		History:   make([]Match, 0),
		Seed:      seed,
	}
	session.RebuildIndex()

	return session, nil
}

// RebuildIndex reconstructs the ID lookup table after deserialization
func (s *TournamentSession) RebuildIndex() {
	s.nameIndex = make(map[string]int, len(s.Names))
	for i, name := range s.Names {
		s.nameIndex[name.ID] = i
	}
}

// NameByID returns a pointer into the pool for controller mutation
func (s *TournamentSession) NameByID(id string) (*Name, error) {
	if s.nameIndex == nil {
		s.RebuildIndex()
	}
	idx, ok := s.nameIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNameNotFound, id)
	}
	return &s.Names[idx], nil
}

// PoolIDs returns the name IDs in original pool order
func (s *TournamentSession) PoolIDs() []string {
	ids := make([]string, len(s.Names))
	for i, name := range s.Names {
		ids[i] = name.ID
	}
	return ids
}

// LastMatch returns the most recent history entry, or nil when empty
func (s *TournamentSession) LastMatch() *Match {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

// Clone returns a deep copy safe to hand to callers outside the controller
func (s *TournamentSession) Clone() *TournamentSession {
	clone := *s
	clone.Names = make([]Name, len(s.Names))
	copy(clone.Names, s.Names)
	clone.History = make([]Match, len(s.History))
	copy(clone.History, s.History)
	clone.nameIndex = nil
	return &clone
}

// Validate performs integrity checks on a loaded session. The counter
// identity it enforces: summed win+loss+tie over all names equals twice the
// number of decisive matches, since each one credits both participants.
func (s *TournamentSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: session ID is empty", ErrSessionCorrupted)
	}
	if len(s.Names) < 2 {
		return fmt.Errorf("%w: fewer than 2 names in pool", ErrSessionCorrupted)
	}
	switch s.Status {
	case StatusSetup, StatusActive, StatusComplete:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrSessionCorrupted, s.Status)
	}
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
	}

	seen := make(map[string]bool, len(s.Names))
	for _, name := range s.Names {
		if name.ID == "" {
			return fmt.Errorf("%w: name with empty ID", ErrSessionCorrupted)
		}
		if seen[name.ID] {
			return fmt.Errorf("%w: duplicate name ID %s", ErrSessionCorrupted, name.ID)
		}
		seen[name.ID] = true
	}

	decisive := 0
	for i, match := range s.History {
		if match.Seq != i {
			return fmt.Errorf("%w: match %d has sequence %d", ErrSessionCorrupted, i, match.Seq)
		}
		if err := match.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
		}
		if !seen[match.NameA] || !seen[match.NameB] {
			return fmt.Errorf("%w: match %d references unknown name", ErrSessionCorrupted, i)
		}
		if match.Outcome.Decisive() {
			decisive++
		}
	}

	outcomes := 0
	for _, name := range s.Names {
		outcomes += name.Wins + name.Losses + name.Ties
	}
	if outcomes != 2*decisive {
		return fmt.Errorf("%w: outcome counters (%d) disagree with decisive matches (%d)",
			ErrSessionCorrupted, outcomes, decisive)
	}

	return nil
}

// generateSessionID builds a timestamp-prefixed identifier with a random
// suffix for uniqueness
func generateSessionID(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("session_%s_%s", now.Format("20060102_150405"), hex.EncodeToString(suffix)), nil
}

func randomSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63))
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}
