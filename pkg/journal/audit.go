// Package journal records what happened in a tournament and gets results
// out of it: an append-only JSON Lines audit trail with a tamper-evident
// hash chain, and ranking export in several formats.
package journal

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pashagolub/nameduel/pkg/data"
)

// Error types for audit trail operations
var (
	ErrTrailCorrupted = errors.New("audit trail corrupted or tampered")
	ErrTrailClosed    = errors.New("audit trail is closed")
)

// Event names the tournament occurrences worth auditing. The values match
// what the controller emits through its event sink.
type Event string

const (
	EventSessionCreated   Event = "session_created"
	EventSessionStarted   Event = "session_started"
	EventSessionResumed   Event = "session_resumed"
	EventSessionCompleted Event = "session_completed"
	EventVoteCast         Event = "vote_cast"
	EventVoteUndone       Event = "vote_undone"
)

// Entry is one line of the audit trail. Each entry hashes its own content
// together with the previous entry's hash, so editing or dropping a line
// breaks verification of everything after it.
type Entry struct {
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Event     Event          `json:"event"`
	Details   map[string]any `json:"details,omitempty"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
}

// AuditTrail is an append-only JSONL log for one session. Reopening an
// existing trail verifies the whole chain before accepting new entries.
type AuditTrail struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	clock    data.Clock
	lastHash string
	seq      uint64
}

// OpenTrail creates or reopens the audit trail for a session. An existing
// file is replayed and verified; a broken chain refuses to open rather
// than silently extending a tampered log.
func OpenTrail(sessionID, dir string, clock data.Clock) (*AuditTrail, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}
	if clock == nil {
		clock = data.SystemClock{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create audit directory: %w", err)
	}

	trail := &AuditTrail{
		path:  filepath.Join(dir, "audit_"+sessionID+".jsonl"),
		clock: clock,
	}

	if _, err := os.Stat(trail.path); err == nil {
		last, seq, err := replayChain(trail.path)
		if err != nil {
			return nil, err
		}
		trail.lastHash = last
		trail.seq = seq
	}

	file, err := os.OpenFile(trail.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit trail: %w", err)
	}
	trail.file = file
	return trail, nil
}

// Path returns the trail's file location
func (t *AuditTrail) Path() string {
	return t.path
}

// Append writes one event to the trail and syncs it to disk
func (t *AuditTrail) Append(event Event, details map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return ErrTrailClosed
	}

	entry := Entry{
		Seq:       t.seq,
		Timestamp: t.clock.Now(),
		Event:     event,
		Details:   details,
		PrevHash:  t.lastHash,
	}
	entry.Hash = entryHash(entry)

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cannot marshal audit entry: %w", err)
	}
	if _, err := t.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("cannot write audit entry: %w", err)
	}
	if err := t.file.Sync(); err != nil {
		return fmt.Errorf("cannot sync audit trail: %w", err)
	}

	t.lastHash = entry.Hash
	t.seq++
	return nil
}

// RecordEvent adapts the trail to the tournament controller's event sink.
// The controller treats auditing as best effort, so write failures are
// logged rather than returned into the vote path.
func (t *AuditTrail) RecordEvent(event string, details map[string]any) {
	if err := t.Append(Event(event), details); err != nil {
		slog.Warn("audit append failed", "event", event, "error", err)
	}
}

// Verify re-reads the whole trail and checks the hash chain
func (t *AuditTrail) Verify() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, err := replayChain(t.path)
	return err
}

// Entries returns every entry in the trail in append order
func (t *AuditTrail) Entries() ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read audit trail: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("%w: bad JSON at line %d", ErrTrailCorrupted, len(entries)+1)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read audit trail: %w", err)
	}
	return entries, nil
}

// Close releases the trail's file handle; further appends fail
func (t *AuditTrail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// replayChain walks an existing trail validating sequence numbers and the
// hash chain, returning the final hash and next sequence number
func replayChain(path string) (lastHash string, seq uint64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("cannot open audit trail: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return "", 0, fmt.Errorf("%w: bad JSON at seq %d", ErrTrailCorrupted, seq)
		}
		if entry.Seq != seq {
			return "", 0, fmt.Errorf("%w: sequence gap at %d", ErrTrailCorrupted, seq)
		}
		if entry.PrevHash != lastHash {
			return "", 0, fmt.Errorf("%w: chain broken at seq %d", ErrTrailCorrupted, seq)
		}
		if entryHash(entry) != entry.Hash {
			return "", 0, fmt.Errorf("%w: content mismatch at seq %d", ErrTrailCorrupted, seq)
		}

		lastHash = entry.Hash
		seq++
	}
	if err := scanner.Err(); err != nil {
		return "", 0, fmt.Errorf("cannot read audit trail: %w", err)
	}
	return lastHash, seq, nil
}

// entryHash digests everything except the Hash field itself. Details are
// hashed through their canonical JSON encoding.
func entryHash(entry Entry) string {
	details, _ := json.Marshal(entry.Details)
	detailsSum := sha256.Sum256(details)
	content := fmt.Sprintf("%d|%s|%s|%s|%s",
		entry.Seq,
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.Event,
		entry.PrevHash,
		hex.EncodeToString(detailsSum[:]))
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
