package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/nameduel/pkg/data"
)

func testClock() data.FixedClock {
	return data.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestOpenTrailRequiresSessionID(t *testing.T) {
	_, err := OpenTrail("", t.TempDir(), testClock())
	assert.Error(t, err)
}

func TestAppendAndReadBack(t *testing.T) {
	trail, err := OpenTrail("session_x", t.TempDir(), testClock())
	require.NoError(t, err)
	defer trail.Close()

	require.NoError(t, trail.Append(EventSessionCreated, map[string]any{"names": 4}))
	require.NoError(t, trail.Append(EventVoteCast, map[string]any{"pair": "ada vs bea"}))

	entries, err := trail.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint64(0), entries[0].Seq)
	assert.Equal(t, EventSessionCreated, entries[0].Event)
	assert.Empty(t, entries[0].PrevHash)

	assert.Equal(t, uint64(1), entries[1].Seq)
	assert.Equal(t, EventVoteCast, entries[1].Event)
	assert.Equal(t, entries[0].Hash, entries[1].PrevHash)
}

func TestVerifyCleanTrail(t *testing.T) {
	trail, err := OpenTrail("session_x", t.TempDir(), testClock())
	require.NoError(t, err)
	defer trail.Close()

	for range 5 {
		require.NoError(t, trail.Append(EventVoteCast, map[string]any{"k": "v"}))
	}
	assert.NoError(t, trail.Verify())
}

func TestReopenContinuesChain(t *testing.T) {
	dir := t.TempDir()

	trail, err := OpenTrail("session_x", dir, testClock())
	require.NoError(t, err)
	require.NoError(t, trail.Append(EventSessionCreated, nil))
	require.NoError(t, trail.Append(EventVoteCast, nil))
	require.NoError(t, trail.Close())

	reopened, err := OpenTrail("session_x", dir, testClock())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Append(EventSessionCompleted, nil))

	entries, err := reopened.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(2), entries[2].Seq)
	assert.Equal(t, entries[1].Hash, entries[2].PrevHash)
	assert.NoError(t, reopened.Verify())
}

func TestTamperedTrailDetected(t *testing.T) {
	dir := t.TempDir()

	trail, err := OpenTrail("session_x", dir, testClock())
	require.NoError(t, err)
	require.NoError(t, trail.Append(EventVoteCast, map[string]any{"outcome": "a_wins"}))
	require.NoError(t, trail.Append(EventVoteCast, map[string]any{"outcome": "b_wins"}))
	require.NoError(t, trail.Close())

	path := filepath.Join(dir, "audit_session_x.jsonl")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), "a_wins", "b_wins", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	_, err = OpenTrail("session_x", dir, testClock())
	assert.ErrorIs(t, err, ErrTrailCorrupted)
}

func TestTruncatedTrailDetected(t *testing.T) {
	dir := t.TempDir()

	trail, err := OpenTrail("session_x", dir, testClock())
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, trail.Append(EventVoteCast, nil))
	}
	require.NoError(t, trail.Close())

	// Drop the middle line
	path := filepath.Join(dir, "audit_session_x.jsonl")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	cut := strings.Join([]string{lines[0], lines[2]}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cut), 0o644))

	_, err = OpenTrail("session_x", dir, testClock())
	assert.ErrorIs(t, err, ErrTrailCorrupted)
}

func TestAppendAfterClose(t *testing.T) {
	trail, err := OpenTrail("session_x", t.TempDir(), testClock())
	require.NoError(t, err)
	require.NoError(t, trail.Close())

	assert.ErrorIs(t, trail.Append(EventVoteCast, nil), ErrTrailClosed)
}

func TestRecordEventSwallowsFailures(t *testing.T) {
	trail, err := OpenTrail("session_x", t.TempDir(), testClock())
	require.NoError(t, err)
	require.NoError(t, trail.Close())

	// Must not panic or return; failures go to the log
	trail.RecordEvent("vote_cast", map[string]any{"pair": "x vs y"})
}
