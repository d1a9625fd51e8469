package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playOut(t *testing.T, s *Scheduler) []Pair {
	t.Helper()

	var history []Pair
	for {
		pair, err := s.NextPair(history)
		if err == ErrExhausted {
			return history
		}
		require.NoError(t, err)
		history = append(history, pair)
		require.Less(t, len(history), 10_000, "scheduler never exhausted")
	}
}

func TestNextPairInsufficientPool(t *testing.T) {
	for _, pool := range [][]string{nil, {}, {"solo"}} {
		s := New(pool, Config{Seed: 1})
		_, err := s.NextPair(nil)
		assert.ErrorIs(t, err, ErrInsufficientPool)
	}
}

func TestRoundRobinFourNames(t *testing.T) {
	s := New([]string{"ada", "bea", "cyn", "dot"}, Config{Seed: 42})

	history := playOut(t, s)

	// 4 names yield exactly C(4,2) = 6 distinct unordered pairs
	require.Len(t, history, 6)

	seen := make(map[string]bool)
	for _, p := range history {
		assert.False(t, seen[p.Key()], "pair %s offered twice", p.Key())
		seen[p.Key()] = true
	}
	assert.Len(t, seen, 6)
}

func TestNoConsecutiveRepeats(t *testing.T) {
	s := New([]string{"a", "b", "c", "d", "e"}, Config{Seed: 7, MaxRounds: 3})

	history := playOut(t, s)
	require.Len(t, history, 3*10)

	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Equal(history[i-1]),
			"consecutive repeat at index %d: %s", i, history[i].Key())
	}
}

func TestTwoNamePoolRepeatsAcrossRounds(t *testing.T) {
	// With one possible pair, consecutive repeats are unavoidable and allowed
	s := New([]string{"a", "b"}, Config{Seed: 1, MaxRounds: 3})

	history := playOut(t, s)
	assert.Len(t, history, 3)
	for _, p := range history {
		assert.Equal(t, "a|b", p.Key())
	}
}

func TestBalancedCoverage(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	for n := 3; n <= len(names); n++ {
		pool := names[:n]
		for seed := int64(1); seed <= 200; seed++ {
			s := New(pool, Config{Seed: seed})

			var history []Pair
			for {
				pair, err := s.NextPair(history)
				if err == ErrExhausted {
					break
				}
				require.NoError(t, err)
				history = append(history, pair)

				// Max-min match count spread stays within 1 at every step
				counts := make(map[string]int)
				for _, p := range history {
					counts[p.A]++
					counts[p.B]++
				}
				lo, hi := len(history)*2, 0
				for _, id := range pool {
					if counts[id] < lo {
						lo = counts[id]
					}
					if counts[id] > hi {
						hi = counts[id]
					}
				}
				require.LessOrEqual(t, hi-lo, 1,
					"pool %d seed %d unbalanced after %d matches", n, seed, len(history))
			}
			require.Len(t, history, n*(n-1)/2, "pool %d seed %d", n, seed)

			seen := make(map[string]bool)
			for _, p := range history {
				require.False(t, seen[p.Key()], "pool %d seed %d repeats %s", n, seed, p.Key())
				seen[p.Key()] = true
			}
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}

	first := playOut(t, New(pool, Config{Seed: 1234}))
	second := playOut(t, New(pool, Config{Seed: 1234}))
	assert.Equal(t, first, second)

	assert.Equal(t, New(pool, Config{Seed: 1234}).Order(), New(pool, Config{Seed: 1234}).Order())
}

func TestSeedShufflesPresentationOrder(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	orders := make(map[string]bool)
	for seed := int64(0); seed < 8; seed++ {
		order := New(pool, Config{Seed: seed}).Order()
		key := ""
		for _, id := range order {
			key += id
		}
		orders[key] = true
	}
	// Different seeds should not all collapse to insertion order
	assert.Greater(t, len(orders), 1)
}

func TestUndoRestoresEligibility(t *testing.T) {
	s := New([]string{"a", "b", "c", "d"}, Config{Seed: 5})

	var history []Pair
	first, err := s.NextPair(history)
	require.NoError(t, err)
	history = append(history, first)

	second, err := s.NextPair(history)
	require.NoError(t, err)
	require.False(t, first.Equal(second))

	// Popping the last match makes the same pair schedulable again
	history = history[:0]
	again, err := s.NextPair(history)
	require.NoError(t, err)
	assert.True(t, first.Equal(again))
}

func TestHistoryWithUnknownName(t *testing.T) {
	s := New([]string{"a", "b", "c"}, Config{Seed: 1})

	_, err := s.NextPair([]Pair{{A: "a", B: "zz"}})
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestRemaining(t *testing.T) {
	s := New([]string{"a", "b", "c", "d"}, Config{Seed: 3, MaxRounds: 2})

	assert.Equal(t, 12, s.TotalPairs())
	assert.Equal(t, 12, s.Remaining(nil))

	history := playOut(t, s)
	assert.Len(t, history, 12)
	assert.Equal(t, 0, s.Remaining(history))
}
