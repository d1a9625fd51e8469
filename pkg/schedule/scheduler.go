// Package schedule implements the pairing scheduler for pairwise name
// tournaments. It sequences comparisons so that every name is matched a
// roughly equal number of times, no unordered pair repeats within a pass,
// and no two consecutive comparisons show the same pair. All scheduling
// state is derived from the session seed and the match history, so replays
// from persisted state and undo both reproduce the same pairings.
package schedule

import (
	"errors"
	"math/rand"
)

// Error types for scheduling
var (
	ErrInsufficientPool = errors.New("pool must contain at least 2 active names")
	ErrExhausted        = errors.New("no further pairs available")
	ErrUnknownName      = errors.New("history references a name outside the pool")
)

// Pair is an unordered matchup between two names. A and B follow the
// scheduler's presentation order, not any ranking.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Key returns a canonical identifier for the unordered pair
func (p Pair) Key() string {
	if p.A < p.B {
		return p.A + "|" + p.B
	}
	return p.B + "|" + p.A
}

// Equal reports whether two pairs match regardless of order
func (p Pair) Equal(other Pair) bool {
	return p.Key() == other.Key()
}

// Config holds scheduling parameters
type Config struct {
	// Seed drives the tie-breaking shuffle. The same seed and history always
	// produce the same pairing sequence.
	Seed int64 `json:"seed"`

	// MaxRounds caps how many full round-robin passes are played.
	// Zero selects a single round-robin: every unordered pair exactly once.
	MaxRounds int `json:"max_rounds"`
}

// Scheduler produces the next comparison pair for a pool of names
type Scheduler struct {
	order     []string // pool IDs in seeded shuffle order
	rank      map[string]int
	pass      []Pair // one full round-robin in balanced order
	maxRounds int
}

// New creates a scheduler over the given pool. The pool slice carries name
// IDs in their original insertion order; the scheduler shuffles a copy with
// the configured seed so early-listed names get no systematic advantage.
func New(pool []string, config Config) *Scheduler {
	order := make([]string, len(pool))
	copy(order, pool)

	rng := rand.New(rand.NewSource(config.Seed))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}

	rounds := config.MaxRounds
	if rounds <= 0 {
		rounds = 1
	}

	return &Scheduler{
		order:     order,
		rank:      rank,
		pass:      buildPass(order),
		maxRounds: rounds,
	}
}

// Order returns the seeded presentation order of the pool
func (s *Scheduler) Order() []string {
	order := make([]string, len(s.order))
	copy(order, s.order)
	return order
}

// buildPass lays out one full round-robin so that per-name match counts stay
// within one of each other after every comparison and no pair appears twice
// in a row. Even pools use the circle method, one perfect matching per round.
// Odd pools decompose into Hamiltonian cycles through a hub name, each cycle
// walked as two near-matchings.
func buildPass(order []string) []Pair {
	if len(order) < 2 {
		return nil
	}
	if len(order)%2 == 0 {
		return evenPass(order)
	}
	return oddPass(order)
}

func evenPass(order []string) []Pair {
	n := len(order)
	arr := make([]string, n)
	copy(arr, order)

	pass := make([]Pair, 0, n*(n-1)/2)
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			pass = append(pass, Pair{A: arr[i], B: arr[n-1-i]})
		}
		// rotate every position except arr[0]
		last := arr[n-1]
		copy(arr[2:], arr[1:n-1])
		arr[1] = last
	}
	return pass
}

func oddPass(order []string) []Pair {
	n := len(order)
	m := n - 1
	hub := order[m]

	pass := make([]Pair, 0, n*(n-1)/2)
	for j := 0; j < m/2; j++ {
		// Hamiltonian cycle: hub, then the zigzag path j, j+1, j-1, j+2, ...
		// over the remaining names. Distinct j values share no edges.
		cycle := make([]string, 0, n)
		cycle = append(cycle, hub, order[j])
		for step := 1; step < m; step++ {
			d := (step + 1) / 2
			idx := j - d
			if step%2 == 1 {
				idx = j + d
			}
			cycle = append(cycle, order[((idx%m)+m)%m])
		}

		edges := make([]Pair, n)
		for i := 0; i < n; i++ {
			edges[i] = Pair{A: cycle[i], B: cycle[(i+1)%n]}
		}

		// Walk the cycle as two near-matchings: the even-indexed edges cover
		// all but the last cycle vertex, which then plays immediately. The
		// remaining odd-indexed edges close out the balance, with the edge
		// back to the hub last.
		for i := 0; i < n-2; i += 2 {
			pass = append(pass, edges[i])
		}
		pass = append(pass, edges[n-2])
		for i := 1; i < n-3; i += 2 {
			pass = append(pass, edges[i])
		}
		pass = append(pass, edges[n-1])
	}
	return pass
}

// NextPair selects the next comparison from the match history. Skipped
// matches must be present in the history: they occupy a schedule slot so the
// same pair is not re-offered immediately after a skip. Selection is
// positional over the precomputed pass, so popping the last match via undo
// re-offers exactly the pair that was undone.
func (s *Scheduler) NextPair(history []Pair) (Pair, error) {
	n := len(s.order)
	if n < 2 {
		return Pair{}, ErrInsufficientPool
	}

	for _, p := range history {
		if _, ok := s.rank[p.A]; !ok {
			return Pair{}, ErrUnknownName
		}
		if _, ok := s.rank[p.B]; !ok {
			return Pair{}, ErrUnknownName
		}
	}

	idx := len(history)
	if idx >= s.maxRounds*len(s.pass) {
		return Pair{}, ErrExhausted
	}
	return s.pass[idx%len(s.pass)], nil
}

// Remaining reports how many comparisons are left before exhaustion
func (s *Scheduler) Remaining(history []Pair) int {
	n := len(s.order)
	if n < 2 {
		return 0
	}
	total := s.maxRounds * n * (n - 1) / 2
	if len(history) >= total {
		return 0
	}
	return total - len(history)
}

// TotalPairs reports the number of comparisons a full session will run
func (s *Scheduler) TotalPairs() int {
	n := len(s.order)
	return s.maxRounds * n * (n - 1) / 2
}
