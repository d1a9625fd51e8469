package data

import (
	"errors"
	"fmt"
	"time"
)

// Error types for match records
var (
	ErrInvalidOutcome = errors.New("unknown match outcome")
	ErrInvalidMatch   = errors.New("invalid match record")
)

// Outcome is the user's decision for one offered pair
type Outcome string

const (
	OutcomeAWins Outcome = "a_wins"
	OutcomeBWins Outcome = "b_wins"
	OutcomeTie   Outcome = "tie"
	OutcomeSkip  Outcome = "skip"
)

// Valid reports whether the outcome is one of the recognized values
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAWins, OutcomeBWins, OutcomeTie, OutcomeSkip:
		return true
	}
	return false
}

// Decisive reports whether the outcome produced a winner or a tie.
// Skips carry zero deltas and touch no outcome counters.
func (o Outcome) Decisive() bool {
	return o == OutcomeAWins || o == OutcomeBWins || o == OutcomeTie
}

// Match is one resolved comparison. It is immutable once appended to the
// session history and is only ever removed by undoing from the end. The
// pre-match rating snapshots and the exact applied deltas make reversal a
// lookup rather than a recomputation.
type Match struct {
	ID        string    `json:"id"`  // Unique match identifier
	Seq       int       `json:"seq"` // Monotonic position in session history
	NameA     string    `json:"name_a"`
	NameB     string    `json:"name_b"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`

	// Applied rating deltas, already rounded; zero-sum for decisive
	// outcomes, both zero for skips.
	DeltaA float64 `json:"delta_a"`
	DeltaB float64 `json:"delta_b"`

	// Ratings of both names immediately before this match
	PriorRatingA float64 `json:"prior_rating_a"`
	PriorRatingB float64 `json:"prior_rating_b"`
}

// Involves reports whether the given name took part in this match
func (m Match) Involves(id string) bool {
	return m.NameA == id || m.NameB == id
}

// Validate checks internal consistency of a match record
func (m Match) Validate() error {
	if m.NameA == "" || m.NameB == "" {
		return fmt.Errorf("%w: both name IDs are required", ErrInvalidMatch)
	}
	if m.NameA == m.NameB {
		return fmt.Errorf("%w: a name cannot be matched against itself", ErrInvalidMatch)
	}
	if !m.Outcome.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, m.Outcome)
	}
	if m.Outcome == OutcomeSkip && (m.DeltaA != 0 || m.DeltaB != 0) {
		return fmt.Errorf("%w: skipped match must carry zero deltas", ErrInvalidMatch)
	}
	if m.Outcome.Decisive() && m.DeltaA != -m.DeltaB {
		return fmt.Errorf("%w: deltas must be zero-sum", ErrInvalidMatch)
	}
	return nil
}
