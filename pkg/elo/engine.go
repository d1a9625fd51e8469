// Package elo implements the rating engine for pairwise name tournaments.
// It provides the standard Chess Elo expectation formula with win, loss and
// tie outcomes, a configurable K-factor, and fixed-precision delta rounding
// so the same delta can be applied and later reversed exactly.
package elo

import (
	"errors"
	"math"
)

// Error types for engine validation
var (
	ErrInvalidRating    = errors.New("rating value is invalid")
	ErrInvalidKFactor   = errors.New("k-factor must be positive")
	ErrInvalidPrecision = errors.New("delta precision must be between 0 and 6 decimals")
	ErrInvalidResult    = errors.New("unknown comparison result")
)

// Result is the outcome of a resolved pairwise comparison as seen by the
// engine. Skipped comparisons never reach the engine.
type Result string

const (
	WinA Result = "a"   // left name won
	WinB Result = "b"   // right name won
	Tie  Result = "tie" // both scored half a point
)

// Update holds the rounded, zero-sum rating deltas for one comparison.
// DeltaB is always the exact negation of DeltaA.
type Update struct {
	DeltaA float64
	DeltaB float64
}

// Config holds configuration parameters for the rating engine
type Config struct {
	InitialRating  float64 `json:"initial_rating"`  // Baseline rating for new names (default 1000)
	KFactor        int     `json:"k_factor"`        // Rating change sensitivity (default 32)
	DeltaPrecision int     `json:"delta_precision"` // Decimal places deltas are rounded to (default 1)
}

// DefaultConfig returns engine defaults tuned for pools of 4-64 names
func DefaultConfig() Config {
	return Config{
		InitialRating:  1000.0,
		KFactor:        32,
		DeltaPrecision: 1,
	}
}

// Engine performs Elo rating calculations. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	kFactor   int
	precision float64 // rounding factor, 10^DeltaPrecision
	initial   float64
}

// NewEngine creates a rating engine with the specified configuration
func NewEngine(config Config) (*Engine, error) {
	if config.KFactor <= 0 {
		return nil, ErrInvalidKFactor
	}
	if config.DeltaPrecision < 0 || config.DeltaPrecision > 6 {
		return nil, ErrInvalidPrecision
	}
	if math.IsNaN(config.InitialRating) || math.IsInf(config.InitialRating, 0) {
		return nil, ErrInvalidRating
	}

	return &Engine{
		kFactor:   config.KFactor,
		precision: math.Pow(10, float64(config.DeltaPrecision)),
		initial:   config.InitialRating,
	}, nil
}

// InitialRating returns the configured baseline rating
func (e *Engine) InitialRating() float64 {
	return e.initial
}

// KFactor returns the configured K-factor
func (e *Engine) KFactor() int {
	return e.kFactor
}

// ExpectedScore computes the expected score for A against B
func (e *Engine) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (ratingB-ratingA)/400.0))
}

// ComputeUpdate calculates the rating deltas for a resolved comparison
// between two names. The delta for A is K*(actual-expected) rounded to the
// configured precision; the delta for B is its exact negation, so every
// decisive or tied comparison is zero-sum by construction.
func (e *Engine) ComputeUpdate(ratingA, ratingB float64, result Result) (Update, error) {
	if err := validateRating(ratingA); err != nil {
		return Update{}, err
	}
	if err := validateRating(ratingB); err != nil {
		return Update{}, err
	}

	var actual float64
	switch result {
	case WinA:
		actual = 1.0
	case WinB:
		actual = 0.0
	case Tie:
		actual = 0.5
	default:
		return Update{}, ErrInvalidResult
	}

	expected := e.ExpectedScore(ratingA, ratingB)
	delta := e.round(float64(e.kFactor) * (actual - expected))

	return Update{DeltaA: delta, DeltaB: -delta}, nil
}

// round snaps a delta to the configured decimal precision. Rounding happens
// once, before the delta is applied; undo reuses the stored value instead of
// recomputing, so apply and reverse always cancel exactly.
func (e *Engine) round(delta float64) float64 {
	return math.Round(delta*e.precision) / e.precision
}

func validateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return ErrInvalidRating
	}
	return nil
}
