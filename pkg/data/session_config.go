package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/pashagolub/nameduel/pkg/elo"
)

// Error types for configuration validation
var (
	ErrInvalidEloConfig     = errors.New("invalid Elo configuration")
	ErrInvalidPairingConfig = errors.New("invalid pairing configuration")
	ErrInvalidUndoConfig    = errors.New("invalid undo configuration")
	ErrInvalidExportConfig  = errors.New("invalid export configuration")
)

// SessionConfig is the complete per-session configuration
type SessionConfig struct {
	Elo     elo.Config    `json:"elo"`
	Pairing PairingConfig `json:"pairing"`
	Undo    UndoConfig    `json:"undo"`
	Export  ExportConfig  `json:"export"`
	CSV     CSVConfig     `json:"csv"`
}

// PairingConfig holds scheduler settings
type PairingConfig struct {
	// MaxRounds caps full round-robin passes; zero selects a single
	// round-robin where every unordered pair is offered exactly once.
	MaxRounds int `json:"max_rounds"`

	// Seed fixes the scheduler shuffle; zero means pick one at session
	// creation. The chosen seed is persisted on the session either way.
	Seed int64 `json:"seed"`
}

// UndoConfig bounds how far back a vote may be reversed
type UndoConfig struct {
	// WindowSize is the number of consecutive undos allowed since the most
	// recent vote (default 1).
	WindowSize int `json:"window_size"`

	// Timeout additionally expires undo eligibility by age of the last
	// match; zero disables the time check.
	Timeout time.Duration `json:"timeout"`
}

// ExportConfig holds ranking export settings
type ExportConfig struct {
	Format         string `json:"format"`          // csv, json, yaml or text
	SortOrder      string `json:"sort_order"`      // asc or desc by rating
	IncludeStats   bool   `json:"include_stats"`   // per-name win rates and volatility
	IncludeHistory bool   `json:"include_history"` // full match history
	RoundDecimals  int    `json:"round_decimals"`  // decimal places for exported ratings
}

// DefaultSessionConfig returns a configuration with sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Elo:     elo.DefaultConfig(),
		Pairing: DefaultPairingConfig(),
		Undo:    DefaultUndoConfig(),
		Export:  DefaultExportConfig(),
		CSV:     DefaultCSVConfig(),
	}
}

// DefaultPairingConfig returns scheduler defaults: one full round-robin
func DefaultPairingConfig() PairingConfig {
	return PairingConfig{MaxRounds: 0, Seed: 0}
}

// DefaultUndoConfig returns undo defaults: the single most recent vote,
// with no time expiry
func DefaultUndoConfig() UndoConfig {
	return UndoConfig{WindowSize: 1, Timeout: 0}
}

// DefaultExportConfig returns export defaults
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:        "csv",
		SortOrder:     "desc",
		IncludeStats:  true,
		RoundDecimals: 1,
	}
}

// Validate checks the full session configuration
func (c SessionConfig) Validate() error {
	if c.Elo.KFactor <= 0 {
		return fmt.Errorf("%w: k-factor must be positive", ErrInvalidEloConfig)
	}
	if c.Elo.DeltaPrecision < 0 || c.Elo.DeltaPrecision > 6 {
		return fmt.Errorf("%w: delta precision must be between 0 and 6", ErrInvalidEloConfig)
	}
	if c.Pairing.MaxRounds < 0 {
		return fmt.Errorf("%w: max rounds cannot be negative", ErrInvalidPairingConfig)
	}
	if c.Undo.WindowSize < 0 {
		return fmt.Errorf("%w: window size cannot be negative", ErrInvalidUndoConfig)
	}
	if c.Undo.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidUndoConfig)
	}
	switch c.Export.Format {
	case "", "csv", "json", "yaml", "text":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidExportConfig, c.Export.Format)
	}
	switch c.Export.SortOrder {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidExportConfig)
	}
	if c.Export.RoundDecimals < 0 || c.Export.RoundDecimals > 6 {
		return fmt.Errorf("%w: round decimals must be between 0 and 6", ErrInvalidExportConfig)
	}
	return nil
}
