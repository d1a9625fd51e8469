package data

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Error types for application configuration
var (
	ErrConfigNotFound   = errors.New("configuration file not found")
	ErrConfigParseError = errors.New("failed to parse configuration file")
)

// AppConfig is the application-level configuration layered from defaults,
// an optional YAML file, and NAMEDUEL_* environment variables.
type AppConfig struct {
	StorageDir string `koanf:"storage_dir"` // session store directory (JSON file store)
	Database   string `koanf:"database"`    // sqlite path; empty selects the file store
	LogLevel   string `koanf:"log_level"`   // debug, info, warn or error
	AuditDir   string `koanf:"audit_dir"`   // audit trail directory; empty disables auditing

	KFactor        int     `koanf:"k_factor"`
	InitialRating  float64 `koanf:"initial_rating"`
	DeltaPrecision int     `koanf:"delta_precision"`
	MaxRounds      int     `koanf:"max_rounds"`
	UndoWindow     int     `koanf:"undo_window"`
	UndoTimeoutMS  int     `koanf:"undo_timeout_ms"`
	ExportFormat   string  `koanf:"export_format"`
}

// DefaultAppConfig returns application defaults
func DefaultAppConfig() AppConfig {
	defaults := DefaultSessionConfig()
	return AppConfig{
		StorageDir:     "./sessions",
		LogLevel:       "info",
		KFactor:        defaults.Elo.KFactor,
		InitialRating:  defaults.Elo.InitialRating,
		DeltaPrecision: defaults.Elo.DeltaPrecision,
		MaxRounds:      defaults.Pairing.MaxRounds,
		UndoWindow:     defaults.Undo.WindowSize,
		ExportFormat:   defaults.Export.Format,
	}
}

// LoadAppConfig layers configuration in increasing precedence: defaults,
// the YAML file at path (or $NAMEDUEL_CONFIG when path is empty), then
// NAMEDUEL_* environment variables.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("NAMEDUEL_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}

	// NAMEDUEL_K_FACTOR -> k_factor, NAMEDUEL_STORAGE_DIR -> storage_dir, ...
	envProvider := env.Provider("NAMEDUEL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "NAMEDUEL_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	if err := cfg.SessionConfig().Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SessionConfig maps the flat application settings onto a per-session
// configuration
func (c AppConfig) SessionConfig() SessionConfig {
	cfg := DefaultSessionConfig()
	cfg.Elo.KFactor = c.KFactor
	cfg.Elo.InitialRating = c.InitialRating
	cfg.Elo.DeltaPrecision = c.DeltaPrecision
	cfg.Pairing.MaxRounds = c.MaxRounds
	cfg.Undo.WindowSize = c.UndoWindow
	cfg.Undo.Timeout = time.Duration(c.UndoTimeoutMS) * time.Millisecond
	if c.ExportFormat != "" {
		cfg.Export.Format = c.ExportFormat
	}
	return cfg
}
