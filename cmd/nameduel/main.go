// Package main is the nameduel command line interface. It wires the
// tournament controller, stores, audit trail and TUI together behind
// go-flags subcommands: start, resume, export, list and validate.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/pashagolub/nameduel/pkg/data"
	"github.com/pashagolub/nameduel/pkg/journal"
	"github.com/pashagolub/nameduel/pkg/tournament"
	"github.com/pashagolub/nameduel/pkg/tui"
	"github.com/pashagolub/nameduel/pkg/tui/screens"
)

// Version information, set by the build
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// GlobalOptions are flags shared by every subcommand
type GlobalOptions struct {
	Config  string `long:"config" short:"c" description:"Configuration file path"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version information"`
}

type runtime struct {
	config *data.AppConfig
	store  data.Store
	close  func() error
}

// openRuntime loads configuration and opens the configured session store
func openRuntime(global *GlobalOptions) (*runtime, error) {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	config, err := data.LoadAppConfig(global.Config)
	if err != nil {
		return nil, err
	}

	setupLogging(config.LogLevel, global.Verbose)

	rt := &runtime{config: config, close: func() error { return nil }}
	if config.Database != "" {
		store, err := data.NewSQLiteStore(config.Database)
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.close = store.Close
		slog.Debug("using sqlite store", "path", config.Database)
	} else {
		rt.store = data.NewFileStore(config.StorageDir)
		slog.Debug("using file store", "dir", config.StorageDir)
	}
	return rt, nil
}

func setupLogging(level string, verbose bool) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

// attachAudit opens the session's audit trail when auditing is enabled
func attachAudit(ctrl *tournament.Controller, config *data.AppConfig) (*journal.AuditTrail, error) {
	if config.AuditDir == "" {
		return nil, nil
	}
	trail, err := journal.OpenTrail(ctrl.Session().ID, config.AuditDir, nil)
	if err != nil {
		return nil, err
	}
	ctrl.SetEventSink(trail)
	return trail, nil
}

// runTUI starts the interactive voting interface for a controller
func runTUI(ctrl *tournament.Controller, config *data.AppConfig) error {
	exportDir := config.StorageDir
	if exportDir == "" {
		exportDir = "."
	}

	app, err := tui.NewApp(ctrl, exportDir)
	if err != nil {
		return err
	}
	app.RegisterScreen(tui.ScreenCompare, screens.NewCompareScreen(ctrl))
	app.RegisterScreen(tui.ScreenRanking, screens.NewRankingScreen(ctrl))
	return app.Run()
}

// StartCommand creates a session from a CSV pool and begins voting
type StartCommand struct {
	Input string `long:"input" short:"i" description:"CSV file with the name pool" required:"true"`
	Title string `long:"title" short:"t" description:"Session title"`
	Seed  int64  `long:"seed" description:"Pairing seed; 0 picks a random one"`
	Batch bool   `long:"batch" description:"Create the session without opening the TUI"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the start subcommand
func (c *StartCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	sessionConfig := rt.config.SessionConfig()
	if c.Seed != 0 {
		sessionConfig.Pairing.Seed = c.Seed
	}

	result, err := data.LoadNamesFromCSV(c.Input, sessionConfig.CSV)
	if err != nil {
		return fmt.Errorf("cannot read name pool: %w", err)
	}
	for _, parseErr := range result.ParseErrors {
		slog.Warn("skipped CSV row", "row", parseErr.RowNumber, "reason", parseErr.Message)
	}
	if len(result.Names) < 2 {
		return fmt.Errorf("pool in %s has %d usable names, need at least 2", c.Input, len(result.Names))
	}

	title := c.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(c.Input), ".csv")
	}

	ctrl, err := tournament.CreateSession(title, result.Names, sessionConfig, rt.store, nil)
	if err != nil {
		return err
	}

	trail, err := attachAudit(ctrl, rt.config)
	if err != nil {
		return err
	}
	if trail != nil {
		defer trail.Close()
	}

	if err := ctrl.Start(); err != nil {
		return err
	}
	slog.Info("session started", "id", ctrl.Session().ID, "names", len(result.Names))

	if c.Batch {
		fmt.Println(ctrl.Session().ID)
		return nil
	}
	return runTUI(ctrl, rt.config)
}

// ResumeCommand reopens a persisted session
type ResumeCommand struct {
	SessionID string `long:"session-id" short:"s" description:"Session to resume" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the resume subcommand
func (c *ResumeCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	ctrl, err := tournament.ResumeSession(c.SessionID, rt.store, nil)
	if err != nil {
		return err
	}

	trail, err := attachAudit(ctrl, rt.config)
	if err != nil {
		return err
	}
	if trail != nil {
		defer trail.Close()
	}

	if ctrl.Status() == data.StatusSetup {
		if err := ctrl.Start(); err != nil {
			return err
		}
	}
	return runTUI(ctrl, rt.config)
}

// ExportCommand writes a session's ranking to a file or stdout
type ExportCommand struct {
	SessionID      string `long:"session-id" short:"s" description:"Session to export" required:"true"`
	Output         string `long:"output" short:"o" description:"Output path; stdout when omitted"`
	Format         string `long:"format" description:"Override format (csv/json/yaml/text)"`
	IncludeStats   bool   `long:"include-stats" description:"Include win rates and volatility"`
	IncludeHistory bool   `long:"include-history" description:"Include the full match history"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the export subcommand
func (c *ExportCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	ctrl, err := tournament.ResumeSession(c.SessionID, rt.store, nil)
	if err != nil {
		return err
	}

	session := ctrl.Session()
	if c.Format != "" {
		session.Config.Export.Format = c.Format
	}
	if c.IncludeStats {
		session.Config.Export.IncludeStats = true
	}
	if c.IncludeHistory {
		session.Config.Export.IncludeHistory = true
	}

	snapshot := ctrl.Summarize()
	exporter := journal.NewExporter()
	if c.Output == "" {
		return exporter.Export(session, snapshot, os.Stdout)
	}
	if err := exporter.ExportToFile(session, snapshot, c.Output); err != nil {
		return err
	}
	slog.Info("exported", "session", c.SessionID, "path", c.Output)
	return nil
}

// ListCommand prints the persisted sessions
type ListCommand struct {
	Status string `long:"status" description:"Filter by status (setup/active/complete)"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the list subcommand
func (c *ListCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	sessions, err := rt.store.ListSessions()
	if err != nil {
		return err
	}

	shown := 0
	fmt.Printf("%-32s %-24s %-9s %7s %8s %8s  %s\n",
		"ID", "TITLE", "STATUS", "NAMES", "MATCHES", "SIZE", "UPDATED")
	for _, info := range sessions {
		if c.Status != "" && string(info.Status) != c.Status {
			continue
		}
		title := info.Title
		if len(title) > 24 {
			title = title[:21] + "..."
		}
		fmt.Printf("%-32s %-24s %-9s %7d %8d %8s  %s\n",
			info.ID, title, info.Status, info.NameCount, info.Matches,
			humanize.Bytes(uint64(info.SizeBytes)), humanize.Time(info.UpdatedAt))
		shown++
	}
	if shown == 0 {
		fmt.Println("no sessions found")
	}
	return nil
}

// DeleteCommand removes a persisted session and its audit trail
type DeleteCommand struct {
	SessionID string `long:"session-id" short:"s" description:"Session to delete" required:"true"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the delete subcommand
func (c *DeleteCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.store.DeleteSession(c.SessionID); err != nil {
		return err
	}
	if rt.config.AuditDir != "" {
		trail := filepath.Join(rt.config.AuditDir, "audit_"+c.SessionID+".jsonl")
		if err := os.Remove(trail); err != nil && !os.IsNotExist(err) {
			slog.Warn("audit trail not removed", "path", trail, "error", err)
		}
	}
	slog.Info("session deleted", "id", c.SessionID)
	return nil
}

// ValidateCommand checks a CSV pool without creating a session
type ValidateCommand struct {
	Input   string `long:"input" short:"i" description:"CSV file to validate" required:"true"`
	Preview int    `long:"preview" description:"Names to preview" default:"5"`

	Global *GlobalOptions `no-flag:"true"`
}

// Execute runs the validate subcommand
func (c *ValidateCommand) Execute(_ []string) error {
	rt, err := openRuntime(c.Global)
	if err != nil {
		return err
	}
	defer rt.close()

	result, err := data.LoadNamesFromCSV(c.Input, rt.config.SessionConfig().CSV)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", c.Input, err)
	}

	fmt.Printf("%s: %d rows, %d usable names, %d errors\n",
		c.Input, result.TotalRows, result.SuccessfulRows, len(result.ParseErrors))
	for _, parseErr := range result.ParseErrors {
		fmt.Printf("  row %d: %s\n", parseErr.RowNumber, parseErr.Message)
	}

	limit := min(c.Preview, len(result.Names))
	for _, name := range result.Names[:limit] {
		fmt.Printf("  %-20s %s\n", name.ID, name.Label)
	}

	if len(result.Names) < 2 {
		return errors.New("pool needs at least 2 usable names")
	}
	return nil
}

func main() {
	global := &GlobalOptions{}
	parser := flags.NewParser(global, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	startCmd := &StartCommand{Global: global}
	resumeCmd := &ResumeCommand{Global: global}
	exportCmd := &ExportCommand{Global: global}
	listCmd := &ListCommand{Global: global}
	deleteCmd := &DeleteCommand{Global: global}
	validateCmd := &ValidateCommand{Global: global}

	parser.AddCommand("start", "Start a new tournament from a CSV pool", "", startCmd)
	parser.AddCommand("resume", "Resume a persisted tournament", "", resumeCmd)
	parser.AddCommand("export", "Export a tournament's ranking", "", exportCmd)
	parser.AddCommand("list", "List persisted sessions", "", listCmd)
	parser.AddCommand("delete", "Delete a persisted session", "", deleteCmd)
	parser.AddCommand("validate", "Validate a CSV pool", "", validateCmd)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			// --version without a command parses as a missing command
			if flagsErr.Type == flags.ErrCommandRequired && global.Version {
				fmt.Printf("nameduel %s (%s)\n", Version, GitCommit)
				return
			}
		}
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
