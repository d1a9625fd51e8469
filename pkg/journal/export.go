package journal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pashagolub/nameduel/pkg/analytics"
	"github.com/pashagolub/nameduel/pkg/data"
)

// ErrUnsupportedFormat rejects export formats the exporter does not know
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Report is the complete export payload for json and yaml formats
type Report struct {
	SessionID    string                `json:"session_id" yaml:"session_id"`
	Title        string                `json:"title" yaml:"title"`
	Status       string                `json:"status" yaml:"status"`
	ExportedAt   time.Time             `json:"exported_at" yaml:"exported_at"`
	TotalMatches int                   `json:"total_matches" yaml:"total_matches"`
	Decisive     int                   `json:"decisive" yaml:"decisive"`
	Skipped      int                   `json:"skipped" yaml:"skipped"`
	Ranking      []analytics.RankEntry `json:"ranking" yaml:"ranking"`
	History      []data.Match          `json:"history,omitempty" yaml:"history,omitempty"`
}

// Exporter renders tournament results. It is stateless; one exporter can
// serve any number of sessions.
type Exporter struct{}

// NewExporter returns a ready exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportToFile writes results to the given path, creating parent
// directories as needed. The format comes from the session's export
// configuration.
func (e *Exporter) ExportToFile(session *data.TournamentSession, snapshot *analytics.Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	defer file.Close()

	return e.Export(session, snapshot, file)
}

// Export renders results to the writer in the session's configured format
func (e *Exporter) Export(session *data.TournamentSession, snapshot *analytics.Snapshot, w io.Writer) error {
	cfg := session.Config.Export
	ranking := orderRanking(snapshot.Ranking, cfg.SortOrder)

	switch strings.ToLower(cfg.Format) {
	case "csv":
		return e.exportCSV(ranking, cfg, w)
	case "json":
		return e.exportJSON(session, snapshot, ranking, w)
	case "yaml", "yml":
		return e.exportYAML(session, snapshot, ranking, w)
	case "text", "txt":
		return e.exportText(session, snapshot, ranking, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}
}

func (e *Exporter) exportCSV(ranking []analytics.RankEntry, cfg data.ExportConfig, w io.Writer) error {
	writer := csv.NewWriter(w)

	header := []string{"rank", "id", "name", "rating", "matches"}
	if cfg.IncludeStats {
		header = append(header, "wins", "losses", "ties", "win_rate", "volatility")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, entry := range ranking {
		row := []string{
			strconv.Itoa(entry.Rank),
			entry.ID,
			entry.Label,
			formatRating(entry.Rating, cfg.RoundDecimals),
			strconv.Itoa(entry.Matches),
		}
		if cfg.IncludeStats {
			row = append(row,
				strconv.Itoa(entry.Wins),
				strconv.Itoa(entry.Losses),
				strconv.Itoa(entry.Ties),
				strconv.FormatFloat(entry.WinRate, 'f', 3, 64),
				strconv.FormatFloat(entry.Volatility, 'f', 2, 64),
			)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("cannot write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (e *Exporter) exportJSON(session *data.TournamentSession, snapshot *analytics.Snapshot, ranking []analytics.RankEntry, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildReport(session, snapshot, ranking))
}

func (e *Exporter) exportYAML(session *data.TournamentSession, snapshot *analytics.Snapshot, ranking []analytics.RankEntry, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(buildReport(session, snapshot, ranking))
}

func (e *Exporter) exportText(session *data.TournamentSession, snapshot *analytics.Snapshot, ranking []analytics.RankEntry, w io.Writer) error {
	cfg := session.Config.Export

	fmt.Fprintf(w, "%s\n", session.Title)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(session.Title)))
	fmt.Fprintf(w, "Status: %s  Matches: %d (%d decisive, %d skipped)\n\n",
		snapshot.Status, snapshot.TotalMatches, snapshot.DecisiveCount, snapshot.SkippedCount)

	for _, entry := range ranking {
		fmt.Fprintf(w, "%3d. %-24s %8s", entry.Rank, entry.Label, formatRating(entry.Rating, cfg.RoundDecimals))
		if cfg.IncludeStats {
			fmt.Fprintf(w, "  %dW-%dL-%dT  win %.0f%%", entry.Wins, entry.Losses, entry.Ties, entry.WinRate*100)
		}
		fmt.Fprintln(w)
	}

	if cfg.IncludeHistory && len(session.History) > 0 {
		fmt.Fprintf(w, "\nHistory\n-------\n")
		for _, match := range session.History {
			fmt.Fprintf(w, "%4d  %s vs %s  %s\n", match.Seq+1, match.NameA, match.NameB, match.Outcome)
		}
	}
	return nil
}

func buildReport(session *data.TournamentSession, snapshot *analytics.Snapshot, ranking []analytics.RankEntry) Report {
	report := Report{
		SessionID:    session.ID,
		Title:        session.Title,
		Status:       snapshot.Status,
		ExportedAt:   snapshot.GeneratedAt,
		TotalMatches: snapshot.TotalMatches,
		Decisive:     snapshot.DecisiveCount,
		Skipped:      snapshot.SkippedCount,
		Ranking:      ranking,
	}
	if session.Config.Export.IncludeHistory {
		report.History = session.History
	}
	return report
}

// orderRanking flips the rating-descending snapshot when ascending output
// was requested; ranks keep their original meaning
func orderRanking(ranking []analytics.RankEntry, sortOrder string) []analytics.RankEntry {
	out := make([]analytics.RankEntry, len(ranking))
	copy(out, ranking)
	if strings.EqualFold(sortOrder, "asc") {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func formatRating(rating float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	return strconv.FormatFloat(math.Round(rating*scale)/scale, 'f', decimals, 64)
}
