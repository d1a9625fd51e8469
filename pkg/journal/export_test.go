package journal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pashagolub/nameduel/pkg/analytics"
	"github.com/pashagolub/nameduel/pkg/data"
)

func exportFixture(t *testing.T) (*data.TournamentSession, *analytics.Snapshot) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	names := []data.Name{
		{ID: "ada", Label: "Ada", Rating: 1000},
		{ID: "bea", Label: "Bea", Rating: 1000},
		{ID: "cy", Label: "Cy", Rating: 1000},
	}
	session, err := data.NewSession("export fixture", names, data.DefaultSessionConfig(), now)
	require.NoError(t, err)
	session.Status = data.StatusActive

	// ada beats bea, 16 points at equal ratings
	ada, _ := session.NameByID("ada")
	bea, _ := session.NameByID("bea")
	session.History = append(session.History, data.Match{
		ID: "m1", Seq: 0, NameA: "ada", NameB: "bea", Outcome: data.OutcomeAWins,
		Timestamp: now, DeltaA: 16, DeltaB: -16, PriorRatingA: 1000, PriorRatingB: 1000,
	})
	ada.Rating, bea.Rating = 1016, 984
	ada.Matches, bea.Matches = 1, 1
	ada.Wins, bea.Losses = 1, 1
	require.NoError(t, session.Validate())

	snapshot := analytics.NewAggregator().Summarize(session, now)
	return session, snapshot
}

func TestExportCSV(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "csv"
	session.Config.Export.IncludeStats = true
	session.Config.Export.RoundDecimals = 1

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"rank", "id", "name", "rating", "matches", "wins", "losses", "ties", "win_rate", "volatility"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "ada", records[1][1])
	assert.Equal(t, "1016.0", records[1][3])
	assert.Equal(t, "bea", records[3][1])
}

func TestExportCSVWithoutStats(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "csv"
	session.Config.Export.IncludeStats = false

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records[0], 5)
}

func TestExportJSON(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "json"
	session.Config.Export.IncludeHistory = true

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, session.ID, report.SessionID)
	assert.Equal(t, 1, report.TotalMatches)
	require.Len(t, report.Ranking, 3)
	assert.Equal(t, "ada", report.Ranking[0].ID)
	require.Len(t, report.History, 1)
	assert.Equal(t, data.OutcomeAWins, report.History[0].Outcome)
}

func TestExportYAML(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "yaml"

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	var report Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "export fixture", report.Title)
	require.Len(t, report.Ranking, 3)
	assert.Equal(t, 1016.0, report.Ranking[0].Rating)
	assert.Empty(t, report.History)
}

func TestExportText(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "text"
	session.Config.Export.IncludeStats = true
	session.Config.Export.IncludeHistory = true

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	out := buf.String()
	assert.Contains(t, out, "export fixture")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "1W-0L-0T")
	assert.Contains(t, out, "History")
	assert.Contains(t, out, "ada vs bea")
}

func TestExportAscendingOrder(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "csv"
	session.Config.Export.SortOrder = "asc"

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "bea", records[1][1])
	assert.Equal(t, "ada", records[3][1])
}

func TestExportUnknownFormat(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "xml"

	err := NewExporter().Export(session, snapshot, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportToFileCreatesDirectories(t *testing.T) {
	session, snapshot := exportFixture(t)
	session.Config.Export.Format = "json"

	path := t.TempDir() + "/nested/out/report.json"
	require.NoError(t, NewExporter().ExportToFile(session, snapshot, path))

	var buf bytes.Buffer
	require.NoError(t, NewExporter().Export(session, snapshot, &buf))
	assert.True(t, strings.Contains(buf.String(), session.ID))
}
