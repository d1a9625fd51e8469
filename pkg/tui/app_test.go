package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/nameduel/pkg/data"
	"github.com/pashagolub/nameduel/pkg/tournament"
)

type stubScreen struct {
	view      *tview.TextView
	refreshes int
	title     string
}

func (s *stubScreen) Primitive() tview.Primitive { return s.view }
func (s *stubScreen) Refresh()                   { s.refreshes++ }
func (s *stubScreen) Title() string              { return s.title }

func newAppController(t *testing.T) *tournament.Controller {
	t.Helper()
	names := []data.Name{
		{ID: "ada", Label: "Ada"},
		{ID: "bea", Label: "Bea"},
	}
	clock := data.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	ctrl, err := tournament.CreateSession("app test", names, data.DefaultSessionConfig(), nil, clock)
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	return ctrl
}

func TestNewAppRequiresController(t *testing.T) {
	_, err := NewApp(nil, t.TempDir())
	assert.Error(t, err)
}

func TestNavigateRefreshesTarget(t *testing.T) {
	app, err := NewApp(newAppController(t), t.TempDir())
	require.NoError(t, err)

	compare := &stubScreen{view: tview.NewTextView(), title: "Compare"}
	ranking := &stubScreen{view: tview.NewTextView(), title: "Ranking"}
	app.RegisterScreen(ScreenCompare, compare)
	app.RegisterScreen(ScreenRanking, ranking)

	app.NavigateTo(ScreenRanking)
	assert.Equal(t, ScreenRanking, app.CurrentScreen())
	assert.Equal(t, 1, ranking.refreshes)
	assert.Zero(t, compare.refreshes)

	app.NavigateTo(ScreenCompare)
	assert.Equal(t, ScreenCompare, app.CurrentScreen())
	assert.Equal(t, 1, compare.refreshes)
}

func TestNavigateToUnregisteredScreen(t *testing.T) {
	app, err := NewApp(newAppController(t), t.TempDir())
	require.NoError(t, err)

	app.NavigateTo(ScreenRanking)
	assert.Equal(t, ScreenCompare, app.CurrentScreen())
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	app, err := NewApp(newAppController(t), dir)
	require.NoError(t, err)

	app.Export()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".csv", filepath.Ext(entries[0].Name()))

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Ada")
}

func TestScreenTypeString(t *testing.T) {
	assert.Equal(t, "compare", ScreenCompare.String())
	assert.Equal(t, "ranking", ScreenRanking.String())
	assert.Equal(t, "unknown", ScreenType(99).String())
}
