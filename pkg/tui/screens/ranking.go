package screens

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/nameduel/pkg/analytics"
	"github.com/pashagolub/nameduel/pkg/tournament"
)

var rankingHeader = []string{"#", "Name", "Rating", "Matches", "W-L-T", "Win %", "Volatility"}

// RankingScreen renders the live standings as a table, rating descending
// with ties broken by pool order
type RankingScreen struct {
	ctrl      *tournament.Controller
	container *tview.Flex
	table     *tview.Table
	summary   *tview.TextView
}

// NewRankingScreen builds the ranking screen around a controller
func NewRankingScreen(ctrl *tournament.Controller) *RankingScreen {
	s := &RankingScreen{
		ctrl:    ctrl,
		table:   tview.NewTable().SetSelectable(true, false).SetFixed(1, 0),
		summary: tview.NewTextView().SetDynamicColors(true),
	}

	s.table.SetBorder(true).SetTitle(" Ranking ")

	s.container = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.table, 0, 1, true).
		AddItem(s.summary, 1, 0, false)

	return s
}

// Primitive returns the screen's root primitive
func (s *RankingScreen) Primitive() tview.Primitive {
	return s.container
}

// Title returns the screen title
func (s *RankingScreen) Title() string {
	return "Ranking"
}

// Refresh re-derives the snapshot and repopulates the table
func (s *RankingScreen) Refresh() {
	snapshot := s.ctrl.Summarize()

	s.table.Clear()
	for col, label := range rankingHeader {
		cell := tview.NewTableCell(label).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false)
		s.table.SetCell(0, col, cell)
	}

	for row, entry := range snapshot.Ranking {
		for col, value := range rankingRow(entry) {
			cell := tview.NewTableCell(value)
			if col >= 2 {
				cell.SetAlign(tview.AlignRight)
			}
			s.table.SetCell(row+1, col, cell)
		}
	}

	s.summary.SetText(fmt.Sprintf("%d matches (%d decisive, %d skipped)  status %s",
		snapshot.TotalMatches, snapshot.DecisiveCount, snapshot.SkippedCount, snapshot.Status))
}

// rankingRow formats one snapshot entry into table cells
func rankingRow(entry analytics.RankEntry) []string {
	return []string{
		strconv.Itoa(entry.Rank),
		entry.Label,
		fmt.Sprintf("%.1f", entry.Rating),
		strconv.Itoa(entry.Matches),
		fmt.Sprintf("%d-%d-%d", entry.Wins, entry.Losses, entry.Ties),
		fmt.Sprintf("%.0f%%", entry.WinRate*100),
		fmt.Sprintf("%.1f", entry.Volatility),
	}
}
