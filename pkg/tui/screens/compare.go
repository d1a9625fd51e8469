// Package screens implements the individual TUI screens: side-by-side
// comparison voting and the live ranking table.
package screens

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/nameduel/pkg/data"
	"github.com/pashagolub/nameduel/pkg/schedule"
	"github.com/pashagolub/nameduel/pkg/tournament"
	"github.com/pashagolub/nameduel/pkg/tui/components"
)

// CompareScreen shows the offered pair as two cards and turns keystrokes
// into votes: 1 and 2 pick a side, t ties, s skips, u undoes the last vote.
type CompareScreen struct {
	ctrl      *tournament.Controller
	container *tview.Flex
	cardA     *tview.TextView
	cardB     *tview.TextView
	progress  *components.Progress
	status    *tview.TextView
	pair      *tournament.OfferedPair
}

// NewCompareScreen builds the comparison screen around a controller
func NewCompareScreen(ctrl *tournament.Controller) *CompareScreen {
	s := &CompareScreen{
		ctrl:     ctrl,
		cardA:    tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		cardB:    tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		progress: components.NewProgress(),
		status:   tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	s.cardA.SetBorder(true).SetTitle(" 1 ")
	s.cardB.SetBorder(true).SetTitle(" 2 ")

	cards := tview.NewFlex().
		AddItem(s.cardA, 0, 1, false).
		AddItem(s.cardB, 0, 1, false)

	s.container = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cards, 0, 1, true).
		AddItem(s.progress.Primitive(), 1, 0, false).
		AddItem(s.status, 1, 0, false)

	s.container.SetInputCapture(s.handleInput)
	return s
}

// Primitive returns the screen's root primitive
func (s *CompareScreen) Primitive() tview.Primitive {
	return s.container
}

// Title returns the screen title
func (s *CompareScreen) Title() string {
	return "Compare"
}

// Refresh asks the controller for the pair awaiting a vote and renders it
func (s *CompareScreen) Refresh() {
	s.progress.Update(s.ctrl.Progress())

	pair, err := s.ctrl.NextPair()
	if errors.Is(err, schedule.ErrExhausted) {
		s.pair = nil
		s.cardA.SetText("")
		s.cardB.SetText("")
		s.status.SetText("[green]Tournament complete.[-] Press r for the ranking, u to revisit the last vote.")
		return
	}
	if err != nil {
		s.pair = nil
		s.status.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
		return
	}

	s.pair = pair
	s.cardA.SetText(renderCard(pair.A))
	s.cardB.SetText(renderCard(pair.B))
	s.status.SetText("1/2 pick a winner   t tie   s skip   u undo")
}

// Pair exposes the rendered pair, mainly for tests
func (s *CompareScreen) Pair() *tournament.OfferedPair {
	return s.pair
}

func (s *CompareScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}

	outcome, ok := outcomeForKey(event.Rune())
	if ok {
		s.vote(outcome)
		return nil
	}
	if event.Rune() == 'u' {
		s.undo()
		return nil
	}
	return event
}

func (s *CompareScreen) vote(outcome data.Outcome) {
	if s.pair == nil {
		return
	}

	_, err := s.ctrl.SubmitVote(s.pair.Token, outcome)
	if errors.Is(err, tournament.ErrStalePair) {
		s.Refresh()
		return
	}
	if err != nil && !isPersistence(err) {
		s.status.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
		return
	}

	s.Refresh()
	if isPersistence(err) {
		s.status.SetText("[yellow]vote recorded but not saved: " + tview.Escape(err.Error()) + "[-]")
	}
}

func (s *CompareScreen) undo() {
	result, err := s.ctrl.Undo()
	if errors.Is(err, tournament.ErrNothingToUndo) {
		s.status.SetText("[yellow]nothing to undo[-]")
		return
	}
	if err != nil && !isPersistence(err) {
		s.status.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
		return
	}

	s.Refresh()
	s.status.SetText(fmt.Sprintf("undid %s vs %s", result.Reverted.NameA, result.Reverted.NameB))
}

// outcomeForKey maps a vote keystroke to its outcome
func outcomeForKey(r rune) (data.Outcome, bool) {
	switch r {
	case '1':
		return data.OutcomeAWins, true
	case '2':
		return data.OutcomeBWins, true
	case 't':
		return data.OutcomeTie, true
	case 's':
		return data.OutcomeSkip, true
	}
	return "", false
}

func renderCard(name data.Name) string {
	return fmt.Sprintf("\n[::b]%s[-:-:-]\n\n%.0f\n%d matches",
		tview.Escape(name.Label), name.Rating, name.Matches)
}

func isPersistence(err error) bool {
	var perr *tournament.PersistenceError
	return errors.As(err, &perr)
}
