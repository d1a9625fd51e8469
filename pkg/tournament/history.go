package tournament

import (
	"fmt"

	"github.com/pashagolub/nameduel/pkg/data"
	"github.com/pashagolub/nameduel/pkg/schedule"
)

// historyPairs projects the match history into the scheduler's pair form.
// Callers hold the controller lock.
func (c *Controller) historyPairs() []schedule.Pair {
	pairs := make([]schedule.Pair, len(c.session.History))
	for i, m := range c.session.History {
		pairs[i] = schedule.Pair{A: m.NameA, B: m.NameB}
	}
	return pairs
}

// applyMatch mutates both names and appends the match to the history.
// A vote ends any run of consecutive undos, re-arming the undo window.
func (c *Controller) applyMatch(match data.Match, nameA, nameB *data.Name) {
	nameA.Rating += match.DeltaA
	nameB.Rating += match.DeltaB
	nameA.Matches++
	nameB.Matches++

	switch match.Outcome {
	case data.OutcomeAWins:
		nameA.Wins++
		nameB.Losses++
	case data.OutcomeBWins:
		nameB.Wins++
		nameA.Losses++
	case data.OutcomeTie:
		nameA.Ties++
		nameB.Ties++
	}

	c.session.History = append(c.session.History, match)
	c.session.UndosSinceAppend = 0
	c.session.UpdatedAt = match.Timestamp
}

// undoAllowed checks the bounded undo window against the session's run of
// consecutive undos and the optional timeout on the last match
func (c *Controller) undoAllowed(last *data.Match) error {
	if last == nil {
		return ErrNothingToUndo
	}
	if c.session.UndosSinceAppend >= c.session.Config.Undo.WindowSize {
		return fmt.Errorf("%w: window of %d already used", ErrNothingToUndo, c.session.Config.Undo.WindowSize)
	}
	if timeout := c.session.Config.Undo.Timeout; timeout > 0 {
		if c.clock.Now().Sub(last.Timestamp) > timeout {
			return fmt.Errorf("%w: vote older than %s", ErrNothingToUndo, timeout)
		}
	}
	return nil
}

// revertMatch pops the last history entry and restores both names from the
// match's pre-vote snapshots, undoing deltas and counters exactly
func (c *Controller) revertMatch(match data.Match) error {
	nameA, err := c.session.NameByID(match.NameA)
	if err != nil {
		return err
	}
	nameB, err := c.session.NameByID(match.NameB)
	if err != nil {
		return err
	}

	nameA.Rating = match.PriorRatingA
	nameB.Rating = match.PriorRatingB
	nameA.Matches--
	nameB.Matches--

	switch match.Outcome {
	case data.OutcomeAWins:
		nameA.Wins--
		nameB.Losses--
	case data.OutcomeBWins:
		nameB.Wins--
		nameA.Losses--
	case data.OutcomeTie:
		nameA.Ties--
		nameB.Ties--
	}

	c.session.History = c.session.History[:len(c.session.History)-1]
	c.session.UndosSinceAppend++
	return nil
}
