// Package analytics derives rankings, per-name statistics and rating trend
// series from a tournament session's match history. Snapshots are always
// computed from the authoritative history, never stored as truth, so undo
// needs no special handling here: a shrunken history simply rebuilds the
// incremental state.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/pashagolub/nameduel/pkg/data"
)

// volatilityWindow is how many recent rating deltas feed the volatility
// indicator for a name.
const volatilityWindow = 5

// RankEntry is one row of the ranking table
type RankEntry struct {
	Rank       int     `json:"rank"` // 1-based position, rating descending
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Rating     float64 `json:"rating"`
	Matches    int     `json:"matches"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Ties       int     `json:"ties"`
	WinRate    float64 `json:"win_rate"`
	Volatility float64 `json:"volatility"` // mean |delta| over the last few matches
}

// Snapshot is the derived analytics view of a session at one instant
type Snapshot struct {
	SessionID     string               `json:"session_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Status        string               `json:"status"`
	TotalMatches  int                  `json:"total_matches"`
	DecisiveCount int                  `json:"decisive_count"`
	SkippedCount  int                  `json:"skipped_count"`
	Ranking       []RankEntry          `json:"ranking"`
	Trends        map[string][]float64 `json:"trends"` // per name: rating after each of its matches
}

// Aggregator incrementally maintains trend series over a session history.
// It keeps a cursor into the history and only consumes matches appended
// since the previous Summarize call; when the history has shrunk (undo) the
// derived state is rebuilt from scratch.
type Aggregator struct {
	mu      sync.Mutex
	cursor  int
	lastID  string // ID of the most recently consumed match
	trends  map[string][]float64
	deltas  map[string][]float64
	skips   int
	decided int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.reset()
	return a
}

func (a *Aggregator) reset() {
	a.cursor = 0
	a.lastID = ""
	a.trends = make(map[string][]float64)
	a.deltas = make(map[string][]float64)
	a.skips = 0
	a.decided = 0
}

// Summarize produces an analytics snapshot for the session as of now.
// The ranking orders names by rating descending with ties broken by
// original pool order, so repeated calls on an unchanged session always
// return an identical order.
func (a *Aggregator) Summarize(session *data.TournamentSession, now time.Time) *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.staleFor(session.History) {
		a.reset()
	}
	a.consume(session.History)

	snapshot := &Snapshot{
		SessionID:     session.ID,
		GeneratedAt:   now,
		Status:        string(session.Status),
		TotalMatches:  len(session.History),
		DecisiveCount: a.decided,
		SkippedCount:  a.skips,
		Ranking:       make([]RankEntry, 0, len(session.Names)),
		Trends:        make(map[string][]float64, len(session.Names)),
	}

	for id, series := range a.trends {
		copied := make([]float64, len(series))
		copy(copied, series)
		snapshot.Trends[id] = copied
	}

	order := make([]int, len(session.Names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return session.Names[order[i]].Rating > session.Names[order[j]].Rating
	})

	for rank, idx := range order {
		name := session.Names[idx]
		snapshot.Ranking = append(snapshot.Ranking, RankEntry{
			Rank:       rank + 1,
			ID:         name.ID,
			Label:      name.Label,
			Rating:     name.Rating,
			Matches:    name.Matches,
			Wins:       name.Wins,
			Losses:     name.Losses,
			Ties:       name.Ties,
			WinRate:    name.WinRate(),
			Volatility: volatility(a.deltas[name.ID]),
		})
	}

	return snapshot
}

// staleFor reports whether the consumed prefix no longer matches the
// history. Undo alone shrinks the history; undo followed by a new vote
// regrows it to the same length with a different match at the cursor, so
// length checks are not enough and the last consumed ID is compared too.
func (a *Aggregator) staleFor(history []data.Match) bool {
	if a.cursor > len(history) {
		return true
	}
	return a.cursor > 0 && history[a.cursor-1].ID != a.lastID
}

// consume folds history entries appended since the previous call into the
// running trend and delta series
func (a *Aggregator) consume(history []data.Match) {
	for ; a.cursor < len(history); a.cursor++ {
		match := history[a.cursor]
		a.lastID = match.ID

		a.trends[match.NameA] = append(a.trends[match.NameA], match.PriorRatingA+match.DeltaA)
		a.trends[match.NameB] = append(a.trends[match.NameB], match.PriorRatingB+match.DeltaB)
		a.deltas[match.NameA] = append(a.deltas[match.NameA], match.DeltaA)
		a.deltas[match.NameB] = append(a.deltas[match.NameB], match.DeltaB)

		if match.Outcome == data.OutcomeSkip {
			a.skips++
		} else {
			a.decided++
		}
	}
}

// volatility averages the magnitude of the most recent deltas; names whose
// rank is still settling show a high value
func volatility(deltas []float64) float64 {
	if len(deltas) == 0 {
		return 0
	}
	start := len(deltas) - volatilityWindow
	if start < 0 {
		start = 0
	}
	window := deltas[start:]

	sum := 0.0
	for _, d := range window {
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(window))
}
