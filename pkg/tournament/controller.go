// Package tournament implements the controller that orchestrates a pairwise
// name tournament: it asks the scheduler for pairs, turns votes into rating
// updates, maintains the bounded undo window, and persists the session
// after every mutation. The controller is the sole writer of its session;
// callers work from returned copies and snapshots, never shared state.
package tournament

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pashagolub/nameduel/pkg/analytics"
	"github.com/pashagolub/nameduel/pkg/data"
	"github.com/pashagolub/nameduel/pkg/elo"
	"github.com/pashagolub/nameduel/pkg/schedule"
)

// Error types for controller operations
var (
	ErrNotActive      = errors.New("session is not accepting votes")
	ErrAlreadyStarted = errors.New("session has already been started")
	ErrStalePair      = errors.New("vote does not reference the currently offered pair")
	ErrNothingToUndo  = errors.New("no recent vote within the undo window")
)

// PersistenceError reports a failed save. The in-memory mutation has been
// applied; the caller decides whether to retry the save or warn the user
// that state may be lost on reload.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s applied but not persisted: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying store failure
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// OfferedPair is the comparison currently awaiting a vote. The token ties a
// vote to this exact offer so stale or replayed UI events are rejected.
type OfferedPair struct {
	Token string    `json:"token"`
	A     data.Name `json:"a"`
	B     data.Name `json:"b"`
}

// VoteResult reports a successfully applied vote
type VoteResult struct {
	Match  data.Match         `json:"match"`
	Status data.SessionStatus `json:"status"`
}

// UndoResult reports a successfully reverted vote
type UndoResult struct {
	Reverted data.Match         `json:"reverted"`
	Status   data.SessionStatus `json:"status"`
}

// EventSink receives tournament lifecycle events, typically an audit trail.
// Sinks must not call back into the controller.
type EventSink interface {
	RecordEvent(event string, details map[string]any)
}

// Controller owns one tournament session. Mutating operations are
// serialized by an internal mutex; read operations see a consistent
// snapshot. A nil store disables persistence (useful for tests); a nil
// clock falls back to the system clock.
type Controller struct {
	mu      sync.RWMutex
	session *data.TournamentSession
	engine  *elo.Engine
	sched   *schedule.Scheduler
	agg     *analytics.Aggregator
	store   data.Store
	clock   data.Clock
	sink    EventSink
	offered *OfferedPair
}

// NewController wraps an existing session, typically one loaded from a
// store. The scheduler is rebuilt from the persisted seed and history, so
// pairing continues exactly where the session left off.
func NewController(session *data.TournamentSession, store data.Store, clock data.Clock) (*Controller, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", data.ErrInvalidSessionState)
	}
	if clock == nil {
		clock = data.SystemClock{}
	}

	engine, err := elo.NewEngine(session.Config.Elo)
	if err != nil {
		return nil, err
	}

	sched := schedule.New(session.PoolIDs(), schedule.Config{
		Seed:      session.Seed,
		MaxRounds: session.Config.Pairing.MaxRounds,
	})

	return &Controller{
		session: session,
		engine:  engine,
		sched:   sched,
		agg:     analytics.NewAggregator(),
		store:   store,
		clock:   clock,
	}, nil
}

// CreateSession builds a fresh session in Setup state and persists it
func CreateSession(title string, names []data.Name, config data.SessionConfig, store data.Store, clock data.Clock) (*Controller, error) {
	if clock == nil {
		clock = data.SystemClock{}
	}

	session, err := data.NewSession(title, names, config, clock.Now())
	if err != nil {
		return nil, err
	}

	ctrl, err := NewController(session, store, clock)
	if err != nil {
		return nil, err
	}

	ctrl.record("session_created", map[string]any{
		"title": title,
		"names": len(names),
		"seed":  session.Seed,
	})
	if err := ctrl.persist("session creation"); err != nil {
		return ctrl, err
	}
	return ctrl, nil
}

// ResumeSession loads a persisted session and rebuilds its controller
func ResumeSession(id string, store data.Store, clock data.Clock) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required to resume", data.ErrStorageOperation)
	}

	session, err := store.LoadSession(id)
	if err != nil {
		return nil, err
	}

	ctrl, err := NewController(session, store, clock)
	if err != nil {
		return nil, err
	}
	ctrl.record("session_resumed", map[string]any{"matches": len(session.History)})
	return ctrl, nil
}

// SetEventSink attaches an audit sink; pass nil to detach
func (c *Controller) SetEventSink(sink EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Start moves the session from Setup to Active
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.Status {
	case data.StatusSetup:
	case data.StatusActive:
		return ErrAlreadyStarted
	default:
		return fmt.Errorf("%w: cannot start a %s session", data.ErrInvalidSessionState, c.session.Status)
	}

	c.session.Status = data.StatusActive
	c.session.UpdatedAt = c.clock.Now()
	c.record("session_started", nil)
	return c.persist("session start")
}

// NextPair returns the comparison awaiting a vote, offering a new one when
// none is pending. Calling it again without voting re-issues the same pair
// with the same token. When the scheduler is exhausted the session moves to
// Complete and schedule.ErrExhausted is returned.
func (c *Controller) NextPair() (*OfferedPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.session.Status {
	case data.StatusActive:
	case data.StatusComplete:
		return nil, schedule.ErrExhausted
	default:
		return nil, ErrNotActive
	}

	if c.offered != nil {
		reissue := *c.offered
		return &reissue, nil
	}

	pair, err := c.sched.NextPair(c.historyPairs())
	if errors.Is(err, schedule.ErrExhausted) {
		c.session.Status = data.StatusComplete
		c.session.UpdatedAt = c.clock.Now()
		c.record("session_completed", map[string]any{"matches": len(c.session.History)})
		if perr := c.persist("session completion"); perr != nil {
			return nil, perr
		}
		return nil, schedule.ErrExhausted
	}
	if err != nil {
		return nil, err
	}

	nameA, err := c.session.NameByID(pair.A)
	if err != nil {
		return nil, err
	}
	nameB, err := c.session.NameByID(pair.B)
	if err != nil {
		return nil, err
	}

	c.offered = &OfferedPair{Token: uuid.NewString(), A: *nameA, B: *nameB}
	reissue := *c.offered
	return &reissue, nil
}

// SubmitVote resolves the currently offered pair. The token must match the
// pair most recently returned by NextPair; anything else is a stale vote
// and mutates nothing. Skips apply zero deltas but still count toward both
// names' match totals so the pair is not immediately re-offered.
func (c *Controller) SubmitVote(token string, outcome data.Outcome) (*VoteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status != data.StatusActive {
		return nil, ErrNotActive
	}
	if c.offered == nil || token != c.offered.Token {
		return nil, ErrStalePair
	}
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: %q", data.ErrInvalidOutcome, outcome)
	}

	nameA, err := c.session.NameByID(c.offered.A.ID)
	if err != nil {
		return nil, err
	}
	nameB, err := c.session.NameByID(c.offered.B.ID)
	if err != nil {
		return nil, err
	}

	match := data.Match{
		ID:           uuid.NewString(),
		Seq:          len(c.session.History),
		NameA:        nameA.ID,
		NameB:        nameB.ID,
		Outcome:      outcome,
		Timestamp:    c.clock.Now(),
		PriorRatingA: nameA.Rating,
		PriorRatingB: nameB.Rating,
	}

	if outcome.Decisive() {
		update, err := c.engine.ComputeUpdate(nameA.Rating, nameB.Rating, toEloResult(outcome))
		if err != nil {
			return nil, err
		}
		match.DeltaA, match.DeltaB = update.DeltaA, update.DeltaB
	}

	c.applyMatch(match, nameA, nameB)
	c.offered = nil

	c.record("vote_cast", map[string]any{
		"match_id": match.ID,
		"pair":     match.NameA + " vs " + match.NameB,
		"outcome":  string(outcome),
	})

	// A vote may have consumed the last available pair
	if _, err := c.sched.NextPair(c.historyPairs()); errors.Is(err, schedule.ErrExhausted) {
		c.session.Status = data.StatusComplete
		c.record("session_completed", map[string]any{"matches": len(c.session.History)})
	}

	result := &VoteResult{Match: match, Status: c.session.Status}
	if perr := c.persist("vote"); perr != nil {
		return result, perr
	}
	return result, nil
}

// Undo reverses the most recent vote when it still lies inside the undo
// window. Reversal restores both names from the match's pre-vote snapshots,
// so an append followed by an undo reproduces the prior session state
// exactly. Undoing from Complete reopens the session.
func (c *Controller) Undo() (*UndoResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.session.LastMatch()
	if err := c.undoAllowed(last); err != nil {
		return nil, err
	}

	reverted := *last
	if err := c.revertMatch(reverted); err != nil {
		return nil, err
	}

	c.offered = nil
	if c.session.Status == data.StatusComplete {
		c.session.Status = data.StatusActive
	}
	c.session.UpdatedAt = c.clock.Now()

	c.record("vote_undone", map[string]any{
		"match_id": reverted.ID,
		"pair":     reverted.NameA + " vs " + reverted.NameB,
	})

	result := &UndoResult{Reverted: reverted, Status: c.session.Status}
	if perr := c.persist("undo"); perr != nil {
		return result, perr
	}
	return result, nil
}

// Summarize derives the current analytics snapshot from the match history
func (c *Controller) Summarize() *analytics.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agg.Summarize(c.session, c.clock.Now())
}

// Session returns a deep copy of the controller's session
func (c *Controller) Session() *data.TournamentSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Clone()
}

// Status reports the session's lifecycle state
func (c *Controller) Status() data.SessionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Status
}

// Progress reports matches played and the total the schedule will offer
func (c *Controller) Progress() (played, total int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.session.History), c.sched.TotalPairs()
}

// persist saves the session if a store is attached; callers hold the lock
func (c *Controller) persist(op string) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveSession(c.session); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// record forwards an event to the attached sink; callers hold the lock
func (c *Controller) record(event string, details map[string]any) {
	if c.sink == nil {
		return
	}
	if details == nil {
		details = map[string]any{}
	}
	details["session_id"] = c.session.ID
	c.sink.RecordEvent(event, details)
}

func toEloResult(outcome data.Outcome) elo.Result {
	switch outcome {
	case data.OutcomeAWins:
		return elo.WinA
	case data.OutcomeBWins:
		return elo.WinB
	default:
		return elo.Tie
	}
}
