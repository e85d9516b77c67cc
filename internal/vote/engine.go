package vote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"civicvoice/internal/logging"
	"civicvoice/internal/model"
	"civicvoice/internal/optimistic"
)

// API is the part of the backend the engine talks to.
type API interface {
	Authenticated() bool
	CastVote(ctx context.Context, issueID string, voteType model.VoteType) (*model.VoteStatusResponse, error)
	RemoveVote(ctx context.Context, issueID string) (*model.VoteStatusResponse, error)
	VoteStatus(ctx context.Context, issueID string) (*model.VoteStatusResponse, error)
}

// State of an engine. A vote can only start from Idle.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Result is what a Vote call settled on.
type Result struct {
	Aggregate model.VoteAggregate
	// Reconciled is set when the backend's tally differed from the
	// optimistic one and replaced it.
	Reconciled bool
	// Estimated is set when the backend confirmed the vote without counts,
	// so the counters shown are the optimistic ones.
	Estimated bool
}

// Engine holds the vote aggregate of one issue for one viewer.
type Engine struct {
	api     API
	issueID string
	logger  *slog.Logger

	mu          sync.Mutex
	agg         model.VoteAggregate
	state       State
	generation  uint64 // bumped by every Vote; a Load from an older generation is stale
	nextSubID   int
	subscribers map[int]func(model.VoteAggregate)
}

// NewEngine creates an idle engine seeded with initial, which is usually the
// tally embedded in the issue payload.
func NewEngine(api API, issueID string, initial model.VoteAggregate, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		api:         api,
		issueID:     issueID,
		logger:      logger.With("issue", issueID),
		agg:         initial.Normalize(),
		subscribers: make(map[int]func(model.VoteAggregate)),
	}
}

// Aggregate returns the tally currently shown.
func (e *Engine) Aggregate() model.VoteAggregate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg
}

// State reports whether a vote is in flight.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn to be called with every aggregate the viewer should
// see. Calls happen synchronously on the goroutine that changed the state.
func (e *Engine) Subscribe(fn func(model.VoteAggregate)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Load replaces the tally with the viewer's vote status from the backend.
// A response that arrives after a vote was started is dropped, since it
// describes the tally from before that vote.
func (e *Engine) Load(ctx context.Context) error {
	if !e.api.Authenticated() {
		return model.ErrAuthRequired
	}
	e.mu.Lock()
	if e.state == Pending {
		e.mu.Unlock()
		return model.ErrVotePending
	}
	generation := e.generation
	e.mu.Unlock()

	resp, err := e.api.VoteStatus(ctx, e.issueID)
	if err != nil {
		e.logger.Warn("load vote status failed", "error", err)
		return fmt.Errorf("load vote status: %w", err)
	}

	e.mu.Lock()
	if e.state == Pending {
		e.mu.Unlock()
		return model.ErrVotePending
	}
	if e.generation != generation {
		e.mu.Unlock()
		e.logger.Debug("stale vote status dropped")
		return nil
	}
	e.agg = resp.Aggregate(e.agg)
	agg := e.agg
	e.mu.Unlock()

	e.notify(agg)
	e.logger.Debug("vote status loaded", "upvotes", agg.Upvotes, "downvotes", agg.Downvotes, "user_vote", agg.UserVote)
	return nil
}

// Vote handles a click on action (VoteUpvote or VoteDownvote).
//
// The toggled tally is published before the request is sent. On success the
// backend's counts win; on failure the tally before the click is restored and
// the error returned. While a vote is in flight further calls return
// ErrVotePending and change nothing.
func (e *Engine) Vote(ctx context.Context, action model.VoteType) (Result, error) {
	if action != model.VoteUpvote && action != model.VoteDownvote {
		return Result{Aggregate: e.Aggregate()}, model.ErrInvalidVoteType
	}
	if !e.api.Authenticated() {
		return Result{Aggregate: e.Aggregate()}, model.ErrAuthRequired
	}

	e.mu.Lock()
	if e.state == Pending {
		agg := e.agg
		e.mu.Unlock()
		e.logger.Debug("vote ignored while pending", "action", action)
		return Result{Aggregate: agg}, model.ErrVotePending
	}
	e.state = Pending
	e.generation++
	current := e.agg
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state = Idle
		e.mu.Unlock()
	}()

	estimated := false
	final, outcome, err := optimistic.Run(ctx, current, optimistic.Action[model.VoteAggregate]{
		Apply: func(agg model.VoteAggregate) model.VoteAggregate {
			return Toggle(agg, action)
		},
		Call: func(ctx context.Context, opt model.VoteAggregate) (model.VoteAggregate, error) {
			var resp *model.VoteStatusResponse
			var err error
			if opt.UserVote == model.VoteNone {
				resp, err = e.api.RemoveVote(ctx, e.issueID)
			} else {
				resp, err = e.api.CastVote(ctx, e.issueID, opt.UserVote)
			}
			if err != nil {
				return opt, err
			}
			if !resp.HasCounts() {
				estimated = true
			}
			return resp.Aggregate(opt), nil
		},
		Publish: e.publish,
	})
	if err != nil {
		e.logger.Warn("vote failed, rolled back", "action", action, "error", err)
		return Result{Aggregate: final}, fmt.Errorf("vote %s: %w", action, err)
	}

	if estimated {
		e.logger.Warn("vote confirmed without counts, keeping local tally", "action", action)
	}
	if outcome == optimistic.Overwritten {
		e.logger.Info("vote reconciled with server", "upvotes", final.Upvotes, "downvotes", final.Downvotes, "user_vote", final.UserVote)
	}
	return Result{Aggregate: final, Reconciled: outcome == optimistic.Overwritten, Estimated: estimated}, nil
}

func (e *Engine) publish(agg model.VoteAggregate) {
	e.mu.Lock()
	e.agg = agg
	e.mu.Unlock()
	e.notify(agg)
}

func (e *Engine) notify(agg model.VoteAggregate) {
	e.mu.Lock()
	subs := make([]func(model.VoteAggregate), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(agg)
	}
}
