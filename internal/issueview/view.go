// Package issueview holds the state of one issue screen: its comment tree and
// the viewer's vote tally. Views are built explicitly and never shared
// between issues.
package issueview

import (
	"context"
	"errors"
	"log/slog"

	"civicvoice/internal/commenttree"
	"civicvoice/internal/logging"
	"civicvoice/internal/model"
	"civicvoice/internal/vote"
)

// API is everything a view needs from the backend.
type API interface {
	commenttree.API
	vote.API
}

// View owns the comment tree and vote engine of a single issue.
type View struct {
	IssueID  string
	Comments *commenttree.Manager
	Votes    *vote.Engine

	api    API
	logger *slog.Logger
}

// New builds a view for issueID. initial seeds the vote tally, usually from
// the counters embedded in the issue itself.
func New(api API, issueID string, initial model.VoteAggregate, logger *slog.Logger) *View {
	if logger == nil {
		logger = logging.Discard()
	}
	return &View{
		IssueID:  issueID,
		Comments: commenttree.NewManager(api, issueID, logger),
		Votes:    vote.NewEngine(api, issueID, initial, logger),
		api:      api,
		logger:   logger,
	}
}

// Open loads the comment tree and, when the viewer is signed in, their vote
// status. A failed vote status load does not hide the comments; both errors
// are returned joined.
func (v *View) Open(ctx context.Context, sort model.SortOrder) error {
	var errs []error
	if err := v.Comments.Load(ctx, sort); err != nil {
		errs = append(errs, err)
	}
	if v.api.Authenticated() {
		if err := v.Votes.Load(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Authenticated reports whether the viewer can comment and vote.
func (v *View) Authenticated() bool { return v.api.Authenticated() }
