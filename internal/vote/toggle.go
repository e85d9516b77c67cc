// Package vote keeps a viewer's vote on an issue responsive: the tally moves
// the moment the viewer clicks and is then confirmed, overwritten or rolled
// back once the backend answers.
package vote

import "civicvoice/internal/model"

// Toggle applies a click on action to agg.
//
// Clicking the vote the viewer already holds removes it. Clicking the other
// one (or either, when there is no vote) moves the viewer's vote there.
// Counters never go below zero and Score is recomputed.
func Toggle(agg model.VoteAggregate, action model.VoteType) model.VoteAggregate {
	prev := agg.UserVote
	if action == prev {
		agg = adjust(agg, prev, -1)
		agg.UserVote = model.VoteNone
		return agg.Normalize()
	}
	agg = adjust(agg, prev, -1)
	agg = adjust(agg, action, +1)
	agg.UserVote = action
	return agg.Normalize()
}

func adjust(agg model.VoteAggregate, v model.VoteType, delta int) model.VoteAggregate {
	switch v {
	case model.VoteUpvote:
		agg.Upvotes = max(agg.Upvotes+delta, 0)
	case model.VoteDownvote:
		agg.Downvotes = max(agg.Downvotes+delta, 0)
	}
	return agg
}
