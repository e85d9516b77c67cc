package model

import (
	"encoding/json"
	"fmt"
)

// VoteType is a viewer's vote on an issue. The wire encoding is 1 / -1 / 0.
type VoteType int

const (
	VoteNone     VoteType = 0
	VoteUpvote   VoteType = 1
	VoteDownvote VoteType = -1
)

func (v VoteType) String() string {
	switch v {
	case VoteUpvote:
		return "upvote"
	case VoteDownvote:
		return "downvote"
	default:
		return "none"
	}
}

// Valid reports whether v is one of the three known values.
func (v VoteType) Valid() bool {
	return v == VoteNone || v == VoteUpvote || v == VoteDownvote
}

// ParseVoteType accepts "up"/"upvote"/"1" and "down"/"downvote"/"-1".
func ParseVoteType(s string) (VoteType, error) {
	switch s {
	case "up", "upvote", "1":
		return VoteUpvote, nil
	case "down", "downvote", "-1":
		return VoteDownvote, nil
	case "none", "0", "":
		return VoteNone, nil
	}
	return VoteNone, &ValidationError{Field: "voteType", Message: fmt.Sprintf("unknown vote type %q", s)}
}

func (v *VoteType) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return &ValidationError{Field: "voteType", Message: "voteType must be 1 or -1"}
	}
	t := VoteType(n)
	if !t.Valid() {
		return &ValidationError{Field: "voteType", Message: "voteType must be 1 or -1"}
	}
	*v = t
	return nil
}

// VoteAggregate is the per-issue tally as seen by one viewer.
// Score is derived; call Normalize after touching the counters.
type VoteAggregate struct {
	Upvotes   int      `json:"upvotes"`
	Downvotes int      `json:"downvotes"`
	Score     int      `json:"score"`
	UserVote  VoteType `json:"userVote"`
}

// Normalize floors the counters at zero and recomputes Score.
func (a VoteAggregate) Normalize() VoteAggregate {
	if a.Upvotes < 0 {
		a.Upvotes = 0
	}
	if a.Downvotes < 0 {
		a.Downvotes = 0
	}
	a.Score = a.Upvotes - a.Downvotes
	return a
}

// CastVoteRequest is the body of POST /issues/{id}/vote.
type CastVoteRequest struct {
	VoteType VoteType `json:"voteType" validate:"required,oneof=1 -1"`
}

// VoteStatusResponse is returned by the vote endpoints.
// Counts are pointers so an omitted count can be told apart from zero.
type VoteStatusResponse struct {
	VoteType  VoteType `json:"voteType"`
	Upvotes   *int     `json:"upvotes,omitempty"`
	Downvotes *int     `json:"downvotes,omitempty"`
	Score     *int     `json:"score,omitempty"`
}

// HasCounts reports whether the server included both counters.
func (r VoteStatusResponse) HasCounts() bool {
	return r.Upvotes != nil && r.Downvotes != nil
}

// Aggregate converts the response, falling back to fallback's counters when
// the server omitted them.
func (r VoteStatusResponse) Aggregate(fallback VoteAggregate) VoteAggregate {
	agg := VoteAggregate{
		Upvotes:   fallback.Upvotes,
		Downvotes: fallback.Downvotes,
		UserVote:  r.VoteType,
	}
	if r.Upvotes != nil {
		agg.Upvotes = *r.Upvotes
	}
	if r.Downvotes != nil {
		agg.Downvotes = *r.Downvotes
	}
	return agg.Normalize()
}

// NewVoteStatusResponse builds the full response for an aggregate.
func NewVoteStatusResponse(agg VoteAggregate) VoteStatusResponse {
	agg = agg.Normalize()
	up, down, score := agg.Upvotes, agg.Downvotes, agg.Score
	return VoteStatusResponse{
		VoteType:  agg.UserVote,
		Upvotes:   &up,
		Downvotes: &down,
		Score:     &score,
	}
}

// Vote errors
var (
	ErrInvalidVoteType = newDomainError(ErrValidation, "voteType must be 1 or -1")
	ErrNoVote          = newDomainError(ErrNotFound, "no vote to remove")
)
