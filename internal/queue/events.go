package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the discussion stream
const (
	EventVoteChanged    = "vote_changed"
	EventCommentFlagged = "comment_flagged"
)

// StreamDiscussion carries every event raised by comment and vote writes.
const StreamDiscussion = "stream:discussion"

// ConsumerGroupDiscussion is the group the background workers read with.
const ConsumerGroupDiscussion = "discussion_workers"

// Event is a message on the discussion stream.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	IssueID   string `json:"issue_id"`

	// Comment events
	CommentID string `json:"comment_id,omitempty"`
	FlagCount int    `json:"flag_count,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NewVoteChangedEvent is raised after a vote is cast or removed.
// The worker recomputes the cached tally of the issue.
func NewVoteChangedEvent(issueID string) Event {
	return Event{
		Type:      EventVoteChanged,
		Timestamp: time.Now().Unix(),
		IssueID:   issueID,
	}
}

// NewCommentFlaggedEvent is raised after a flag is accepted.
func NewCommentFlaggedEvent(issueID, commentID, reason string, flagCount int) Event {
	return Event{
		Type:      EventCommentFlagged,
		Timestamp: time.Now().Unix(),
		IssueID:   issueID,
		CommentID: commentID,
		FlagCount: flagCount,
		Reason:    reason,
	}
}

// ToMap converts the event to field-value pairs for XADD. The payload is
// kept as JSON in the "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
