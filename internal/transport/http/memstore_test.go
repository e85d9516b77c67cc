package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicvoice/internal/model"
)

// memStore backs the three repositories with maps so the router can be
// exercised without PostgreSQL.
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[string]string
	issues   map[string]*memIssue
	comments map[string]*model.Comment
	flags    map[string]bool
	votes    map[string]map[string]model.VoteType
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		users:    map[string]string{},
		issues:   map[string]*memIssue{},
		comments: map[string]*model.Comment{},
		flags:    map[string]bool{},
		votes:    map[string]map[string]model.VoteType{},
	}
}

func (s *memStore) addUser(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = name
	return id
}

func (s *memStore) addIssue(title string, up, down int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.issues[id] = &memIssue{title: title, Upvotes: up, Downvotes: down}
	s.votes[id] = map[string]model.VoteType{}
	return id
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memIssue struct {
	title     string
	Upvotes   int
	Downvotes int
}

type memIssues struct{ *memStore }

func (r memIssues) Exists(_ context.Context, issueID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.issues[issueID]
	return ok, nil
}

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, issueID, userID, content string, parentID *string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if parentID != nil {
		if _, ok := r.comments[*parentID]; !ok {
			return nil, model.ErrParentNotFound
		}
	}
	now := r.tick()
	c := &model.Comment{
		ID:         uuid.NewString(),
		IssueID:    issueID,
		Content:    content,
		AuthorID:   userID,
		AuthorName: r.users[userID],
		CreatedAt:  now,
		UpdatedAt:  now,
		ParentID:   parentID,
	}
	r.comments[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r memComments) Update(_ context.Context, commentID, userID, content string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	if c.AuthorID != userID {
		return nil, model.ErrNotCommentOwner
	}
	c.Content = content
	c.UpdatedAt = r.tick()
	cp := *c
	return &cp, nil
}

func (r memComments) Delete(_ context.Context, commentID, userID string) (string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return "", 0, model.ErrCommentNotFound
	}
	if c.AuthorID != userID {
		return "", 0, model.ErrNotCommentOwner
	}

	doomed := map[string]bool{commentID: true}
	for grew := true; grew; {
		grew = false
		for id, other := range r.comments {
			if !doomed[id] && other.ParentID != nil && doomed[*other.ParentID] {
				doomed[id] = true
				grew = true
			}
		}
	}
	for id := range doomed {
		delete(r.comments, id)
	}
	return c.IssueID, len(doomed), nil
}

func (r memComments) GetByID(_ context.Context, commentID string) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memComments) ListByIssue(_ context.Context, issueID string, order model.SortOrder) ([]model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []model.Comment
	for _, c := range r.comments {
		if c.IssueID == issueID {
			rows = append(rows, *c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if order == model.SortOldest {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

func (r memComments) Flag(_ context.Context, flag *model.CommentFlag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[flag.CommentID]
	if !ok {
		return model.ErrCommentNotFound
	}
	key := flag.CommentID + "/" + flag.UserID
	if r.flags[key] {
		return model.ErrAlreadyFlagged
	}
	r.flags[key] = true
	c.IsFlagged = true
	c.FlagCount++
	flag.ID = uuid.NewString()
	flag.CreatedAt = r.tick()
	return nil
}

type memVotes struct{ *memStore }

func (r memVotes) Cast(_ context.Context, issueID, userID string, voteType model.VoteType) (model.VoteAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok {
		return model.VoteAggregate{}, model.ErrIssueNotFound
	}
	r.apply(issue, r.votes[issueID][userID], voteType)
	r.votes[issueID][userID] = voteType
	return r.aggregate(issue, voteType), nil
}

func (r memVotes) Remove(_ context.Context, issueID, userID string) (model.VoteAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok {
		return model.VoteAggregate{}, model.ErrIssueNotFound
	}
	prev, ok := r.votes[issueID][userID]
	if !ok {
		return model.VoteAggregate{}, model.ErrNoVote
	}
	r.apply(issue, prev, model.VoteNone)
	delete(r.votes[issueID], userID)
	return r.aggregate(issue, model.VoteNone), nil
}

func (r memVotes) Get(_ context.Context, issueID, userID string) (model.VoteType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.votes[issueID][userID], nil
}

func (r memVotes) Counts(_ context.Context, issueID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[issueID]
	if !ok {
		return 0, 0, model.ErrIssueNotFound
	}
	return issue.Upvotes, issue.Downvotes, nil
}

func (r memVotes) apply(issue *memIssue, prev, next model.VoteType) {
	switch prev {
	case model.VoteUpvote:
		issue.Upvotes--
	case model.VoteDownvote:
		issue.Downvotes--
	}
	switch next {
	case model.VoteUpvote:
		issue.Upvotes++
	case model.VoteDownvote:
		issue.Downvotes++
	}
}

func (r memVotes) aggregate(issue *memIssue, userVote model.VoteType) model.VoteAggregate {
	return model.VoteAggregate{Upvotes: issue.Upvotes, Downvotes: issue.Downvotes, UserVote: userVote}.Normalize()
}
