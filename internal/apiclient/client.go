// Package apiclient is the REST client for the civicvoice backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"civicvoice/internal/logging"
	"civicvoice/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client talks to the backend over HTTP. A Client without a token can only
// read; every mutating call fails with model.ErrAuthRequired before a request
// is made.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer credential of the viewer.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether the client carries a credential.
func (c *Client) Authenticated() bool { return c.token != "" }

// ListComments fetches the nested comment tree of an issue.
func (c *Client) ListComments(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("nested", "true")
	q.Set("sortBy", string(model.ParseSortOrder(string(sort))))
	path := "/issues/" + url.PathEscape(issueID) + "/comments?" + q.Encode()

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeCommentList(raw)
}

// CreateComment posts a top-level comment or a reply.
func (c *Client) CreateComment(ctx context.Context, issueID string, req model.CreateCommentRequest) (*model.Comment, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateComment replaces the content of a comment.
func (c *Client) UpdateComment(ctx context.Context, commentID string, req model.UpdateCommentRequest) (*model.Comment, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	var out model.Comment
	if err := c.do(ctx, http.MethodPut, "/comments/"+url.PathEscape(commentID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment deletes a comment; the backend cascades to its replies.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	if !c.Authenticated() {
		return model.ErrAuthRequired
	}
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID), nil, nil)
}

// FlagComment reports a comment.
func (c *Client) FlagComment(ctx context.Context, commentID string, req model.FlagCommentRequest) (*model.CommentFlag, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	var out model.CommentFlag
	if err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/flag", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CastVote sets the viewer's vote on an issue.
func (c *Client) CastVote(ctx context.Context, issueID string, voteType model.VoteType) (*model.VoteStatusResponse, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	if voteType != model.VoteUpvote && voteType != model.VoteDownvote {
		return nil, model.ErrInvalidVoteType
	}
	var out model.VoteStatusResponse
	body := model.CastVoteRequest{VoteType: voteType}
	if err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/vote", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveVote clears the viewer's vote on an issue.
func (c *Client) RemoveVote(ctx context.Context, issueID string) (*model.VoteStatusResponse, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	var out model.VoteStatusResponse
	if err := c.do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(issueID)+"/vote", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VoteStatus fetches the viewer's vote and the issue's tally.
func (c *Client) VoteStatus(ctx context.Context, issueID string) (*model.VoteStatusResponse, error) {
	if !c.Authenticated() {
		return nil, model.ErrAuthRequired
	}
	var out model.VoteStatusResponse
	if err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(issueID)+"/vote-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w: %w", model.ErrNetwork, err)
	}
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w: %w", model.ErrServer, err)
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// maxErrorExcerpt bounds how much of a non-JSON error body ends up in APIError.
const maxErrorExcerpt = 200

func decodeError(status int, body []byte) error {
	apiErr := &model.APIError{Status: status}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = truncate(strings.TrimSpace(string(body)), maxErrorExcerpt)
	}
	return apiErr
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// decodeCommentList accepts either a bare array or {"comments": [...]}.
func decodeCommentList(raw json.RawMessage) ([]model.Comment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []model.Comment{}, nil
	}
	if trimmed[0] == '[' {
		var list []model.Comment
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode comments: %w: %w", model.ErrServer, err)
		}
		return list, nil
	}
	var resp model.CommentListResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("decode comments: %w: %w", model.ErrServer, err)
	}
	if resp.Comments == nil {
		return []model.Comment{}, nil
	}
	return resp.Comments, nil
}

// IsTokenExpired reports whether err is a 401 caused by an expired token.
func IsTokenExpired(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && apiErr.Code == model.CodeTokenExpired
}
