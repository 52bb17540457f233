/*
Package backend is the REST collaborator that supplies request snapshots and
approval timelines.

ENDPOINTS CONSUMED:
  GET {base}/leaves?page=&size=            Paginated leave requests
  GET {base}/leaves/{id}                   One leave request
  GET {base}/leaves/{id}/timeline          Approval steps of one leave request
  (same for /loans and /labor-requests)

ERRORS:
  Every failure, transport or HTTP status, is returned as a
  *workflow.FetchError so callers can fall back to degraded mode with
  workflow.IsFetchFailure. A 404 additionally matches workflow.ErrRequestNotFound.

SEE ALSO:
  - adapter/: Decodes the response bodies
  - workflow/source.go: Interfaces implemented here
*/
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/warp/approval-engine/adapter"
	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client talks to the HR backend.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Adapter    *adapter.Adapter
	Logger     *zap.Logger
}

var _ workflow.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every call.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// New creates a client for the given base URL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Adapter:    adapter.New(),
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	c.Adapter.Logger = c.Logger.Named("adapter")
	return c
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// Unwrap lets a 404 match workflow.ErrRequestNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return workflow.ErrRequestNotFound
	}
	return nil
}

// ListRequests fetches one page of requests.
func (c *Client) ListRequests(ctx context.Context, d workflow.Domain, q workflow.PageQuery) (workflow.Page, error) {
	q = q.Normalize()
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("size", strconv.Itoa(q.Size))

	body, err := c.get(ctx, "/"+d.Collection(), query)
	if err != nil {
		return workflow.Page{}, c.fail(d, 0, "list requests", err)
	}
	page, err := c.Adapter.ParsePage(d, body)
	if err != nil {
		return workflow.Page{}, c.fail(d, 0, "list requests", err)
	}
	if page.Size == 0 {
		page.Size = q.Size
	}
	return page, nil
}

// FindRequest fetches one request.
func (c *Client) FindRequest(ctx context.Context, d workflow.Domain, requestID int64) (workflow.RequestSnapshot, error) {
	body, err := c.get(ctx, fmt.Sprintf("/%s/%d", d.Collection(), requestID), nil)
	if err != nil {
		return workflow.RequestSnapshot{}, c.fail(d, requestID, "find request", err)
	}
	s, err := c.Adapter.ParseSnapshot(d, body)
	if err != nil {
		return workflow.RequestSnapshot{}, c.fail(d, requestID, "find request", err)
	}
	return s, nil
}

// FetchTimeline fetches the approval steps of one request.
func (c *Client) FetchTimeline(ctx context.Context, d workflow.Domain, requestID int64) ([]workflow.ApprovalStep, error) {
	body, err := c.get(ctx, fmt.Sprintf("/%s/%d/timeline", d.Collection(), requestID), nil)
	if err != nil {
		return nil, c.fail(d, requestID, "fetch timeline", err)
	}
	steps, err := c.Adapter.ParseSteps(body)
	if err != nil {
		return nil, c.fail(d, requestID, "fetch timeline", err)
	}
	return steps, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.Logger.Debug("backend call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) fail(d workflow.Domain, id int64, op string, err error) error {
	return &workflow.FetchError{Domain: d, RequestID: id, Op: op, Err: err}
}
