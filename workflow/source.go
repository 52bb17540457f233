/*
source.go - Interfaces to the collaborators that supply snapshots

PURPOSE:
  The core never performs I/O. Snapshots and approval steps come from
  collaborators behind these interfaces, and the results are passed into
  ReconcileStatus, FlattenRequests and Synthesize as plain values.

KEY INTERFACES:
  RequestSource:  Paginated request snapshots per domain
  RequestFinder:  One request snapshot by id
  TimelineSource: Detailed approval steps for one request

IMPLEMENTATIONS:
  - backend/client.go: REST backend
  - store/sqlite/sqlite.go: Local snapshot replica
  - workflow/store/memory.go: In-memory for testing

SEE ALSO:
  - loader.go: Latest-wins timeline fetching on top of TimelineSource
*/
package workflow

import "context"

// PageQuery selects one page of requests. Page is zero-based.
type PageQuery struct {
	Page int
	Size int
}

// DefaultPageSize is used when a query asks for a non-positive size.
const DefaultPageSize = 20

// Normalize clamps the query to sane values.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	return q
}

// Page is one page of snapshots.
type Page struct {
	Items []RequestSnapshot
	Total int
	Page  int
	Size  int
}

// RequestSource lists request snapshots.
type RequestSource interface {
	ListRequests(ctx context.Context, d Domain, q PageQuery) (Page, error)
}

// TimelineSource returns the detailed approval steps of one request.
// An empty result is valid and selects degraded mode.
type TimelineSource interface {
	FetchTimeline(ctx context.Context, d Domain, requestID int64) ([]ApprovalStep, error)
}

// RequestFinder returns one snapshot. Missing requests yield ErrRequestNotFound.
type RequestFinder interface {
	FindRequest(ctx context.Context, d Domain, requestID int64) (RequestSnapshot, error)
}

// Source is implemented by collaborators that serve all three.
type Source interface {
	RequestSource
	RequestFinder
	TimelineSource
}
