// Package store provides in-memory collaborator implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/approval-engine/workflow"
)

// =============================================================================
// MEMORY SOURCE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	requests  map[workflow.Domain][]workflow.RequestSnapshot
	timelines map[key][]workflow.ApprovalStep
	failures  map[key]error
}

type key struct {
	Domain    workflow.Domain
	RequestID int64
}

var _ workflow.Source = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		requests:  make(map[workflow.Domain][]workflow.RequestSnapshot),
		timelines: make(map[key][]workflow.ApprovalStep),
		failures:  make(map[key]error),
	}
}

// Put adds or replaces snapshots, keeping each domain ordered by ID.
func (m *Memory) Put(snapshots ...workflow.RequestSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range snapshots {
		list := m.requests[s.Domain]
		i := sort.Search(len(list), func(i int) bool { return list[i].ID >= s.ID })
		if i < len(list) && list[i].ID == s.ID {
			list[i] = s
			continue
		}
		list = append(list, workflow.RequestSnapshot{})
		copy(list[i+1:], list[i:])
		list[i] = s
		m.requests[s.Domain] = list
	}
}

// PutTimeline sets the detailed steps for a request.
func (m *Memory) PutTimeline(d workflow.Domain, requestID int64, steps []workflow.ApprovalStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timelines[key{d, requestID}] = append([]workflow.ApprovalStep(nil), steps...)
}

// FailTimeline makes FetchTimeline for the request return err.
// A nil err clears the failure.
func (m *Memory) FailTimeline(d workflow.Domain, requestID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, key{d, requestID})
		return
	}
	m.failures[key{d, requestID}] = err
}

func (m *Memory) ListRequests(_ context.Context, d workflow.Domain, q workflow.PageQuery) (workflow.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q = q.Normalize()
	all := m.requests[d]
	page := workflow.Page{Total: len(all), Page: q.Page, Size: q.Size}

	from := q.Page * q.Size
	if from >= len(all) {
		return page, nil
	}
	to := min(from+q.Size, len(all))
	page.Items = make([]workflow.RequestSnapshot, to-from)
	copy(page.Items, all[from:to])
	return page, nil
}

func (m *Memory) FetchTimeline(ctx context.Context, d workflow.Domain, requestID int64) ([]workflow.ApprovalStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	k := key{d, requestID}
	if err := m.failures[k]; err != nil {
		return nil, &workflow.FetchError{Domain: d, RequestID: requestID, Op: "fetch timeline", Err: err}
	}
	result := make([]workflow.ApprovalStep, len(m.timelines[k]))
	copy(result, m.timelines[k])
	return result, nil
}

// FindRequest returns one snapshot by ID.
func (m *Memory) FindRequest(_ context.Context, d workflow.Domain, requestID int64) (workflow.RequestSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.requests[d]
	i := sort.Search(len(list), func(i int) bool { return list[i].ID >= requestID })
	if i < len(list) && list[i].ID == requestID {
		return list[i], nil
	}
	return workflow.RequestSnapshot{}, workflow.ErrRequestNotFound
}
