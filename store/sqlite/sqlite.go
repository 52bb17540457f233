/*
Package sqlite provides a SQLite-backed replica of backend snapshots.

PURPOSE:
  Holds a local copy of what the HR backend returns (raw request payloads and
  raw timeline payloads) so the views can be served offline, in demo mode, or
  in tests. Rows are decoded through the adapter package on the way out, so
  the replica goes through the same normalization as live backend responses.

WHAT IS NOT STORED:
  Canonical statuses, flattened rows and timelines are never written here.
  They are derived on every read.

INTERFACES IMPLEMENTED:
  workflow.RequestSource:  Paginated snapshots per domain
  workflow.RequestFinder:  One snapshot by id
  workflow.TimelineSource: Approval steps per request

KEY TABLES:
  request_snapshots: (domain, request_id) -> payload_json
  approval_steps:    (domain, request_id) -> steps_json (JSON array)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, like the rest of the store layer.

USAGE:
  store, err := sqlite.New("./data/replica.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  page, err := store.ListRequests(ctx, workflow.DomainLabor, workflow.PageQuery{Size: 20})

SEE ALSO:
  - workflow/source.go: Interface definitions
  - workflow/store/memory.go: In-memory implementation for testing
  - adapter/: Payload decoding
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/approval-engine/adapter"
	"github.com/warp/approval-engine/workflow"
)

// Store implements the collaborator interfaces using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	adapter *adapter.Adapter
}

var _ workflow.Source = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, adapter: adapter.New()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Raw request payloads as returned by the backend
	CREATE TABLE IF NOT EXISTS request_snapshots (
		domain TEXT NOT NULL,
		request_id INTEGER NOT NULL,
		payload_json TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (domain, request_id)
	);

	-- Raw timeline payloads (JSON array of steps)
	CREATE TABLE IF NOT EXISTS approval_steps (
		domain TEXT NOT NULL,
		request_id INTEGER NOT NULL,
		steps_json TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (domain, request_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES (replica maintenance only)
// =============================================================================

// SaveSnapshot stores the raw backend payload of one request. The payload
// must decode for the domain; the request id is taken from it.
func (s *Store) SaveSnapshot(ctx context.Context, d workflow.Domain, payload []byte) error {
	snap, err := s.adapter.ParseSnapshot(d, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO request_snapshots (domain, request_id, payload_json, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(domain, request_id) DO UPDATE SET
			payload_json = excluded.payload_json,
			fetched_at = excluded.fetched_at
	`
	_, err = s.db.ExecContext(ctx, query,
		string(d), snap.ID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// SaveSteps stores the raw timeline payload of one request.
func (s *Store) SaveSteps(ctx context.Context, d workflow.Domain, requestID int64, payload []byte) error {
	if _, err := s.adapter.ParseSteps(payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO approval_steps (domain, request_id, steps_json, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(domain, request_id) DO UPDATE SET
			steps_json = excluded.steps_json,
			fetched_at = excluded.fetched_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(d), requestID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save steps: %w", err)
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"request_snapshots", "approval_steps"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// READS (workflow collaborator interfaces)
// =============================================================================

// ListRequests returns one page of snapshots ordered by request id.
func (s *Store) ListRequests(ctx context.Context, d workflow.Domain, q workflow.PageQuery) (workflow.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q = q.Normalize()
	page := workflow.Page{Page: q.Page, Size: q.Size}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM request_snapshots WHERE domain = ?", string(d),
	).Scan(&page.Total)
	if err != nil {
		return workflow.Page{}, s.fail(d, 0, "list requests", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT payload_json FROM request_snapshots WHERE domain = ? ORDER BY request_id LIMIT ? OFFSET ?",
		string(d), q.Size, q.Page*q.Size,
	)
	if err != nil {
		return workflow.Page{}, s.fail(d, 0, "list requests", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return workflow.Page{}, s.fail(d, 0, "list requests", err)
		}
		snap, err := s.adapter.ParseSnapshot(d, []byte(payload))
		if err != nil {
			return workflow.Page{}, s.fail(d, 0, "list requests", err)
		}
		page.Items = append(page.Items, snap)
	}
	if err := rows.Err(); err != nil {
		return workflow.Page{}, s.fail(d, 0, "list requests", err)
	}
	return page, nil
}

// FindRequest returns one snapshot.
func (s *Store) FindRequest(ctx context.Context, d workflow.Domain, requestID int64) (workflow.RequestSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload_json FROM request_snapshots WHERE domain = ? AND request_id = ?",
		string(d), requestID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.RequestSnapshot{}, workflow.ErrRequestNotFound
	}
	if err != nil {
		return workflow.RequestSnapshot{}, s.fail(d, requestID, "find request", err)
	}
	return s.adapter.ParseSnapshot(d, []byte(payload))
}

// FetchTimeline returns the stored steps. A request without stored steps
// yields an empty list, which selects degraded mode.
func (s *Store) FetchTimeline(ctx context.Context, d workflow.Domain, requestID int64) ([]workflow.ApprovalStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT steps_json FROM approval_steps WHERE domain = ? AND request_id = ?",
		string(d), requestID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(d, requestID, "fetch timeline", err)
	}

	steps, err := s.adapter.ParseSteps([]byte(payload))
	if err != nil {
		return nil, s.fail(d, requestID, "fetch timeline", err)
	}
	return steps, nil
}

// Counts returns the number of stored snapshots per domain.
func (s *Store) Counts(ctx context.Context) (map[workflow.Domain]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM request_snapshots GROUP BY domain")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[workflow.Domain]int)
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		counts[workflow.Domain(d)] = n
	}
	return counts, rows.Err()
}

func (s *Store) fail(d workflow.Domain, id int64, op string, err error) error {
	return &workflow.FetchError{Domain: d, RequestID: id, Op: op, Err: err}
}
