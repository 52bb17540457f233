/*
types.go - Core types shared by the reconciler and the timeline synthesizer

PURPOSE:
  Defines the closed enumerations (domains, canonical statuses, step statuses)
  and the normalized snapshot shape that every backend payload is adapted into
  before any rule runs.

KEY TYPES:
  Domain:          LEAVE, LOAN, LABOR
  CanonicalStatus: NEW, INPROCESS, APPROVED, REJECTED, COMPLETED
  StepStatus:      COMPLETED, PENDING, FUTURE, REJECTED, SKIPPED
  RequestSnapshot: Normalized read-only backend record
  ApprovalStep:    One approval level as reported by the backend

DERIVED, NEVER STORED:
  CanonicalStatus is always recomputed from a snapshot. Nothing in this
  package caches it.

SEE ALSO:
  - reconcile.go: Snapshot -> CanonicalStatus
  - timeline.go: Steps -> TimelineView
  - adapter/: Raw backend JSON -> RequestSnapshot
*/
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DOMAIN - Which backend rules apply
// =============================================================================

type Domain string

const (
	DomainLeave Domain = "LEAVE"
	DomainLoan  Domain = "LOAN"
	DomainLabor Domain = "LABOR"
)

// Domains lists every supported domain in display order.
var Domains = []Domain{DomainLeave, DomainLoan, DomainLabor}

// Collection returns the backend REST collection name for the domain.
func (d Domain) Collection() string {
	switch d {
	case DomainLeave:
		return "leaves"
	case DomainLoan:
		return "loans"
	case DomainLabor:
		return "labor-requests"
	}
	return ""
}

func (d Domain) IsValid() bool {
	return d == DomainLeave || d == DomainLoan || d == DomainLabor
}

// ParseDomain accepts domain names case-insensitively, as well as the
// backend collection names ("leaves", "loans", "labor-requests").
func ParseDomain(s string) (Domain, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "LEAVE", "LEAVES":
		return DomainLeave, nil
	case "LOAN", "LOANS":
		return DomainLoan, nil
	case "LABOR", "LABOR-REQUESTS", "LABOUR":
		return DomainLabor, nil
	}
	return "", &UnknownDomainError{Value: s}
}

// =============================================================================
// CANONICAL STATUS - Five-value closed set used by every list and filter
// =============================================================================

type CanonicalStatus string

const (
	StatusNew       CanonicalStatus = "NEW"
	StatusInProcess CanonicalStatus = "INPROCESS"
	StatusApproved  CanonicalStatus = "APPROVED"
	StatusRejected  CanonicalStatus = "REJECTED"
	StatusCompleted CanonicalStatus = "COMPLETED"
)

var canonicalStatuses = map[CanonicalStatus]bool{
	StatusNew:       true,
	StatusInProcess: true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCompleted: true,
}

func (c CanonicalStatus) String() string { return string(c) }

func (c CanonicalStatus) IsValid() bool { return canonicalStatuses[c] }

// IsTerminal reports whether a final decision has been made.
func (c CanonicalStatus) IsTerminal() bool {
	return c == StatusApproved || c == StatusRejected || c == StatusCompleted
}

// ParseCanonicalStatus parses a canonical status name. Unknown values are an
// error here because this is only used for client-supplied filters.
func ParseCanonicalStatus(s string) (CanonicalStatus, error) {
	c := CanonicalStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return c, nil
}

// =============================================================================
// STEP STATUS - Per-level approval state
// =============================================================================

// StepStatus transitions are monotonic and driven upstream:
//
//	FUTURE -> PENDING -> COMPLETED
//	FUTURE -> PENDING -> REJECTED
//	FUTURE -> SKIPPED
//
// COMPLETED, REJECTED and SKIPPED are terminal.
type StepStatus string

const (
	StepCompleted StepStatus = "COMPLETED"
	StepPending   StepStatus = "PENDING"
	StepFuture    StepStatus = "FUTURE"
	StepRejected  StepStatus = "REJECTED"
	StepSkipped   StepStatus = "SKIPPED"
)

var stepAliases = map[string]StepStatus{
	"COMPLETED": StepCompleted,
	"APPROVED":  StepCompleted,
	"DONE":      StepCompleted,
	"PENDING":   StepPending,
	"WAITING":   StepPending,
	"FUTURE":    StepFuture,
	"REJECTED":  StepRejected,
	"SKIPPED":   StepSkipped,
}

// ParseStepStatus never fails. Unknown values classify as FUTURE, the most
// conservative state.
func ParseStepStatus(s string) StepStatus {
	if st, ok := stepAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return st
	}
	return StepFuture
}

func (s StepStatus) String() string { return string(s) }

// IsResolved reports whether the level no longer blocks progress.
func (s StepStatus) IsResolved() bool {
	return s == StepCompleted || s == StepSkipped
}

// IsTerminal reports whether the level can no longer change.
func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepRejected || s == StepSkipped
}

// =============================================================================
// BACKEND LIFECYCLE VALUES
// =============================================================================

// Labor requests carry a coarse request status.
const (
	LaborOpen      = "OPEN"
	LaborPartial   = "PARTIAL"
	LaborClosed    = "CLOSED"
	LaborCancelled = "CANCELLED"
)

// Leave and loan requests carry a single-letter transaction flag.
const (
	TransPending  = "P"
	TransApproved = "A"
	TransRejected = "R"
)

// =============================================================================
// SNAPSHOTS
// =============================================================================

// RequestSnapshot is the normalized shape of one backend request. Optional
// signals are pointers; nil means "no signal", never an error.
type RequestSnapshot struct {
	Domain      Domain
	ID          int64
	EmployeeID  int64
	RequestDate time.Time

	// Lifecycle is the raw backend value: request status for labor,
	// transaction flag for leave and loan.
	Lifecycle string

	ApprovedBy *int64
	ApprovedAt *time.Time
	Next       *NextApproval

	// Details is only populated for labor requests.
	Details []DetailLine

	Remarks string
}

// NextLevel returns the next approval level, or 0 when absent.
func (s RequestSnapshot) NextLevel() int {
	if s.Next == nil {
		return 0
	}
	return s.Next.Level
}

// NextApproval points at the approver who acts next.
type NextApproval struct {
	ApproverID int64
	Level      int
	LevelName  string
}

// DetailLine is one specialization/quantity/rate triple of a labor request.
type DetailLine struct {
	Seq            int
	Specialization string
	Quantity       int
	DailyRate      decimal.Decimal
}

// ApprovalStep is one approval level in a request's detailed history.
type ApprovalStep struct {
	Level        int
	LevelName    string
	ApproverID   int64
	ApproverName string
	Status       StepStatus
	ActedAt      *time.Time
	Comment      string
}
