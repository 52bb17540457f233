/*
reconcile.go - Backend lifecycle fields -> canonical status

PURPOSE:
  Each domain reports progress differently. Labor requests have a coarse
  request status plus approver fields; leave and loan requests have a
  single-letter transaction flag and a "next approval" pointer. This file
  collapses both into the five canonical values used across the dashboard.

LABOR PRECEDENCE (first match wins):
  1. CANCELLED                         -> REJECTED
  2. approvedBy AND approvedAt present -> APPROVED
  3. PARTIAL or CLOSED                 -> APPROVED
  4. anything else                     -> NEW

  Rule 3 normalizes a backend quirk: partially fulfilled and closed requests
  can arrive without approver fields. The backend team has not confirmed
  whether this hides missing data; the rule is kept as observed.

LEAVE / LOAN:
  R -> REJECTED, A -> APPROVED, next level > 0 -> INPROCESS, else NEW.

TOTALITY:
  Every snapshot maps to exactly one status. Unknown domains and unknown
  lifecycle values fall through to NEW.
*/
package workflow

import "strings"

// ReconcileStatus derives the canonical status of a snapshot.
func ReconcileStatus(s RequestSnapshot) CanonicalStatus {
	lifecycle := normalizeLifecycle(s.Lifecycle)

	switch s.Domain {
	case DomainLabor:
		return reconcileLabor(s, lifecycle)
	case DomainLeave, DomainLoan:
		return reconcileTransFlag(s, lifecycle)
	}
	return StatusNew
}

func reconcileLabor(s RequestSnapshot, lifecycle string) CanonicalStatus {
	if lifecycle == LaborCancelled {
		return StatusRejected
	}
	if s.ApprovedBy != nil && s.ApprovedAt != nil && !s.ApprovedAt.IsZero() {
		return StatusApproved
	}
	if lifecycle == LaborPartial || lifecycle == LaborClosed {
		return StatusApproved
	}
	return StatusNew
}

func reconcileTransFlag(s RequestSnapshot, flag string) CanonicalStatus {
	switch flag {
	case TransRejected:
		return StatusRejected
	case TransApproved:
		return StatusApproved
	}
	if s.NextLevel() > 0 {
		return StatusInProcess
	}
	return StatusNew
}

// ReverseMapStatus returns the backend lifecycle value to submit for a
// status-affecting action. The inverse is intentionally coarse: only a
// rejection maps to the cancellation value, everything else maps to the
// open value and approval metadata carries the distinction.
func ReverseMapStatus(d Domain, c CanonicalStatus) string {
	switch d {
	case DomainLabor:
		if c == StatusRejected {
			return LaborCancelled
		}
		return LaborOpen
	case DomainLeave, DomainLoan:
		if c == StatusRejected {
			return TransRejected
		}
		return TransPending
	}
	return ""
}

func normalizeLifecycle(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
