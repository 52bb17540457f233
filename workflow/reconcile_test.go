package workflow_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/approval-engine/workflow"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

var march10 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func laborSnapshot(id int64, lifecycle string, lines ...workflow.DetailLine) workflow.RequestSnapshot {
	return workflow.RequestSnapshot{
		Domain:      workflow.DomainLabor,
		ID:          id,
		EmployeeID:  77,
		RequestDate: march10,
		Lifecycle:   lifecycle,
		Details:     lines,
	}
}

func line(seq int, name string, qty int, rate string) workflow.DetailLine {
	return workflow.DetailLine{
		Seq:            seq,
		Specialization: name,
		Quantity:       qty,
		DailyRate:      decimal.RequireFromString(rate),
	}
}

func transSnapshot(d workflow.Domain, flag string, nextLevel int) workflow.RequestSnapshot {
	s := workflow.RequestSnapshot{Domain: d, ID: 1, EmployeeID: 5, RequestDate: march10, Lifecycle: flag}
	if nextLevel != 0 {
		s.Next = &workflow.NextApproval{ApproverID: 9, Level: nextLevel, LevelName: "HR"}
	}
	return s
}

// =============================================================================
// LABOR RULES
// =============================================================================

func TestReconcileStatus_Labor(t *testing.T) {
	approved := laborSnapshot(1, workflow.LaborOpen)
	approved.ApprovedBy = int64Ptr(12)
	approved.ApprovedAt = timePtr(march10)

	approverOnly := laborSnapshot(2, workflow.LaborOpen)
	approverOnly.ApprovedBy = int64Ptr(12)

	cancelledButApproved := laborSnapshot(3, workflow.LaborCancelled)
	cancelledButApproved.ApprovedBy = int64Ptr(12)
	cancelledButApproved.ApprovedAt = timePtr(march10)

	tests := []struct {
		name     string
		snapshot workflow.RequestSnapshot
		want     workflow.CanonicalStatus
	}{
		{"cancelled", laborSnapshot(1, "CANCELLED"), workflow.StatusRejected},
		{"cancelled wins over approver", cancelledButApproved, workflow.StatusRejected},
		{"approver and timestamp", approved, workflow.StatusApproved},
		{"approver without timestamp is no signal", approverOnly, workflow.StatusNew},
		{"partial without approver", laborSnapshot(1, "PARTIAL"), workflow.StatusApproved},
		{"closed without approver", laborSnapshot(1, "CLOSED"), workflow.StatusApproved},
		{"open", laborSnapshot(1, "OPEN"), workflow.StatusNew},
		{"lowercase and padded", laborSnapshot(1, "  cancelled "), workflow.StatusRejected},
		{"unknown lifecycle", laborSnapshot(1, "ARCHIVED"), workflow.StatusNew},
		{"empty lifecycle", laborSnapshot(1, ""), workflow.StatusNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workflow.ReconcileStatus(tt.snapshot))
		})
	}
}

// =============================================================================
// LEAVE / LOAN RULES
// =============================================================================

func TestReconcileStatus_TransFlag(t *testing.T) {
	for _, d := range []workflow.Domain{workflow.DomainLeave, workflow.DomainLoan} {
		t.Run(string(d), func(t *testing.T) {
			assert.Equal(t, workflow.StatusRejected, workflow.ReconcileStatus(transSnapshot(d, "R", 2)))
			assert.Equal(t, workflow.StatusApproved, workflow.ReconcileStatus(transSnapshot(d, "A", 0)))
			assert.Equal(t, workflow.StatusInProcess, workflow.ReconcileStatus(transSnapshot(d, "P", 2)))
			assert.Equal(t, workflow.StatusNew, workflow.ReconcileStatus(transSnapshot(d, "P", 0)))
			assert.Equal(t, workflow.StatusNew, workflow.ReconcileStatus(transSnapshot(d, "N", 0)))
			assert.Equal(t, workflow.StatusInProcess, workflow.ReconcileStatus(transSnapshot(d, "?", 1)),
				"unknown flag with a next level is in progress")
		})
	}
}

func TestReconcileStatus_LoanApprovedIsIdempotent(t *testing.T) {
	// GIVEN: An identical LOAN snapshot {transStatus: 'A'}
	s := transSnapshot(workflow.DomainLoan, "A", 0)

	// WHEN/THEN: Reconciling twice yields APPROVED both times
	assert.Equal(t, workflow.StatusApproved, workflow.ReconcileStatus(s))
	assert.Equal(t, workflow.ReconcileStatus(s), workflow.ReconcileStatus(s))
}

func TestReconcileStatus_Totality(t *testing.T) {
	domains := append([]workflow.Domain{"", "PAYROLL"}, workflow.Domains...)
	lifecycles := []string{"", "P", "A", "R", "N", "OPEN", "PARTIAL", "CLOSED", "CANCELLED", "garbage"}

	for _, d := range domains {
		for _, lc := range lifecycles {
			for _, next := range []int{-1, 0, 3} {
				s := transSnapshot(d, lc, next)
				got := workflow.ReconcileStatus(s)
				assert.True(t, got.IsValid(), "domain=%s lifecycle=%q next=%d gave %q", d, lc, next, got)
			}
		}
	}
}

func TestReconcileStatus_UnknownDomainIsNew(t *testing.T) {
	s := transSnapshot("PAYROLL", "A", 0)
	assert.Equal(t, workflow.StatusNew, workflow.ReconcileStatus(s))
}

// =============================================================================
// REVERSE MAPPING
// =============================================================================

func TestReverseMapStatus(t *testing.T) {
	assert.Equal(t, "CANCELLED", workflow.ReverseMapStatus(workflow.DomainLabor, workflow.StatusRejected))
	assert.Equal(t, "R", workflow.ReverseMapStatus(workflow.DomainLeave, workflow.StatusRejected))
	assert.Equal(t, "R", workflow.ReverseMapStatus(workflow.DomainLoan, workflow.StatusRejected))

	for _, c := range []workflow.CanonicalStatus{workflow.StatusApproved, workflow.StatusInProcess, workflow.StatusNew} {
		assert.Equal(t, "OPEN", workflow.ReverseMapStatus(workflow.DomainLabor, c))
		assert.Equal(t, "P", workflow.ReverseMapStatus(workflow.DomainLeave, c))
		assert.Equal(t, "P", workflow.ReverseMapStatus(workflow.DomainLoan, c))
	}

	assert.Empty(t, workflow.ReverseMapStatus("PAYROLL", workflow.StatusRejected))
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseDomain(t *testing.T) {
	for in, want := range map[string]workflow.Domain{
		"leave":          workflow.DomainLeave,
		"LEAVES":         workflow.DomainLeave,
		"loans":          workflow.DomainLoan,
		"labor-requests": workflow.DomainLabor,
		" Labor ":        workflow.DomainLabor,
	} {
		got, err := workflow.ParseDomain(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := workflow.ParseDomain("payroll")
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrUnknownDomain)
	assert.True(t, workflow.IsClientError(err))
}

func TestParseStepStatus_UnknownIsFuture(t *testing.T) {
	assert.Equal(t, workflow.StepCompleted, workflow.ParseStepStatus("approved"))
	assert.Equal(t, workflow.StepPending, workflow.ParseStepStatus(" pending "))
	assert.Equal(t, workflow.StepSkipped, workflow.ParseStepStatus("SKIPPED"))
	assert.Equal(t, workflow.StepFuture, workflow.ParseStepStatus("escalated"))
	assert.Equal(t, workflow.StepFuture, workflow.ParseStepStatus(""))
}

func TestParseCanonicalStatus(t *testing.T) {
	got, err := workflow.ParseCanonicalStatus("inprocess")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProcess, got)

	_, err = workflow.ParseCanonicalStatus("DRAFT")
	assert.ErrorIs(t, err, workflow.ErrUnknownStatus)
}
