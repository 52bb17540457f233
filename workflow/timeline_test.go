package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/approval-engine/workflow"
)

func step(level int, status workflow.StepStatus) workflow.ApprovalStep {
	return workflow.ApprovalStep{
		Level:        level,
		LevelName:    "",
		ApproverID:   int64(100 + level),
		ApproverName: "",
		Status:       status,
	}
}

func statuses(v workflow.TimelineView) []workflow.StepStatus {
	out := make([]workflow.StepStatus, len(v.Steps))
	for i, s := range v.Steps {
		out[i] = s.Status
	}
	return out
}

// =============================================================================
// DETAILED MODE
// =============================================================================

func TestSynthesize_Detailed_LengthAndBookends(t *testing.T) {
	in := workflow.TimelineInput{
		Status:      workflow.StatusInProcess,
		RequestDate: march10,
		Steps:       []workflow.ApprovalStep{step(1, workflow.StepCompleted), step(2, workflow.StepPending)},
	}

	v := workflow.Synthesize(in, workflow.DefaultLabels())

	require.Len(t, v.Steps, 4)
	assert.False(t, v.Degraded)
	assert.Equal(t, workflow.KindSubmitted, v.Steps[0].Kind)
	assert.Equal(t, workflow.StepCompleted, v.Steps[0].Status)
	assert.Equal(t, march10, *v.Steps[0].Date)
	assert.Equal(t, workflow.KindFinal, v.Steps[3].Kind)
	assert.Equal(t, workflow.StepFuture, v.Steps[3].Status)
	assert.Equal(t, 2, v.ActiveStepIndex, "first pending level")
}

func TestSynthesize_Detailed_SortsByLevel(t *testing.T) {
	in := workflow.TimelineInput{
		Status: workflow.StatusInProcess,
		Steps: []workflow.ApprovalStep{
			step(3, workflow.StepFuture),
			step(1, workflow.StepCompleted),
			step(2, workflow.StepPending),
		},
	}

	v := workflow.Synthesize(in, workflow.DefaultLabels())

	assert.Equal(t, []int{0, 1, 2, 3, 0}, []int{v.Steps[0].Level, v.Steps[1].Level, v.Steps[2].Level, v.Steps[3].Level, v.Steps[4].Level})
	assert.Equal(t, "Level 2", v.Steps[2].Label)
	assert.Equal(t, "user #102", v.Steps[2].Approver)
	assert.Equal(t, workflow.StepFuture, in.Steps[0].Status, "input untouched")
	assert.Equal(t, 3, in.Steps[0].Level)
}

func TestSynthesize_Detailed_AllResolved(t *testing.T) {
	in := workflow.TimelineInput{
		Status:       workflow.StatusApproved,
		ApprovedDate: timePtr(march10),
		Steps: []workflow.ApprovalStep{
			step(1, workflow.StepCompleted),
			step(2, workflow.StepSkipped),
			step(3, workflow.StepCompleted),
		},
	}

	v := workflow.Synthesize(in, workflow.DefaultLabels())

	assert.Equal(t, len(v.Steps), v.ActiveStepIndex, "skipped counts as resolved")
	assert.True(t, v.Steps[2].Skipped)
	final := v.Steps[len(v.Steps)-1]
	assert.Equal(t, workflow.StepCompleted, final.Status)
	assert.False(t, final.Error)
	assert.Equal(t, "Approved", final.Label)
	assert.Equal(t, march10, *final.Date)
}

func TestSynthesize_Detailed_RejectedMidLevel(t *testing.T) {
	// GIVEN: Level 2 of 3 rejected the request
	steps := []workflow.ApprovalStep{
		step(1, workflow.StepCompleted),
		step(2, workflow.StepRejected),
		step(3, workflow.StepFuture),
	}

	// WHEN: The overall status is REJECTED
	v := workflow.Synthesize(workflow.TimelineInput{Status: workflow.StatusRejected, Steps: steps}, workflow.DefaultLabels())

	// THEN: The level renders REJECTED, progress halts there, final step flags the error
	assert.Equal(t, []workflow.StepStatus{
		workflow.StepCompleted, workflow.StepCompleted, workflow.StepRejected, workflow.StepFuture, workflow.StepCompleted,
	}, statuses(v))
	assert.Equal(t, 2, v.ActiveStepIndex)
	assert.True(t, v.Steps[2].Error)
	assert.True(t, v.Steps[4].Error)

	// AND: When the overall status disagrees, the final step carries no error
	v = workflow.Synthesize(workflow.TimelineInput{Status: workflow.StatusInProcess, Steps: steps}, workflow.DefaultLabels())
	assert.Equal(t, 2, v.ActiveStepIndex)
	assert.False(t, v.Steps[4].Error)
	assert.Equal(t, workflow.StepFuture, v.Steps[4].Status)
}

func TestSynthesize_Detailed_MalformedStepDefaults(t *testing.T) {
	in := workflow.TimelineInput{
		Status: workflow.StatusNew,
		Steps:  []workflow.ApprovalStep{{Level: 1}},
	}

	v := workflow.Synthesize(in, workflow.Labels{})

	require.Len(t, v.Steps, 3)
	assert.Equal(t, workflow.StepFuture, v.Steps[1].Status)
	assert.Empty(t, v.Steps[1].Approver, "no id, no name")
	assert.Equal(t, "Submitted", v.Steps[0].Label, "empty labels fall back to English")
	assert.Equal(t, 1, v.ActiveStepIndex)
}

// =============================================================================
// DEGRADED MODE
// =============================================================================

func TestSynthesize_DegradedIndex(t *testing.T) {
	tests := []struct {
		status    workflow.CanonicalStatus
		nextLevel int
		want      int
	}{
		{workflow.StatusNew, 0, 0},
		{workflow.StatusNew, 2, 1},
		{workflow.StatusInProcess, 0, 1},
		{workflow.StatusApproved, 0, 2},
		{workflow.StatusRejected, 3, 2},
		{workflow.StatusCompleted, 0, 2},
		{"BOGUS", 0, 0},
	}

	for _, tt := range tests {
		v := workflow.Synthesize(workflow.TimelineInput{Status: tt.status, NextLevel: tt.nextLevel}, workflow.DefaultLabels())
		assert.True(t, v.Degraded)
		require.Len(t, v.Steps, 3)
		assert.Equal(t, tt.want, v.ActiveStepIndex, "status=%s next=%d", tt.status, tt.nextLevel)
	}
}

func TestSynthesize_DegradedRejectedFlagsFinal(t *testing.T) {
	v := workflow.Synthesize(workflow.TimelineInput{Status: workflow.StatusRejected}, workflow.DefaultLabels())

	assert.Equal(t, []workflow.StepStatus{workflow.StepCompleted, workflow.StepCompleted, workflow.StepCompleted}, statuses(v))
	assert.True(t, v.Steps[2].Error)
	assert.Equal(t, "Rejected", v.Steps[2].Label)
}

func TestSynthesize_ModeAgreement_LoanInProgress(t *testing.T) {
	// GIVEN: A LOAN snapshot {transStatus: 'P', nextAppLevel: 2}
	s := transSnapshot(workflow.DomainLoan, "P", 2)

	// WHEN: Reconciling and synthesizing without detailed steps
	status := workflow.ReconcileStatus(s)
	v := workflow.Synthesize(workflow.TimelineInputFor(s, nil), workflow.DefaultLabels())

	// THEN: Both say "in progress"
	assert.Equal(t, workflow.StatusInProcess, status)
	assert.Equal(t, 1, v.ActiveStepIndex)
}

func TestSynthesize_LeaveNewNoNextLevel(t *testing.T) {
	s := transSnapshot(workflow.DomainLeave, "N", 0)

	assert.Equal(t, workflow.StatusNew, workflow.ReconcileStatus(s))
	v := workflow.Synthesize(workflow.TimelineInputFor(s, nil), workflow.DefaultLabels())
	assert.Equal(t, 0, v.ActiveStepIndex)
}

func TestDegradedView_Advisory(t *testing.T) {
	in := workflow.TimelineInput{Status: workflow.StatusInProcess, Steps: []workflow.ApprovalStep{step(1, workflow.StepPending)}}

	v := workflow.DegradedView(in, workflow.DefaultLabels())

	assert.True(t, v.Degraded)
	assert.Len(t, v.Steps, 3, "steps are ignored in degraded mode")
	assert.Equal(t, "detailed history unavailable, showing summary", v.Advisory)
}

// =============================================================================
// BOUNDS
// =============================================================================

func TestSynthesize_ActiveIndexBounds(t *testing.T) {
	all := []workflow.StepStatus{
		workflow.StepCompleted, workflow.StepPending, workflow.StepFuture, workflow.StepRejected, workflow.StepSkipped, "",
	}
	canon := []workflow.CanonicalStatus{
		workflow.StatusNew, workflow.StatusInProcess, workflow.StatusApproved, workflow.StatusRejected, workflow.StatusCompleted,
	}

	for _, c := range canon {
		for _, a := range all {
			for _, b := range all {
				for _, steps := range [][]workflow.ApprovalStep{nil, {step(1, a)}, {step(2, b), step(1, a)}} {
					v := workflow.Synthesize(workflow.TimelineInput{Status: c, NextLevel: 1, Steps: steps}, workflow.DefaultLabels())
					assert.GreaterOrEqual(t, v.ActiveStepIndex, 0)
					assert.LessOrEqual(t, v.ActiveStepIndex, len(v.Steps))
					if len(steps) > 0 {
						assert.Len(t, v.Steps, len(steps)+2)
					}
				}
			}
		}
	}
}

func TestLabels_TemplateWithoutVerb(t *testing.T) {
	labels := workflow.DefaultLabels()
	labels.UnknownApprover = "utilisateur"

	v := workflow.Synthesize(workflow.TimelineInput{Steps: []workflow.ApprovalStep{step(1, workflow.StepPending)}}, labels)

	assert.Equal(t, "utilisateur 101", v.Steps[1].Approver)
}
