package adapter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/approval-engine/adapter"
	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseSnapshot_Loan(t *testing.T) {
	raw := `{"loanId": 12, "employeeId": 7, "requestDate": "2025-03-10",
		"transStatus": "P", "approvedBy": null, "nextAppLevel": 2, "nextApproverId": 44, "nextLevelName": "Finance"}`

	s, err := adapter.New().ParseSnapshot(workflow.DomainLoan, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, workflow.DomainLoan, s.Domain)
	assert.Equal(t, int64(12), s.ID)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), s.RequestDate)
	assert.Nil(t, s.ApprovedBy)
	assert.Nil(t, s.ApprovedAt)
	require.NotNil(t, s.Next)
	assert.Equal(t, 2, s.Next.Level)
	assert.Equal(t, int64(44), s.Next.ApproverID)
	assert.Equal(t, workflow.StatusInProcess, workflow.ReconcileStatus(s))
}

func TestParseSnapshot_LeaveMissingOptionalFields(t *testing.T) {
	s, err := adapter.New().ParseSnapshot(workflow.DomainLeave, []byte(`{"leaveId": 3, "transStatus": "N"}`))
	require.NoError(t, err)

	assert.Nil(t, s.Next)
	assert.Equal(t, 0, s.NextLevel())
	assert.True(t, s.RequestDate.IsZero())
	assert.Equal(t, workflow.StatusNew, workflow.ReconcileStatus(s))
}

func TestParseSnapshot_LaborPartialWithoutApprover(t *testing.T) {
	raw := `{"requestId": 9, "requestedBy": 7, "requestStatus": "PARTIAL", "approvedBy": null,
		"requestDate": "2025-03-10T08:00:00",
		"details": [
			{"seq": 2, "specializationName": "Carpenter", "quantity": 1, "dailyRate": "120.00"},
			{"seq": 1, "specializationName": "Mason", "quantity": 4, "dailyRate": 95.5},
			{"seq": 3, "specializationName": "Helper", "quantity": 2, "dailyRate": null}
		]}`

	s, err := adapter.New().ParseSnapshot(workflow.DomainLabor, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusApproved, workflow.ReconcileStatus(s))
	require.Len(t, s.Details, 3)
	assert.Equal(t, "95.5", s.Details[1].DailyRate.String())
	assert.True(t, s.Details[2].DailyRate.IsZero())
	assert.Equal(t, 8, s.RequestDate.Hour())

	rows := workflow.FlattenRequests([]workflow.RequestSnapshot{s})
	require.Len(t, rows, 3)
	assert.Equal(t, "Mason", rows[0].Specialization)
	assert.Equal(t, "382", rows[0].RowTotal().String())
}

func TestParseSnapshot_LaborNullDetails(t *testing.T) {
	s, err := adapter.New().ParseSnapshot(workflow.DomainLabor,
		[]byte(`{"requestId": 1, "requestStatus": "OPEN", "details": null}`))
	require.NoError(t, err)

	assert.Empty(t, s.Details)
	assert.Len(t, workflow.FlattenRequests([]workflow.RequestSnapshot{s}), 1)
}

func TestParseSnapshot_Errors(t *testing.T) {
	a := adapter.New()

	_, err := a.ParseSnapshot(workflow.DomainLeave, []byte(`{not json`))
	assert.Error(t, err)

	_, err = a.ParseSnapshot("PAYROLL", []byte(`{}`))
	assert.ErrorIs(t, err, workflow.ErrUnknownDomain)
}

func TestParsePage(t *testing.T) {
	raw := `{"content": [{"leaveId": 1, "transStatus": "A"}, {"leaveId": 2, "transStatus": "R"}],
		"totalElements": 14, "page": 3, "size": 2}`

	page, err := adapter.New().ParsePage(workflow.DomainLeave, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 14, page.Total)
	assert.Equal(t, 3, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, workflow.StatusRejected, workflow.ReconcileStatus(page.Items[1]))
}

func TestParsePage_SkipsMistypedItems(t *testing.T) {
	// GIVEN a page where two items carry numbers the backend sent as the wrong type
	raw := `{"content": [
		{"leaveId": 1, "transStatus": "A"},
		{"leaveId": 2, "transStatus": "P", "nextAppLevel": 2.5},
		{"leaveId": "3", "transStatus": "P"},
		{"leaveId": 4, "transStatus": "R"}
	], "totalElements": 4, "page": 0, "size": 4}`

	core, logs := observer.New(zapcore.WarnLevel)
	a := adapter.New()
	a.Logger = zap.New(core)

	// WHEN the page is parsed
	page, err := a.ParsePage(workflow.DomainLeave, []byte(raw))

	// THEN the good items survive and each bad one is logged
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1), page.Items[0].ID)
	assert.Equal(t, int64(4), page.Items[1].ID)

	skipped := logs.FilterMessage("skipping undecodable backend item").All()
	require.Len(t, skipped, 2)
	assert.Equal(t, int64(1), skipped[0].ContextMap()["index"])
	assert.Equal(t, int64(2), skipped[1].ContextMap()["index"])
}

func TestParseSnapshots_SkipsMistypedLaborLine(t *testing.T) {
	raw := `[
		{"requestId": 10, "requestStatus": "OPEN",
		 "details": [{"seq": 1, "specializationName": "Welder", "quantity": "3", "dailyRate": 100}]},
		{"requestId": 11, "requestStatus": "OPEN",
		 "details": [{"seq": 1, "specializationName": "Mason", "quantity": 3, "dailyRate": 100}]}
	]`

	snaps, err := adapter.New().ParseSnapshots(workflow.DomainLabor, []byte(raw))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(11), snaps[0].ID)

	_, err = adapter.New().ParseSnapshots(workflow.DomainLabor, []byte(`{"content": []}`))
	assert.Error(t, err, "a non-array body is still an error")
}

func TestParseSteps(t *testing.T) {
	raw := `[
		{"level": 2, "levelName": "HR", "approverId": 5, "status": "pending"},
		{"level": 1, "levelName": "Manager", "approverId": 4, "approverName": "Dana",
		 "status": "APPROVED", "actedAt": "2025-03-11T10:00:00Z"},
		{"level": 3, "status": "escalated", "actedAt": "yesterday"}
	]`

	steps, err := adapter.New().ParseSteps([]byte(raw))
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, workflow.StepPending, steps[0].Status)
	assert.Equal(t, workflow.StepCompleted, steps[1].Status)
	require.NotNil(t, steps[1].ActedAt)
	assert.Equal(t, 11, steps[1].ActedAt.Day())
	assert.Equal(t, workflow.StepFuture, steps[2].Status)
	assert.Nil(t, steps[2].ActedAt, "unparseable timestamp is absent")
}

func TestTimestamp_EpochMillisAndRoundTrip(t *testing.T) {
	s, err := adapter.New().ParseSnapshot(workflow.DomainLoan,
		[]byte(`{"loanId": 1, "transStatus": "A", "approvedBy": 3, "approvedDate": 1741600800000}`))
	require.NoError(t, err)

	require.NotNil(t, s.ApprovedAt)
	assert.Equal(t, 2025, s.ApprovedAt.Year())

	out, err := adapter.At(time.Time{}).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
