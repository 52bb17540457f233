/*
Package adapter normalizes raw backend payloads into workflow snapshots.

PURPOSE:
  The backend returns a differently shaped record per domain. Leave and loan
  requests carry a transaction flag and a "next approval" pointer; labor
  requests carry a request status and an array of detail lines. Each domain
  gets its own payload type and one adapter that maps it into
  workflow.RequestSnapshot before any rule runs.

JSON SCHEMA (leave):
  {
    "leaveId": 41, "employeeId": 7, "requestDate": "2025-03-10",
    "transStatus": "P", "approvedBy": null, "approvedDate": null,
    "nextApproverId": 12, "nextAppLevel": 2, "nextLevelName": "HR"
  }

JSON SCHEMA (labor):
  {
    "requestId": 9, "requestedBy": 7, "requestDate": "2025-03-10T08:00:00",
    "requestStatus": "PARTIAL", "approvedBy": 3, "approvedAt": "...",
    "details": [{"seq": 1, "specializationName": "Mason", "quantity": 4, "dailyRate": 95.5}]
  }

MISSING SIGNALS:
  Absent or null optional fields become nil/zero. Only malformed JSON is an
  error. Unparseable timestamps are treated as absent.

SEE ALSO:
  - workflow/types.go: Target shape
  - backend/client.go: Decodes HTTP bodies through these types
  - store/sqlite/sqlite.go: Decodes replica rows through these types
*/
package adapter

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeavePayload is the backend leave request.
type LeavePayload struct {
	LeaveID        int64     `json:"leaveId"`
	EmployeeID     int64     `json:"employeeId"`
	RequestDate    Timestamp `json:"requestDate"`
	TransStatus    string    `json:"transStatus"`
	ApprovedBy     *int64    `json:"approvedBy,omitempty"`
	ApprovedDate   Timestamp `json:"approvedDate"`
	NextApproverID *int64    `json:"nextApproverId,omitempty"`
	NextAppLevel   *int      `json:"nextAppLevel,omitempty"`
	NextLevelName  string    `json:"nextLevelName,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// LoanPayload is the backend loan request.
type LoanPayload struct {
	LoanID         int64     `json:"loanId"`
	EmployeeID     int64     `json:"employeeId"`
	RequestDate    Timestamp `json:"requestDate"`
	TransStatus    string    `json:"transStatus"`
	ApprovedBy     *int64    `json:"approvedBy,omitempty"`
	ApprovedDate   Timestamp `json:"approvedDate"`
	NextApproverID *int64    `json:"nextApproverId,omitempty"`
	NextAppLevel   *int      `json:"nextAppLevel,omitempty"`
	NextLevelName  string    `json:"nextLevelName,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`
}

// LaborPayload is the backend temporary-labor request.
type LaborPayload struct {
	RequestID     int64                `json:"requestId"`
	RequestedBy   int64                `json:"requestedBy"`
	RequestDate   Timestamp            `json:"requestDate"`
	RequestStatus string               `json:"requestStatus"`
	ApprovedBy    *int64               `json:"approvedBy,omitempty"`
	ApprovedAt    Timestamp            `json:"approvedAt"`
	Details       []LaborDetailPayload `json:"details"`
	Notes         string               `json:"notes,omitempty"`
}

// LaborDetailPayload is one line of a labor request.
type LaborDetailPayload struct {
	Seq                int                 `json:"seq"`
	SpecializationName string              `json:"specializationName"`
	Quantity           int                 `json:"quantity"`
	DailyRate          decimal.NullDecimal `json:"dailyRate"`
}

// StepPayload is one level of a request's approval history.
type StepPayload struct {
	Level        int       `json:"level"`
	LevelName    string    `json:"levelName"`
	ApproverID   int64     `json:"approverId"`
	ApproverName string    `json:"approverName"`
	Status       string    `json:"status"`
	ActedAt      Timestamp `json:"actedAt"`
	Comment      string    `json:"comment,omitempty"`
}

// PagePayload is the paginated envelope of list endpoints.
type PagePayload[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	Page          int `json:"page"`
	Size          int `json:"size"`
}
