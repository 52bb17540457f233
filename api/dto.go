/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures returned to the dashboard. These types decouple
  the workflow types from the wire contract the UI tables and stepper bind to.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Requests:  RequestRowDTO, RequestListResponse, RequestDetailDTO
  Timeline:  TimelineDTO, TimelineStepDTO
  Statuses:  ReverseStatusDTO
  Scenarios: ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/approval-engine/workflow"
)

// =============================================================================
// REQUEST LIST
// =============================================================================

// RequestRowDTO is one flattened list row.
type RequestRowDTO struct {
	Key            string  `json:"key"`
	Domain         string  `json:"domain"`
	RequestID      int64   `json:"request_id"`
	EmployeeID     int64   `json:"employee_id"`
	RequestDate    string  `json:"request_date,omitempty"`
	Status         string  `json:"status"`
	Lifecycle      string  `json:"lifecycle"`
	ApprovedBy     *int64  `json:"approved_by,omitempty"`
	ApprovedAt     *string `json:"approved_at,omitempty"`
	NextLevel      int     `json:"next_level"`
	LineSeq        int     `json:"line_seq"`
	Specialization string  `json:"specialization"`
	Quantity       int     `json:"quantity"`
	DailyRate      string  `json:"daily_rate"`
	Total          string  `json:"total"`
	Remarks        string  `json:"remarks,omitempty"`
}

// RequestListResponse is a page of flattened rows.
type RequestListResponse struct {
	Items []RequestRowDTO `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// RequestDetailDTO is one request with its rows.
type RequestDetailDTO struct {
	Domain    string          `json:"domain"`
	RequestID int64           `json:"request_id"`
	Status    string          `json:"status"`
	Rows      []RequestRowDTO `json:"rows"`
}

// =============================================================================
// TIMELINE
// =============================================================================

// TimelineStepDTO is one stepper entry.
type TimelineStepDTO struct {
	Kind     string  `json:"kind"`
	Level    int     `json:"level,omitempty"`
	Label    string  `json:"label"`
	Approver string  `json:"approver,omitempty"`
	Status   string  `json:"status"`
	Date     *string `json:"date,omitempty"`
	Comment  string  `json:"comment,omitempty"`
	Error    bool    `json:"error"`
	Skipped  bool    `json:"skipped"`
}

// TimelineDTO is the stepper payload.
type TimelineDTO struct {
	Domain          string            `json:"domain"`
	RequestID       int64             `json:"request_id"`
	Status          string            `json:"status"`
	Steps           []TimelineStepDTO `json:"steps"`
	ActiveStepIndex int               `json:"active_step_index"`
	Degraded        bool              `json:"degraded"`
	Advisory        string            `json:"advisory,omitempty"`
}

// ReverseStatusDTO is the backend value for a status-affecting action.
type ReverseStatusDTO struct {
	Domain string `json:"domain"`
	Status string `json:"status"`
	Value  string `json:"value"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRowDTOs(rows []workflow.FlattenedRequestRow) []RequestRowDTO {
	dtos := make([]RequestRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = RequestRowDTO{
			Key:            r.Key,
			Domain:         string(r.Domain),
			RequestID:      r.RequestID,
			EmployeeID:     r.EmployeeID,
			RequestDate:    formatDate(r.RequestDate),
			Status:         string(r.Status),
			Lifecycle:      r.Lifecycle,
			ApprovedBy:     r.ApprovedBy,
			ApprovedAt:     formatTimePtr(r.ApprovedAt),
			NextLevel:      r.NextLevel,
			LineSeq:        r.LineSeq,
			Specialization: r.Specialization,
			Quantity:       r.Quantity,
			DailyRate:      r.DailyRate.StringFixed(2),
			Total:          r.RowTotal().StringFixed(2),
			Remarks:        r.Remarks,
		}
	}
	return dtos
}

func toTimelineDTO(s workflow.RequestSnapshot, v workflow.TimelineView) TimelineDTO {
	steps := make([]TimelineStepDTO, len(v.Steps))
	for i, st := range v.Steps {
		steps[i] = TimelineStepDTO{
			Kind:     string(st.Kind),
			Level:    st.Level,
			Label:    st.Label,
			Approver: st.Approver,
			Status:   string(st.Status),
			Date:     formatTimePtr(st.Date),
			Comment:  st.Comment,
			Error:    st.Error,
			Skipped:  st.Skipped,
		}
	}
	return TimelineDTO{
		Domain:          string(s.Domain),
		RequestID:       s.ID,
		Status:          string(workflow.ReconcileStatus(s)),
		Steps:           steps,
		ActiveStepIndex: v.ActiveStepIndex,
		Degraded:        v.Degraded,
		Advisory:        v.Advisory,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
