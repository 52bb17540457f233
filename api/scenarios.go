/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the SQLite replica with raw
	backend payloads. Each scenario exercises a specific reconciliation or
	timeline situation so the dashboard can be demoed without a backend.

AVAILABLE SCENARIOS:

	mixed-statuses:     Leaves and loans in every transaction status
	labor-lines:        Labor requests with several, one, or no detail lines
	rejected-mid-chain: A leave rejected at level 2 with a skipped level 3
	degraded-timeline:  Requests without detailed steps

HOW SCENARIOS WORK:
 1. Reset replica (clear all data)
 2. Save raw request payloads per domain
 3. Optionally save raw timeline payloads

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "labor-lines"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the replica. Only available when serving from it.

SEE ALSO:
  - handlers.go: Handler dependencies
  - store/sqlite/sqlite.go: SaveSnapshot, SaveSteps
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "mixed-statuses",
		Name:        "Mixed Statuses",
		Description: "Leaves and loans pending, in process, approved and rejected",
	},
	{
		ID:          "labor-lines",
		Name:        "Labor Lines",
		Description: "Labor requests flattened into one row per specialization line",
	},
	{
		ID:          "rejected-mid-chain",
		Name:        "Rejected Mid-Chain",
		Description: "Leave rejected at the second approval level",
	},
	{
		ID:          "degraded-timeline",
		Name:        "Degraded Timeline",
		Description: "Requests with no detailed steps, shown as a three-step progress view",
	},
}

// CurrentScenarioDTO is the loaded scenario with replica counts per domain.
type CurrentScenarioDTO struct {
	ScenarioDTO
	Counts map[string]int `json:"counts"`
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	// Counts must not observe a load in progress.
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if h.Replica == nil || h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	counts, err := h.Replica.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count replica rows", err)
		return
	}

	cur := CurrentScenarioDTO{
		ScenarioDTO: ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario},
		Counts:      make(map[string]int, len(counts)),
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			cur.ScenarioDTO = s
		}
	}
	for d, n := range counts {
		cur.Counts[string(d)] = n
	}
	writeJSON(w, http.StatusOK, cur)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.Replica == nil {
		writeError(w, http.StatusServiceUnavailable, "Scenarios require the replica source", nil)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	// Reset first
	if err := h.Replica.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset replica", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "mixed-statuses":
		err = h.loadMixedStatusesScenario(ctx)
	case "labor-lines":
		err = h.loadLaborLinesScenario(ctx)
	case "rejected-mid-chain":
		err = h.loadRejectedMidChainScenario(ctx)
	case "degraded-timeline":
		err = h.loadDegradedTimelineScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadMixedStatusesScenario(ctx context.Context) error {
	leaves := []string{
		`{"leaveId": 101, "employeeId": 7, "requestDate": "2024-03-01", "transStatus": "P", "reason": "Family visit"}`,
		`{"leaveId": 102, "employeeId": 7, "requestDate": "2024-03-04", "transStatus": "P",
		  "nextApproverId": 21, "nextAppLevel": 2, "nextLevelName": "HR Manager"}`,
		`{"leaveId": 103, "employeeId": 8, "requestDate": "2024-02-20", "transStatus": "A",
		  "approvedBy": 22, "approvedDate": "2024-02-22T09:30:00Z"}`,
		`{"leaveId": 104, "employeeId": 9, "requestDate": "2024-02-25", "transStatus": "R"}`,
	}
	loans := []string{
		`{"loanId": 201, "employeeId": 7, "requestDate": "2024-01-15", "transStatus": "A",
		  "approvedBy": 30, "approvedDate": "2024-01-20", "purpose": "Car repair"}`,
		`{"loanId": 202, "employeeId": 8, "requestDate": "2024-03-02", "transStatus": "P",
		  "nextApproverId": 31, "nextAppLevel": 1, "nextLevelName": "Finance"}`,
	}

	if err := h.saveSnapshots(ctx, workflow.DomainLeave, leaves); err != nil {
		return err
	}
	if err := h.saveSnapshots(ctx, workflow.DomainLoan, loans); err != nil {
		return err
	}

	return h.Replica.SaveSteps(ctx, workflow.DomainLeave, 102, []byte(`[
		{"level": 1, "levelName": "Team Lead", "approverId": 20, "approverName": "R. Haddad",
		 "status": "COMPLETED", "actedAt": "2024-03-05T10:00:00Z"},
		{"level": 2, "levelName": "HR Manager", "approverId": 21, "approverName": "L. Moreau", "status": "PENDING"},
		{"level": 3, "levelName": "Director", "approverId": 22, "status": "FUTURE"}
	]`))
}

func (h *Handler) loadLaborLinesScenario(ctx context.Context) error {
	requests := []string{
		`{"requestId": 301, "requestedBy": 40, "requestDate": "2024-03-10", "requestStatus": "PARTIAL",
		  "details": [
		    {"seq": 2, "specializationName": "Electrician", "quantity": 2, "dailyRate": "120.50"},
		    {"seq": 1, "specializationName": "Welder", "quantity": 1, "dailyRate": 141}
		  ]}`,
		`{"requestId": 302, "requestedBy": 41, "requestDate": "2024-03-11", "requestStatus": "OPEN",
		  "approvedBy": 50, "approvedAt": "2024-03-12T08:00:00Z",
		  "details": [{"seq": 1, "specializationName": "Plumber", "quantity": 3, "dailyRate": 95}]}`,
		`{"requestId": 303, "requestedBy": 42, "requestDate": "2024-03-12", "requestStatus": "CANCELLED",
		  "approvedBy": 50, "approvedAt": "2024-03-13T08:00:00Z",
		  "details": [{"seq": 1, "specializationName": "", "quantity": 1, "dailyRate": null}]}`,
		`{"requestId": 304, "requestedBy": 43, "requestDate": "2024-03-14", "requestStatus": "OPEN", "details": []}`,
	}
	return h.saveSnapshots(ctx, workflow.DomainLabor, requests)
}

func (h *Handler) loadRejectedMidChainScenario(ctx context.Context) error {
	leave := `{"leaveId": 111, "employeeId": 12, "requestDate": "2024-04-01", "transStatus": "R",
	  "approvedDate": "2024-04-03T15:20:00Z"}`
	if err := h.saveSnapshots(ctx, workflow.DomainLeave, []string{leave}); err != nil {
		return err
	}

	return h.Replica.SaveSteps(ctx, workflow.DomainLeave, 111, []byte(`[
		{"level": 2, "levelName": "HR Manager", "approverId": 21, "approverName": "L. Moreau",
		 "status": "REJECTED", "actedAt": "2024-04-03T15:20:00Z", "comment": "Overlaps quarter close"},
		{"level": 1, "levelName": "Team Lead", "approverId": 20, "approverName": "R. Haddad",
		 "status": "COMPLETED", "actedAt": "2024-04-02T09:00:00Z"},
		{"level": 3, "levelName": "Director", "approverId": 22, "status": "SKIPPED"}
	]`))
}

func (h *Handler) loadDegradedTimelineScenario(ctx context.Context) error {
	leaves := []string{
		`{"leaveId": 121, "employeeId": 13, "requestDate": "2024-05-01", "transStatus": "P"}`,
		`{"leaveId": 122, "employeeId": 13, "requestDate": "2024-05-02", "transStatus": "P", "nextAppLevel": 1}`,
		`{"leaveId": 123, "employeeId": 14, "requestDate": "2024-05-03", "transStatus": "A",
		  "approvedBy": 22, "approvedDate": "2024-05-06"}`,
	}
	return h.saveSnapshots(ctx, workflow.DomainLeave, leaves)
}

func (h *Handler) saveSnapshots(ctx context.Context, d workflow.Domain, payloads []string) error {
	for _, p := range payloads {
		if err := h.Replica.SaveSnapshot(ctx, d, []byte(p)); err != nil {
			return fmt.Errorf("save %s snapshot: %w", d, err)
		}
	}
	return nil
}
