/*
handlers.go - HTTP API handlers for the approval views

PURPOSE:
  Exposes the reconciler and timeline synthesizer to the dashboard. Handles
  HTTP request/response and JSON serialization, and delegates to the workflow
  package. Handlers never compute status themselves.

ENDPOINTS:
  Requests:
    GET    /api/{domain}/requests               Flattened rows with canonical status
    GET    /api/{domain}/requests/{id}          One request with its rows
    GET    /api/{domain}/requests/{id}/timeline Approval timeline

  Statuses:
    GET    /api/statuses/reverse                Canonical status to backend value

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario into the replica

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Source: Snapshot and timeline collaborator (backend or replica)
  - Loader: Latest-wins timeline fetching keyed by viewer
  - I18n:   Label bundle, locale chosen per request
  - Replica: Optional SQLite store, required by the scenario endpoints

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Unknown domain or status, bad pagination
  - 404: Request not found
  - 409: Timeline fetch superseded by a newer one from the same viewer
  - 502: List or detail fetch from the backend failed
  - 500: Internal errors

  A failed timeline fetch is not an error: the degraded view is returned
  with an advisory message.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/approval-engine/i18n"
	"github.com/warp/approval-engine/store/sqlite"
	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
)

// ViewerHeader identifies the dashboard session a timeline load belongs to.
const ViewerHeader = "X-Viewer-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Source  workflow.Source
	Loader  *workflow.TimelineLoader
	I18n    *i18n.Bundle
	Replica *sqlite.Store // nil unless serving from the replica
	Logger  *zap.Logger

	// scenarioMu serializes scenario loads and guards currentScenario.
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over the given source. replica may be nil.
func NewHandler(src workflow.Source, bundle *i18n.Bundle, replica *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Source:  src,
		Loader:  workflow.NewTimelineLoader(src, logger.Named("timeline")),
		I18n:    bundle,
		Replica: replica,
		Logger:  logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListRequests returns one backend page flattened into rows. The status
// filter applies to the rows of that page.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}

	q, err := pageQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pagination", err)
		return
	}

	statuses, err := statusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status filter", err)
		return
	}

	page, err := h.Source.ListRequests(r.Context(), d, q)
	if err != nil {
		h.fetchFailed(w, r, "Failed to list requests", err)
		return
	}

	rows := workflow.FilterByStatus(workflow.FlattenRequests(page.Items), statuses...)
	writeJSON(w, http.StatusOK, RequestListResponse{
		Items: toRowDTOs(rows),
		Total: page.Total,
		Page:  page.Page,
		Size:  page.Size,
	})
}

// GetRequest returns one request with its flattened rows.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	snap, err := h.Source.FindRequest(r.Context(), d, id)
	if err != nil {
		h.fetchFailed(w, r, "Failed to get request", err)
		return
	}

	writeJSON(w, http.StatusOK, RequestDetailDTO{
		Domain:    string(snap.Domain),
		RequestID: snap.ID,
		Status:    string(workflow.ReconcileStatus(snap)),
		Rows:      toRowDTOs(workflow.FlattenRequests([]workflow.RequestSnapshot{snap})),
	})
}

// GetTimeline returns the approval timeline of one request, degraded when
// the detailed steps cannot be fetched.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	d, ok := h.domainParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	snap, err := h.Source.FindRequest(ctx, d, id)
	if err != nil {
		h.fetchFailed(w, r, "Failed to get request", err)
		return
	}

	// View falls back to the degraded view itself; it only fails when superseded.
	view, err := h.Loader.View(ctx, viewerKey(r), snap, h.labels(r))
	if err != nil {
		writeError(w, http.StatusConflict, "Superseded by a newer timeline request", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimelineDTO(snap, view))
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

// ReverseStatus maps a canonical status to the value a status-affecting
// backend call must send for the domain.
func (h *Handler) ReverseStatus(w http.ResponseWriter, r *http.Request) {
	d, err := workflow.ParseDomain(r.URL.Query().Get("domain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid domain", err)
		return
	}
	c, err := workflow.ParseCanonicalStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}

	writeJSON(w, http.StatusOK, ReverseStatusDTO{
		Domain: string(d),
		Status: string(c),
		Value:  workflow.ReverseMapStatus(d, c),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) domainParam(w http.ResponseWriter, r *http.Request) (workflow.Domain, bool) {
	d, err := workflow.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid domain", err)
		return "", false
	}
	return d, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid request id", err)
		return 0, false
	}
	return id, true
}

func pageQuery(r *http.Request) (workflow.PageQuery, error) {
	var q workflow.PageQuery
	var err error
	if v := r.URL.Query().Get("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil {
			return q, err
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if q.Size, err = strconv.Atoi(v); err != nil {
			return q, err
		}
	}
	return q.Normalize(), nil
}

// statusFilter parses a comma-separated list of canonical statuses.
func statusFilter(raw string) ([]workflow.CanonicalStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []workflow.CanonicalStatus
	for _, part := range strings.Split(raw, ",") {
		c, err := workflow.ParseCanonicalStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// viewerKey falls back to the request id so anonymous callers never
// supersede each other.
func viewerKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(ViewerHeader)); v != "" {
		return v
	}
	return "anonymous-" + middleware.GetReqID(r.Context())
}

// labels picks the locale from ?lang= first, then Accept-Language.
func (h *Handler) labels(r *http.Request) workflow.Labels {
	if h.I18n == nil {
		return workflow.DefaultLabels()
	}
	return h.I18n.Labels(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

func (h *Handler) fetchFailed(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case workflow.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Request not found", err)
	case workflow.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case workflow.IsFetchFailure(err):
		h.Logger.Warn(message,
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusBadGateway, message, err)
	default:
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
