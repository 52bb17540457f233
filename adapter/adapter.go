package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/approval-engine/workflow"
	"go.uber.org/zap"
)

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter converts backend JSON into workflow snapshots.
type Adapter struct {
	Logger *zap.Logger
}

// New creates a new adapter that discards skip warnings until Logger is set.
func New() *Adapter {
	return &Adapter{Logger: zap.NewNop()}
}

// ParseSnapshot decodes one backend record of the given domain.
func (a *Adapter) ParseSnapshot(d workflow.Domain, raw []byte) (workflow.RequestSnapshot, error) {
	switch d {
	case workflow.DomainLeave:
		var p LeavePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return workflow.RequestSnapshot{}, fmt.Errorf("failed to parse leave payload: %w", err)
		}
		return a.FromLeave(p), nil
	case workflow.DomainLoan:
		var p LoanPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return workflow.RequestSnapshot{}, fmt.Errorf("failed to parse loan payload: %w", err)
		}
		return a.FromLoan(p), nil
	case workflow.DomainLabor:
		var p LaborPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return workflow.RequestSnapshot{}, fmt.Errorf("failed to parse labor payload: %w", err)
		}
		return a.FromLabor(p), nil
	}
	return workflow.RequestSnapshot{}, &workflow.UnknownDomainError{Value: string(d)}
}

// ParseSnapshots decodes a JSON array of backend records. Items that do not
// decode are skipped and logged; only a malformed array is an error.
func (a *Adapter) ParseSnapshots(d workflow.Domain, raw []byte) ([]workflow.RequestSnapshot, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s list: %w", d, err)
	}
	return a.fromRaw(d, items)
}

// ParsePage decodes a paginated list envelope. Undecodable items are skipped
// as in ParseSnapshots; Total still reports the backend's count.
func (a *Adapter) ParsePage(d workflow.Domain, raw []byte) (workflow.Page, error) {
	var env PagePayload[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return workflow.Page{}, fmt.Errorf("failed to parse %s page: %w", d, err)
	}
	items, err := a.fromRaw(d, env.Content)
	if err != nil {
		return workflow.Page{}, err
	}
	return workflow.Page{Items: items, Total: env.TotalElements, Page: env.Page, Size: env.Size}, nil
}

// ParseSteps decodes a timeline response.
func (a *Adapter) ParseSteps(raw []byte) ([]workflow.ApprovalStep, error) {
	var payloads []StepPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse timeline: %w", err)
	}
	return a.FromSteps(payloads), nil
}

func (a *Adapter) fromRaw(d workflow.Domain, items []json.RawMessage) ([]workflow.RequestSnapshot, error) {
	if !d.IsValid() {
		return nil, &workflow.UnknownDomainError{Value: string(d)}
	}

	out := make([]workflow.RequestSnapshot, 0, len(items))
	for i, item := range items {
		s, err := a.ParseSnapshot(d, item)
		if err != nil {
			a.Logger.Warn("skipping undecodable backend item",
				zap.String("domain", string(d)),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// PER-DOMAIN MAPPING
// =============================================================================

// FromLeave maps a leave payload.
func (a *Adapter) FromLeave(p LeavePayload) workflow.RequestSnapshot {
	return workflow.RequestSnapshot{
		Domain:      workflow.DomainLeave,
		ID:          p.LeaveID,
		EmployeeID:  p.EmployeeID,
		RequestDate: p.RequestDate.Time,
		Lifecycle:   p.TransStatus,
		ApprovedBy:  p.ApprovedBy,
		ApprovedAt:  p.ApprovedDate.Ptr(),
		Next:        nextApproval(p.NextApproverID, p.NextAppLevel, p.NextLevelName),
		Remarks:     p.Reason,
	}
}

// FromLoan maps a loan payload.
func (a *Adapter) FromLoan(p LoanPayload) workflow.RequestSnapshot {
	return workflow.RequestSnapshot{
		Domain:      workflow.DomainLoan,
		ID:          p.LoanID,
		EmployeeID:  p.EmployeeID,
		RequestDate: p.RequestDate.Time,
		Lifecycle:   p.TransStatus,
		ApprovedBy:  p.ApprovedBy,
		ApprovedAt:  p.ApprovedDate.Ptr(),
		Next:        nextApproval(p.NextApproverID, p.NextAppLevel, p.NextLevelName),
		Remarks:     p.Purpose,
	}
}

// FromLabor maps a labor payload. A null details array maps to no lines.
func (a *Adapter) FromLabor(p LaborPayload) workflow.RequestSnapshot {
	var lines []workflow.DetailLine
	for _, d := range p.Details {
		rate := decimal.Zero
		if d.DailyRate.Valid {
			rate = d.DailyRate.Decimal
		}
		lines = append(lines, workflow.DetailLine{
			Seq:            d.Seq,
			Specialization: d.SpecializationName,
			Quantity:       d.Quantity,
			DailyRate:      rate,
		})
	}

	return workflow.RequestSnapshot{
		Domain:      workflow.DomainLabor,
		ID:          p.RequestID,
		EmployeeID:  p.RequestedBy,
		RequestDate: p.RequestDate.Time,
		Lifecycle:   p.RequestStatus,
		ApprovedBy:  p.ApprovedBy,
		ApprovedAt:  p.ApprovedAt.Ptr(),
		Details:     lines,
		Remarks:     p.Notes,
	}
}

// FromSteps maps timeline payloads. Order is left to the synthesizer.
func (a *Adapter) FromSteps(payloads []StepPayload) []workflow.ApprovalStep {
	steps := make([]workflow.ApprovalStep, 0, len(payloads))
	for _, p := range payloads {
		steps = append(steps, workflow.ApprovalStep{
			Level:        p.Level,
			LevelName:    p.LevelName,
			ApproverID:   p.ApproverID,
			ApproverName: p.ApproverName,
			Status:       workflow.ParseStepStatus(p.Status),
			ActedAt:      p.ActedAt.Ptr(),
			Comment:      p.Comment,
		})
	}
	return steps
}

// nextApproval returns nil when the backend sent no pointer at all.
func nextApproval(approverID *int64, level *int, name string) *workflow.NextApproval {
	if approverID == nil && level == nil && name == "" {
		return nil
	}
	next := &workflow.NextApproval{LevelName: name}
	if approverID != nil {
		next.ApproverID = *approverID
	}
	if level != nil {
		next.Level = *level
	}
	return next
}
