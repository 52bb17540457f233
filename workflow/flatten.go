package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownSpecialization is the sentinel for rows of requests without detail lines.
const UnknownSpecialization = "unknown"

// FlattenedRequestRow is one list row: a request paired with one of its
// detail lines, or with defaulted line fields when it has none.
type FlattenedRequestRow struct {
	Key        string
	Domain     Domain
	RequestID  int64
	EmployeeID int64

	RequestDate time.Time
	ApprovedBy  *int64
	ApprovedAt  *time.Time
	NextLevel   int
	Lifecycle   string
	Status      CanonicalStatus
	Remarks     string

	LineSeq        int
	Specialization string
	Quantity       int
	DailyRate      decimal.Decimal
}

// RowTotal is the line cost: quantity times daily rate.
func (r FlattenedRequestRow) RowTotal() decimal.Decimal {
	return r.DailyRate.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// FlattenRequests expands snapshots into list rows. The result has exactly
// sum(max(1, len(details))) rows, keeps snapshot order, and orders the lines
// of one snapshot by ascending sequence number. Inputs are not mutated.
func FlattenRequests(snapshots []RequestSnapshot) []FlattenedRequestRow {
	rows := make([]FlattenedRequestRow, 0, flattenedLen(snapshots))

	for _, s := range snapshots {
		base := FlattenedRequestRow{
			Key:            fmt.Sprintf("%d", s.ID),
			Domain:         s.Domain,
			RequestID:      s.ID,
			EmployeeID:     s.EmployeeID,
			RequestDate:    s.RequestDate,
			ApprovedBy:     clonePtr(s.ApprovedBy),
			ApprovedAt:     clonePtr(s.ApprovedAt),
			NextLevel:      s.NextLevel(),
			Lifecycle:      s.Lifecycle,
			Status:         ReconcileStatus(s),
			Remarks:        s.Remarks,
			Specialization: UnknownSpecialization,
			DailyRate:      decimal.Zero,
		}

		if len(s.Details) == 0 {
			rows = append(rows, base)
			continue
		}

		lines := make([]DetailLine, len(s.Details))
		copy(lines, s.Details)
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Seq < lines[j].Seq })

		for _, line := range lines {
			row := base
			row.ApprovedBy = clonePtr(s.ApprovedBy)
			row.ApprovedAt = clonePtr(s.ApprovedAt)
			row.Key = fmt.Sprintf("%d-%d", s.ID, line.Seq)
			row.LineSeq = line.Seq
			row.Specialization = line.Specialization
			if row.Specialization == "" {
				row.Specialization = UnknownSpecialization
			}
			row.Quantity = line.Quantity
			row.DailyRate = line.DailyRate
			rows = append(rows, row)
		}
	}
	return rows
}

// clonePtr gives each row its own copy so rows never alias the snapshot or each other.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FilterByStatus keeps rows whose status is one of the given values.
// With no statuses, rows are returned unchanged.
func FilterByStatus(rows []FlattenedRequestRow, statuses ...CanonicalStatus) []FlattenedRequestRow {
	if len(statuses) == 0 {
		return rows
	}
	want := make(map[CanonicalStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	out := make([]FlattenedRequestRow, 0, len(rows))
	for _, r := range rows {
		if want[r.Status] {
			out = append(out, r)
		}
	}
	return out
}

func flattenedLen(snapshots []RequestSnapshot) int {
	n := 0
	for _, s := range snapshots {
		n += max(1, len(s.Details))
	}
	return n
}
