package workflow

import (
	"fmt"
	"strings"
)

// Labels holds the display strings used by Synthesize. Callers build one per
// locale and pass it in; the synthesizer never looks up a locale itself.
type Labels struct {
	Submitted       string
	InProgress      string
	FinalDecision   string
	Approved        string
	Rejected        string
	Advisory        string
	LevelFallback   string // formatted with the level number
	UnknownApprover string // formatted with the approver id
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		Submitted:       "Submitted",
		InProgress:      "Approval in progress",
		FinalDecision:   "Final decision",
		Approved:        "Approved",
		Rejected:        "Rejected",
		Advisory:        "detailed history unavailable, showing summary",
		LevelFallback:   "Level %d",
		UnknownApprover: "user #%d",
	}
}

// withDefaults fills empty fields from DefaultLabels so a partially
// translated locale still renders.
func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&l.Submitted, d.Submitted)
	fill(&l.InProgress, d.InProgress)
	fill(&l.FinalDecision, d.FinalDecision)
	fill(&l.Approved, d.Approved)
	fill(&l.Rejected, d.Rejected)
	fill(&l.Advisory, d.Advisory)
	fill(&l.LevelFallback, d.LevelFallback)
	fill(&l.UnknownApprover, d.UnknownApprover)
	return l
}

func (l Labels) level(n int) string {
	return sprintfInt(l.LevelFallback, n)
}

func (l Labels) approver(id int64) string {
	return sprintfInt(l.UnknownApprover, id)
}

// sprintfInt tolerates translated templates that dropped the verb.
func sprintfInt[T int | int64](format string, v T) string {
	if !strings.Contains(format, "%d") {
		return fmt.Sprintf("%s %d", format, v)
	}
	return fmt.Sprintf(format, v)
}
