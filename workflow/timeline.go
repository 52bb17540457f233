/*
timeline.go - Approval timeline synthesis

PURPOSE:
  Turns a request's canonical status and (optionally) its per-level approval
  steps into an ordered list of renderable steps plus the index of the step
  the request is currently at.

MODES:
  Detailed (steps available):
    [Submitted] ++ levels by ascending level number ++ [Final decision]
    len = len(steps) + 2
    active = first step that is PENDING, FUTURE or REJECTED, else len

  Degraded (no steps, or the fetch failed):
    [Submitted, Approval in progress, Final decision]
    active derived from the canonical status only:
      NEW (no next level)              -> 0
      INPROCESS, NEW with next level   -> 1
      APPROVED, REJECTED, COMPLETED    -> 2

  Degraded mode uses the same "next level > 0 means in progress" signal as
  the leave/loan reconciler so a list row and its timeline agree.

GUARANTEES:
  0 <= ActiveStepIndex <= len(Steps). No I/O. No panics on partial input.

SEE ALSO:
  - reconcile.go: Produces the CanonicalStatus consumed here
  - loader.go: Fetches steps and decides which mode to use
*/
package workflow

import (
	"sort"
	"time"
)

type StepKind string

const (
	KindSubmitted StepKind = "submitted"
	KindLevel     StepKind = "level"
	KindProgress  StepKind = "progress"
	KindFinal     StepKind = "final"
)

// TimelineStep is one renderable step.
type TimelineStep struct {
	Kind     StepKind
	Level    int
	Label    string
	Approver string
	Status   StepStatus
	Date     *time.Time
	Comment  string

	// Error marks the step as the point of rejection.
	Error bool
	// Skipped is rendered distinctly but counts as resolved.
	Skipped bool
}

// TimelineView is what the stepper renders.
type TimelineView struct {
	Steps           []TimelineStep
	ActiveStepIndex int
	Degraded        bool
	Advisory        string
}

// TimelineInput carries everything Synthesize needs. Steps may be nil.
type TimelineInput struct {
	Status       CanonicalStatus
	RequestDate  time.Time
	ApprovedDate *time.Time
	NextLevel    int
	Steps        []ApprovalStep
}

// TimelineInputFor builds an input from a snapshot.
func TimelineInputFor(s RequestSnapshot, steps []ApprovalStep) TimelineInput {
	return TimelineInput{
		Status:       ReconcileStatus(s),
		RequestDate:  s.RequestDate,
		ApprovedDate: s.ApprovedAt,
		NextLevel:    s.NextLevel(),
		Steps:        steps,
	}
}

// Synthesize builds the timeline, using detailed mode when steps are present.
func Synthesize(in TimelineInput, labels Labels) TimelineView {
	labels = labels.withDefaults()
	if len(in.Steps) == 0 {
		return synthesizeDegraded(in, labels)
	}
	return synthesizeDetailed(in, labels)
}

// DegradedView is the fallback for a failed detailed fetch: the summary
// timeline plus the advisory the UI shows next to it.
func DegradedView(in TimelineInput, labels Labels) TimelineView {
	labels = labels.withDefaults()
	view := synthesizeDegraded(in, labels)
	view.Advisory = labels.Advisory
	return view
}

func synthesizeDetailed(in TimelineInput, labels Labels) TimelineView {
	levels := make([]ApprovalStep, len(in.Steps))
	copy(levels, in.Steps)
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })

	steps := make([]TimelineStep, 0, len(levels)+2)
	steps = append(steps, submittedStep(in, labels))
	for _, lv := range levels {
		steps = append(steps, levelStep(lv, labels))
	}
	steps = append(steps, finalStep(in, labels, in.Status.IsTerminal()))

	return TimelineView{
		Steps:           steps,
		ActiveStepIndex: firstUnresolved(steps),
	}
}

func synthesizeDegraded(in TimelineInput, labels Labels) TimelineView {
	active := degradedIndex(in)

	progress := TimelineStep{Kind: KindProgress, Label: labels.InProgress}
	switch {
	case active >= 2:
		progress.Status = StepCompleted
	case active == 1:
		progress.Status = StepPending
	default:
		progress.Status = StepFuture
	}

	return TimelineView{
		Steps: []TimelineStep{
			submittedStep(in, labels),
			progress,
			finalStep(in, labels, active >= 2),
		},
		ActiveStepIndex: active,
		Degraded:        true,
	}
}

func degradedIndex(in TimelineInput) int {
	switch in.Status {
	case StatusApproved, StatusRejected, StatusCompleted:
		return 2
	case StatusInProcess:
		return 1
	}
	if in.NextLevel > 0 {
		return 1
	}
	return 0
}

func submittedStep(in TimelineInput, labels Labels) TimelineStep {
	step := TimelineStep{Kind: KindSubmitted, Label: labels.Submitted, Status: StepCompleted}
	if !in.RequestDate.IsZero() {
		d := in.RequestDate
		step.Date = &d
	}
	return step
}

func levelStep(lv ApprovalStep, labels Labels) TimelineStep {
	status := lv.Status
	if status == "" {
		status = StepFuture
	}

	label := lv.LevelName
	if label == "" {
		label = labels.level(lv.Level)
	}
	approver := lv.ApproverName
	if approver == "" && lv.ApproverID != 0 {
		approver = labels.approver(lv.ApproverID)
	}

	return TimelineStep{
		Kind:     KindLevel,
		Level:    lv.Level,
		Label:    label,
		Approver: approver,
		Status:   status,
		Date:     lv.ActedAt,
		Comment:  lv.Comment,
		Error:    status == StepRejected,
		Skipped:  status == StepSkipped,
	}
}

func finalStep(in TimelineInput, labels Labels, decided bool) TimelineStep {
	step := TimelineStep{Kind: KindFinal, Label: labels.FinalDecision, Status: StepFuture}
	if !decided {
		return step
	}

	step.Status = StepCompleted
	step.Date = in.ApprovedDate
	switch in.Status {
	case StatusRejected:
		step.Label = labels.Rejected
		step.Error = true
	case StatusApproved, StatusCompleted:
		step.Label = labels.Approved
	}
	return step
}

// firstUnresolved returns the index of the first step still blocking
// progress. A rejected level halts progress at its own position.
func firstUnresolved(steps []TimelineStep) int {
	for i, s := range steps {
		switch s.Status {
		case StepPending, StepFuture, StepRejected:
			return i
		}
	}
	return len(steps)
}
