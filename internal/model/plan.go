package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// PlanSummary counts actions by variant and totals the bytes a full
// execution of the plan would transfer.
type PlanSummary struct {
	TotalActions          int
	Copies                int
	Updates               int
	Deletes               int
	DirectoryCreates      int
	Conflicts             int
	Skips                 int
	TotalBytesToTransfer  int64
}

// SyncPlan is an ordered sequence of actions plus their summary.
type SyncPlan struct {
	Actions []SyncAction
	Summary PlanSummary
}

// Summarize recomputes Summary from Actions.
func Summarize(actions []SyncAction) PlanSummary {
	var s PlanSummary
	s.TotalActions = len(actions)
	for _, a := range actions {
		switch a.Kind {
		case ActionCopy:
			s.Copies++
			s.TotalBytesToTransfer += a.Size
		case ActionUpdate:
			s.Updates++
			s.TotalBytesToTransfer += a.Size
		case ActionDelete:
			s.Deletes++
		case ActionCreateDirectory:
			s.DirectoryCreates++
		case ActionConflict:
			s.Conflicts++
		case ActionSkip:
			s.Skips++
		}
	}
	return s
}

// NewPlan builds a SyncPlan from a set of actions, computing its summary.
func NewPlan(actions []SyncAction) SyncPlan {
	return SyncPlan{Actions: actions, Summary: Summarize(actions)}
}

// String renders a one-line human-readable description of the plan.
func (p SyncPlan) String() string {
	return fmt.Sprintf(
		"%d actions: %d copies, %d updates, %d deletes, %d dirs, %d conflicts, %d skips (%s to transfer)",
		p.Summary.TotalActions, p.Summary.Copies, p.Summary.Updates, p.Summary.Deletes,
		p.Summary.DirectoryCreates, p.Summary.Conflicts, p.Summary.Skips,
		humanize.IBytes(uint64(p.Summary.TotalBytesToTransfer)),
	)
}
