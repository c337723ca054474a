// Package diff compares a source and destination scan result and
// produces a SyncPlan: one action per source path, plus a Delete for
// every destination-only path when delete_extra is enabled.
package diff

import (
	"sort"
	"strings"

	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/model"
)

// Engine generates and post-processes sync plans.
type Engine struct {
	comparator *comparator.Comparator
}

func New() *Engine {
	return &Engine{comparator: comparator.New()}
}

func NewWithComparator(c *comparator.Comparator) *Engine {
	return &Engine{comparator: c}
}

// GeneratePlan compares srcEntries against dstEntries by relative path
// and returns one action per source entry, plus a Delete per
// destination-only entry when deleteExtra is set (a Skip when it is
// not — see spec.md §3's SyncPlan invariant).
func (e *Engine) GeneratePlan(srcEntries, dstEntries []model.FileEntry, method comparator.Method, deleteExtra bool) (model.SyncPlan, error) {
	dstByPath := make(map[string]model.FileEntry, len(dstEntries))
	for _, d := range dstEntries {
		dstByPath[d.RelPath] = d
	}

	processed := make(map[string]struct{}, len(srcEntries))
	actions := make([]model.SyncAction, 0, len(srcEntries)+len(dstEntries))

	for _, src := range srcEntries {
		processed[src.RelPath] = struct{}{}

		dst, ok := dstByPath[src.RelPath]
		var action model.SyncAction
		var err error
		if ok {
			action, err = e.compareAndDecide(src, dst, method)
			if err != nil {
				return model.SyncPlan{}, err
			}
		} else if src.IsDir {
			action = model.CreateDirectory(src.RelPath)
		} else {
			action = model.Copy(src.RelPath, src.RelPath, src.Size)
		}
		actions = append(actions, action)
	}

	for _, dst := range dstEntries {
		if _, ok := processed[dst.RelPath]; ok {
			continue
		}
		if deleteExtra {
			actions = append(actions, model.Delete(dst.RelPath))
		} else {
			actions = append(actions, model.Skip(dst.RelPath, "destination-only, delete_extra disabled"))
		}
	}

	return model.NewPlan(actions), nil
}

// compareAndDecide implements the dispatch table for a path that
// exists on both sides: type mismatches become Conflicts, directory
// pairs Skip, and file pairs dispatch on the comparator's Result.
func (e *Engine) compareAndDecide(src, dst model.FileEntry, method comparator.Method) (model.SyncAction, error) {
	if src.IsDir != dst.IsDir {
		return model.Conflict(src.RelPath, dst.RelPath, model.ConflictFileDirectoryConflict, src.Info(), dst.Info()), nil
	}
	if src.IsSymlink != dst.IsSymlink {
		return model.Conflict(src.RelPath, dst.RelPath, model.ConflictTypeMismatch, src.Info(), dst.Info()), nil
	}
	if src.IsDir && dst.IsDir {
		return model.Skip(src.RelPath, "directory already exists"), nil
	}

	result, err := e.comparator.CompareEntries(src, dst, method)
	if err != nil {
		return model.SyncAction{}, err
	}

	switch result {
	case comparator.Identical:
		return model.Skip(src.RelPath, "files are identical"), nil
	case comparator.SourceNewer:
		return model.Update(src.RelPath, dst.RelPath, src.Size), nil
	case comparator.DestinationNewer:
		return model.Conflict(src.RelPath, dst.RelPath, model.ConflictBothModified, src.Info(), dst.Info()), nil
	case comparator.DifferentSize:
		switch {
		case src.ModTime.Equal(dst.ModTime):
			return model.Conflict(src.RelPath, dst.RelPath, model.ConflictSizeMismatch, src.Info(), dst.Info()), nil
		case src.ModTime.After(dst.ModTime):
			return model.Update(src.RelPath, dst.RelPath, src.Size), nil
		default:
			return model.Conflict(src.RelPath, dst.RelPath, model.ConflictBothModified, src.Info(), dst.Info()), nil
		}
	case comparator.DifferentContent:
		if src.ModTime.After(dst.ModTime) {
			return model.Update(src.RelPath, dst.RelPath, src.Size), nil
		}
		return model.Conflict(src.RelPath, dst.RelPath, model.ConflictBothModified, src.Info(), dst.Info()), nil
	case comparator.Different:
		return model.Update(src.RelPath, dst.RelPath, src.Size), nil
	case comparator.SourceOnly:
		return model.Copy(src.RelPath, dst.RelPath, src.Size), nil
	case comparator.DestinationOnly:
		return model.Delete(dst.RelPath), nil
	default:
		return model.Skip(src.RelPath, "unrecognized comparison result"), nil
	}
}

// FilterActions returns a new plan containing only the actions pred
// accepts, with a freshly computed summary. Unlike a Filter attached to
// the scanner (which removes paths before they ever reach the plan),
// this lets a caller classify or inspect an already-generated plan
// (e.g. "show me only conflicts") without mutating the plan that will
// actually be executed.
func FilterActions(plan model.SyncPlan, pred func(model.SyncAction) bool) model.SyncPlan {
	filtered := make([]model.SyncAction, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		if pred(a) {
			filtered = append(filtered, a)
		}
	}
	return model.NewPlan(filtered)
}

// SortActions orders a plan's actions directory-creates first (shallower
// directories before the descendants they contain, satisfying spec.md
// §3's "CreateDirectory(p) precedes every action under p" invariant),
// then remaining actions by descending file size so large transfers
// start as early as possible.
func SortActions(plan model.SyncPlan) model.SyncPlan {
	sorted := make([]model.SyncAction, len(plan.Actions))
	copy(sorted, plan.Actions)

	sort.SliceStable(sorted, func(i, j int) bool {
		aDir := sorted[i].Kind == model.ActionCreateDirectory
		bDir := sorted[j].Kind == model.ActionCreateDirectory
		if aDir != bDir {
			return aDir
		}
		if aDir && bDir {
			return pathDepth(sorted[i].RelPath()) < pathDepth(sorted[j].RelPath())
		}
		return sorted[i].Size > sorted[j].Size
	})

	return model.SyncPlan{Actions: sorted, Summary: plan.Summary}
}

func pathDepth(relPath string) int {
	if relPath == "." || relPath == "" {
		return 0
	}
	return strings.Count(relPath, "/") + 1
}
