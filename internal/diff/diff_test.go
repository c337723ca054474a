package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/model"
)

func entry(rel string, size int64, modTime time.Time, isDir bool) model.FileEntry {
	return model.FileEntry{RelPath: rel, Size: size, ModTime: modTime, IsDir: isDir}
}

func TestGeneratePlan_NewFileIsCopy(t *testing.T) {
	t.Parallel()
	now := time.Now()
	src := []model.FileEntry{entry("a.txt", 10, now, false)}

	e := New()
	plan, err := e.GeneratePlan(src, nil, comparator.SizeAndTimestamp, true)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionCopy, plan.Actions[0].Kind)
	assert.Equal(t, int64(1), int64(plan.Summary.Copies))
}

func TestGeneratePlan_IdenticalTreesSkip(t *testing.T) {
	t.Parallel()
	now := time.Now()
	src := []model.FileEntry{entry("a.txt", 10, now, false)}
	dst := []model.FileEntry{entry("a.txt", 10, now, false)}

	e := New()
	plan, err := e.GeneratePlan(src, dst, comparator.SizeAndTimestamp, true)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionSkip, plan.Actions[0].Kind)
}

func TestGeneratePlan_DestinationNewerIsConflict(t *testing.T) {
	t.Parallel()
	now := time.Now()
	src := []model.FileEntry{entry("a.txt", 10, now, false)}
	dst := []model.FileEntry{entry("a.txt", 20, now.Add(time.Hour), false)}

	e := New()
	plan, err := e.GeneratePlan(src, dst, comparator.SizeAndTimestamp, true)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionConflict, plan.Actions[0].Kind)
	assert.Equal(t, model.ConflictBothModified, plan.Actions[0].ConflictKind)
}

func TestGeneratePlan_DeleteExtra(t *testing.T) {
	t.Parallel()
	now := time.Now()
	dst := []model.FileEntry{entry("gone.txt", 10, now, false)}

	e := New()
	plan, err := e.GeneratePlan(nil, dst, comparator.SizeAndTimestamp, true)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionDelete, plan.Actions[0].Kind)

	planNoDelete, err := e.GeneratePlan(nil, dst, comparator.SizeAndTimestamp, false)
	require.NoError(t, err)
	require.Len(t, planNoDelete.Actions, 1)
	assert.Equal(t, model.ActionSkip, planNoDelete.Actions[0].Kind)
}

func TestGeneratePlan_FileDirectoryConflict(t *testing.T) {
	t.Parallel()
	now := time.Now()
	src := []model.FileEntry{entry("x", 0, now, true)}
	dst := []model.FileEntry{entry("x", 10, now, false)}

	e := New()
	plan, err := e.GeneratePlan(src, dst, comparator.SizeAndTimestamp, true)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionConflict, plan.Actions[0].Kind)
	assert.Equal(t, model.ConflictFileDirectoryConflict, plan.Actions[0].ConflictKind)
}

func TestFilterActions(t *testing.T) {
	t.Parallel()
	plan := model.NewPlan([]model.SyncAction{
		model.Copy("a", "a", 1),
		model.Delete("b"),
		model.Skip("c", "identical"),
	})

	onlyDeletes := FilterActions(plan, func(a model.SyncAction) bool { return a.Kind == model.ActionDelete })
	require.Len(t, onlyDeletes.Actions, 1)
	assert.Equal(t, 1, onlyDeletes.Summary.Deletes)
	// Original plan is untouched.
	assert.Len(t, plan.Actions, 3)
}

func TestSortActions_DirectoriesFirstByDepth(t *testing.T) {
	t.Parallel()
	plan := model.NewPlan([]model.SyncAction{
		model.Copy("big.bin", "big.bin", 1000),
		model.CreateDirectory("a/b"),
		model.CreateDirectory("a"),
		model.Copy("small.bin", "small.bin", 10),
	})

	sorted := SortActions(plan)
	require.Len(t, sorted.Actions, 4)
	assert.Equal(t, "a", sorted.Actions[0].RelPath())
	assert.Equal(t, "a/b", sorted.Actions[1].RelPath())
	assert.Equal(t, "big.bin", sorted.Actions[2].RelPath())
	assert.Equal(t, "small.bin", sorted.Actions[3].RelPath())
}
