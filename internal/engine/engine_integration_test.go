package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/conflict"
	"github.com/ivoronin/filesync/internal/filter"
	"github.com/ivoronin/filesync/internal/model"
)

// TestScenario_IdenticalTreesProduceNoWrites mirrors spec scenario 2:
// equal content and mtimes under the Size method should skip, not copy.
func TestScenario_IdenticalTreesProduceNoWrites(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "x.txt"), []byte("same"), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(src, "x.txt"), now, now))
	require.NoError(t, os.Chtimes(filepath.Join(dst, "x.txt"), now, now))

	opts := DefaultOptions()
	opts.ComparisonMethod = comparator.Size
	e := newEngine(t, opts)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionSkip, plan.Actions[0].Kind)

	m, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Files().Skipped)
	assert.Equal(t, int64(0), m.Transfer().BytesTransferred)
}

// TestScenario_RepeatedSyncConverges mirrors the idempotence property:
// running Sync twice in a row with no intervening mutation yields a
// second plan with zero Copy/Update/Delete actions.
func TestScenario_RepeatedSyncConverges(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("world"), 0o644))

	opts := DefaultOptions()
	e := newEngine(t, opts)

	_, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	for _, a := range plan.Actions {
		assert.NotEqual(t, model.ActionCopy, a.Kind)
		assert.NotEqual(t, model.ActionUpdate, a.Kind)
		assert.NotEqual(t, model.ActionDelete, a.Kind)
	}
}

// TestScenario_DeleteExtraFalseRetainsAndSkips mirrors spec scenario 4's
// second half: delete_extra=false keeps the destination-only file and
// reports it as a Skip rather than a Delete.
func TestScenario_DeleteExtraFalseRetainsAndSkips(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "old.txt"), []byte("x"), 0o644))

	opts := DefaultOptions()
	opts.DeleteExtra = false
	e := newEngine(t, opts)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionSkip, plan.Actions[0].Kind)

	_, err = e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dst, "old.txt"))
	assert.NoError(t, statErr)
}

// TestScenario_FileVersusDirectoryConflict mirrors spec scenario 5: a
// source file colliding with a same-named destination directory
// produces a FileDirectoryConflict regardless of comparison method,
// and BackupAndUseSource with a backup directory set replaces the
// destination directory with the source file, preserving its contents
// under the backup path.
func TestScenario_FileVersusDirectoryConflict(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "p"), []byte("file content"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "p"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "p", "inside.txt"), []byte("nested"), 0o644))

	backupDir := t.TempDir()

	opts := DefaultOptions()
	opts.ConflictStrategy = conflict.BackupAndUseSource
	opts.BackupDirectory = backupDir
	e := newEngine(t, opts)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	conflictAction, ok := findAction(plan.Actions, "p")
	require.True(t, ok, "expected a conflict action for path %q", "p")
	assert.Equal(t, model.ActionConflict, conflictAction.Kind)
	assert.Equal(t, model.ConflictFileDirectoryConflict, conflictAction.ConflictKind)

	m, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dst, "p"))
	require.NoError(t, err)
	assert.Equal(t, "file content", string(got))

	assert.Equal(t, 1, m.Conflicts().TotalConflicts, "an auto-resolved conflict must still count toward total conflicts")
	assert.Equal(t, 1, m.Conflicts().AutoResolved)
	assert.Equal(t, 1, m.Conflicts().ResolutionStrategies[conflict.BackupAndUseSource.String()])
}

// TestScenario_FilterByExtensionExcludesNonMatchingFiles mirrors spec
// scenario 6: the scanner never emits a.log once an include filter
// restricts the walk to *.txt.
func TestScenario_FilterByExtensionExcludesNonMatchingFiles(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.log"), []byte("drop"), 0o644))

	opts := DefaultOptions()
	opts.FilterOptions = &filter.Options{Includes: []string{"**/*.txt"}}
	e := newEngine(t, opts)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "a.txt", plan.Actions[0].RelPath())

	_, err = e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dst, "a.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "a.log"))
	assert.True(t, os.IsNotExist(err))
}

func findAction(actions []model.SyncAction, relPath string) (model.SyncAction, bool) {
	for _, a := range actions {
		if a.RelPath() == relPath {
			return a, true
		}
	}
	return model.SyncAction{}, false
}
