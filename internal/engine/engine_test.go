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
	"github.com/ivoronin/filesync/internal/model"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestSync_CopiesNewFiles(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))

	opts := DefaultOptions()
	e := newEngine(t, opts)

	m, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.True(t, m.IsSuccessful())

	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestSync_DryRunTouchesNothing(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Remove(dst))

	opts := DefaultOptions()
	opts.DryRun = true
	e := newEngine(t, opts)

	_, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSync_DeletesExtraDestinationFiles(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "gone.txt"), []byte("x"), 0o644))

	opts := DefaultOptions()
	e := newEngine(t, opts)

	_, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dst, "gone.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSync_NewerLargerSourceOverwritesDestination(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("new-content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "a.txt"), []byte("old"), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.txt"), now, now))
	require.NoError(t, os.Chtimes(filepath.Join(dst, "a.txt"), now.Add(-time.Hour), now.Add(-time.Hour)))

	opts := DefaultOptions()
	opts.ComparisonMethod = comparator.SizeAndTimestamp
	opts.ConflictStrategy = conflict.PreferNewer
	e := newEngine(t, opts)

	m, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.True(t, m.IsSuccessful())

	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new-content", string(got))
}

func TestPreview_DoesNotTouchFilesystem(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))

	opts := DefaultOptions()
	e := newEngine(t, opts)

	plan, err := e.Preview(context.Background(), src, dst)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, model.ActionCopy, plan.Actions[0].Kind)

	_, statErr := os.Stat(filepath.Join(dst, "a.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSync_ContinueOnErrorSyncsEveryFile(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("world"), 0o644))

	opts := DefaultOptions()
	opts.ContinueOnError = true
	e := newEngine(t, opts)

	m, err := e.Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.True(t, m.IsSuccessful())

	for _, name := range []string{"a.txt", "b.txt"} {
		_, err := os.Stat(filepath.Join(dst, name))
		assert.NoError(t, err)
	}
}
