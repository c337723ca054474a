package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/filesync/internal/filter"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanner_EmitsRootAndFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 10)
	writeFile(t, filepath.Join(root, "sub", "b.txt"), 20)

	s := New(Options{})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "a.txt")
	assert.Contains(t, paths, "sub")
	assert.Contains(t, paths, "sub/b.txt")
}

func TestScanner_ExcludesHiddenByDefault(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden"), 1)
	writeFile(t, filepath.Join(root, "visible.txt"), 1)

	s := New(Options{})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	assert.NotContains(t, paths, ".hidden")
	assert.Contains(t, paths, "visible.txt")
}

func TestScanner_FilterByExtension(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1)
	writeFile(t, filepath.Join(root, "a.log"), 1)

	f, err := filter.New(filter.Options{Includes: []string{"**/*.txt"}})
	require.NoError(t, err)

	s := New(Options{Filter: f})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		if e.RelPath == "." {
			continue
		}
		paths = append(paths, e.RelPath)
	}
	assert.Equal(t, []string{"a.txt"}, paths)
}

func TestScanner_RespectsGitignore(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 1)
	writeFile(t, filepath.Join(root, "build", "out.bin"), 1)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n"), 0o644))

	s := New(Options{RespectIgnoreFiles: true})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	assert.Contains(t, paths, "keep.txt")
	assert.NotContains(t, paths, "build")
	assert.NotContains(t, paths, "build/out.bin")
}

func TestScanner_DigestComputedForFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1024)

	s := New(Options{CollectDigest: true, HashAlgorithm: HashBLAKE3})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	for _, e := range entries {
		if e.RelPath == "a.txt" {
			assert.NotEmpty(t, e.Digest)
			return
		}
	}
	t.Fatal("a.txt not found in scan results")
}

func TestScanner_MissingRootIsPathInvalid(t *testing.T) {
	t.Parallel()
	s := New(Options{})
	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestScanner_SymlinkEmittedWithoutFollowing(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "target", "inside.txt"), 1)
	require.NoError(t, os.Symlink(filepath.Join(root, "target"), filepath.Join(root, "link")))

	s := New(Options{FollowLinks: false})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	found := false
	for _, e := range entries {
		if e.RelPath == "link" {
			found = true
			assert.True(t, e.IsSymlink)
			assert.False(t, e.IsDir)
		}
		assert.NotEqual(t, "link/inside.txt", e.RelPath, "must not descend into an unfollowed symlinked directory")
	}
	assert.True(t, found, "expected the symlink itself to be emitted as an entry")
}

func TestScanner_MaxDepthBoundsRecursion(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "c.txt"), 1)

	s := New(Options{MaxDepth: 1})
	entries, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	assert.Contains(t, paths, "a")
	assert.NotContains(t, paths, "a/b")
}
