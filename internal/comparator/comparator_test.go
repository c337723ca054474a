package comparator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/filesync/internal/model"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCompare_Size(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "hello")
	writeFile(t, b, "hello")

	c := New()
	res, err := c.Compare(a, b, Size)
	require.NoError(t, err)
	assert.Equal(t, Identical, res)

	writeFile(t, b, "hello world")
	res, err = c.Compare(a, b, Size)
	require.NoError(t, err)
	assert.Equal(t, DifferentSize, res)
}

func TestCompare_SHA256AndBLAKE3(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "hello world")
	writeFile(t, b, "hello world")

	c := New()
	for _, m := range []Method{SHA256, BLAKE3} {
		res, err := c.Compare(a, b, m)
		require.NoError(t, err)
		assert.Equal(t, Identical, res)
	}

	writeFile(t, b, "hello rust")
	for _, m := range []Method{SHA256, BLAKE3} {
		res, err := c.Compare(a, b, m)
		require.NoError(t, err)
		assert.Equal(t, DifferentContent, res)
	}
}

func TestCompare_ByteByByte(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "hello world")
	writeFile(t, b, "hello world")

	c := New()
	res, err := c.Compare(a, b, ByteByByte)
	require.NoError(t, err)
	assert.Equal(t, Identical, res)

	writeFile(t, b, "hello rust")
	res, err = c.Compare(a, b, ByteByByte)
	require.NoError(t, err)
	assert.Equal(t, DifferentContent, res)
}

func TestCompare_OnlyOneExists(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "hello")

	c := New()
	res, err := c.Compare(a, b, Size)
	require.NoError(t, err)
	assert.Equal(t, SourceOnly, res)

	res, err = c.Compare(b, a, Size)
	require.NoError(t, err)
	assert.Equal(t, DestinationOnly, res)
}

func TestCompare_Timestamp(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "hello")
	writeFile(t, b, "hello")

	now := time.Now()
	require.NoError(t, os.Chtimes(a, now, now))
	require.NoError(t, os.Chtimes(b, now.Add(time.Hour), now.Add(time.Hour)))

	c := New()
	res, err := c.Compare(a, b, Timestamp)
	require.NoError(t, err)
	assert.Equal(t, DestinationNewer, res)
}

func TestCompare_DirectoryIsComparisonError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	f := filepath.Join(dir, "f")
	writeFile(t, f, "hello")

	c := New()
	_, err := c.Compare(sub, f, Size)
	assert.Error(t, err)
}

func TestCompare_SymmetricIdentical(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")
	writeFile(t, a, "same content")
	writeFile(t, b, "same content")

	c := New()
	for _, m := range []Method{Size, SHA256, BLAKE3, ByteByByte} {
		r1, err := c.Compare(a, b, m)
		require.NoError(t, err)
		r2, err := c.Compare(b, a, m)
		require.NoError(t, err)
		assert.Equal(t, r1 == Identical, r2 == Identical)
	}
}

func TestQuickCompare(t *testing.T) {
	t.Parallel()
	now := time.Now()
	src := model.FileEntry{Size: 100, ModTime: now}
	dst := model.FileEntry{Size: 100, ModTime: now}
	assert.Equal(t, Identical, QuickCompare(src, dst))

	dst2 := model.FileEntry{Size: 200, ModTime: now}
	assert.Equal(t, DifferentSize, QuickCompare(src, dst2))
}
