// Package scanner walks a directory subtree and emits one FileEntry per
// visited file or directory, applying hidden-file/ignore-file/filter
// rules along the way and optionally computing a content digest.
//
// # Concurrency model
//
// Directory traversal fans out one goroutine per directory discovered,
// bounded by a semaphore, mirroring the walker/collector split used by
// the teacher's duplicate scanner: a walker goroutine lists one
// directory, emits matching entries to a buffered result channel, then
// recursively spawns a walker per subdirectory; a single collector
// goroutine drains the channel into the final slice. Digest computation
// (when requested) runs as a second, separate fan-out bounded by the
// same worker count, since hashing is CPU/IO-bound independently of
// directory listing and gains nothing from sharing the walk's
// semaphore.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"lukechampine.com/blake3"

	"github.com/ivoronin/filesync/internal/hashcache"
	"github.com/ivoronin/filesync/internal/model"
	"github.com/ivoronin/filesync/internal/syncerr"
)

// Scanner walks a single root directory per the Options it was built
// with. A Scanner holds no mutable state between Scan calls.
type Scanner struct {
	opts Options
}

func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every visited entry (file or directory)
// that survives hidden/ignore/filter rules, relative to root.
func (s *Scanner) Scan(ctx context.Context, root string) ([]model.FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.PathInvalid, "scan root does not exist", root, err)
	}
	if !info.IsDir() {
		return nil, syncerr.Wrap(syncerr.PathInvalid, "scan root is not a directory", root, nil)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.PathInvalid, "resolving scan root", root, err)
	}

	w := &walk{
		scanner: s,
		root:    absRoot,
		sem:     semaphore.NewWeighted(int64(s.opts.workers())),
		ignore:  newIgnoreMatcher(absRoot),
		resultC: make(chan model.FileEntry, 1000),
		errC:    make(chan error, 1),
		ctx:     ctx,
	}

	rootEntry := model.FileEntry{
		Path:    absRoot,
		RelPath: ".",
		IsDir:   true,
		ModTime: info.ModTime(),
		Mode:    modeOf(info),
	}

	var results []model.FileEntry
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for e := range w.resultC {
			results = append(results, e)
		}
	}()

	results = append(results, rootEntry)
	w.ignore.loadDir(absRoot)
	w.walkDir(absRoot, ".", 0)

	w.wg.Wait()
	close(w.resultC)
	collectorWg.Wait()

	select {
	case err := <-w.errC:
		if err != nil {
			return nil, err
		}
	default:
	}

	if s.opts.CollectDigest {
		if err := s.collectDigests(ctx, results); err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].RelPath < results[j].RelPath })
	return results, nil
}

// walk holds the per-Scan-call runtime state for the concurrent walker
// fan-out / collector fan-in.
type walk struct {
	scanner *Scanner
	root    string
	sem     *semaphore.Weighted
	ignore  *ignoreMatcher
	resultC chan model.FileEntry
	errC    chan error
	wg      sync.WaitGroup
	ctx     context.Context
}

func (w *walk) walkDir(dir, relDir string, depth int) {
	if w.scanner.opts.MaxDepth > 0 && depth >= w.scanner.opts.MaxDepth {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		if err := w.sem.Acquire(w.ctx, 1); err != nil {
			return
		}
		entries, err := os.ReadDir(dir)
		w.sem.Release(1)
		if err != nil {
			w.sendErr(syncerr.Wrap(syncerr.IO, "reading directory", dir, err))
			return
		}

		var subdirs []struct{ path, rel string }

		for _, ent := range entries {
			select {
			case <-w.ctx.Done():
				return
			default:
			}

			name := ent.Name()
			fullPath := filepath.Join(dir, name)
			relPath := name
			if relDir != "." {
				relPath = relDir + "/" + name
			}

			if !w.scanner.opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}

			isDir := ent.IsDir()
			isSymlink := ent.Type()&os.ModeSymlink != 0

			// A symlink is always emitted as its own entry, even when
			// FollowLinks is false — only descent into a symlinked
			// directory is gated on FollowLinks. A followed symlink is
			// resolved via os.Stat to learn whether it points at a
			// directory or a file, so that descent and type-mismatch
			// detection see its target's real type.
			if isSymlink && w.scanner.opts.FollowLinks {
				target, err := os.Stat(fullPath)
				if err != nil {
					continue
				}
				isDir = target.IsDir()
			}

			if w.scanner.opts.RespectIgnoreFiles && w.ignore.IsIgnored(relPath, isDir) {
				continue
			}

			info, err := ent.Info()
			if err != nil {
				continue
			}

			size := info.Size()
			if w.scanner.opts.Filter != nil && !w.scanner.opts.Filter.Matches(relPath, size, isDir) {
				continue // also skips descending into an excluded directory
			}

			fe := model.FileEntry{
				Path:      fullPath,
				RelPath:   relPath,
				Size:      size,
				ModTime:   info.ModTime(),
				IsDir:     isDir,
				IsSymlink: isSymlink,
				Mode:      modeOf(info),
			}
			if ct, ok := createdTime(info); ok {
				fe.CreatedTime = ct
				fe.HasCreated = true
			}

			select {
			case w.resultC <- fe:
			case <-w.ctx.Done():
				return
			}

			if isDir {
				w.ignore.loadDir(fullPath)
				subdirs = append(subdirs, struct{ path, rel string }{fullPath, relPath})
			}
		}

		for _, sub := range subdirs {
			w.walkDir(sub.path, sub.rel, depth+1)
		}
	}()
}

func (w *walk) sendErr(err error) {
	select {
	case w.errC <- err:
	default:
	}
}

// collectDigests computes a content digest for every regular file entry
// in place, bounded by the same worker count used for directory reads.
func (s *Scanner) collectDigests(ctx context.Context, entries []model.FileEntry) error {
	sem := semaphore.NewWeighted(int64(s.opts.workers()))
	g, gctx := errgroup.WithContext(ctx)

	for i := range entries {
		if entries[i].IsDir {
			continue
		}
		i := i
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			fp := hashcache.Fingerprint{
				RelPath:   entries[i].RelPath,
				Size:      entries[i].Size,
				ModTime:   entries[i].ModTime,
				Algorithm: s.opts.algorithmName(),
			}
			if s.opts.DigestCache != nil {
				if cached, err := s.opts.DigestCache.Lookup(fp); err == nil && cached != "" {
					entries[i].Digest = cached
					return nil
				}
			}

			digest, err := s.digestFile(entries[i].Path)
			if err != nil {
				return syncerr.Wrap(syncerr.Hashing, "computing digest", entries[i].Path, err)
			}
			entries[i].Digest = digest

			if s.opts.DigestCache != nil {
				_ = s.opts.DigestCache.Store(fp, digest)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Scanner) digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, s.opts.bufferSize())

	switch s.opts.HashAlgorithm {
	case HashSHA256:
		h := sha256.New()
		if _, err := io.CopyBuffer(h, f, buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	default:
		h := blake3.New(32, nil)
		if _, err := io.CopyBuffer(h, f, buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
}

func modeOf(info os.FileInfo) uint32 {
	if m := info.Mode().Perm(); m != 0 {
		return uint32(m)
	}
	if info.IsDir() {
		return model.ModeReadWrite
	}
	return model.ModeReadOnly
}
