// Package engine wires the filter, scanner, comparator, differ,
// conflict resolver, and attribute preserver together into the
// top-level Sync/Preview operations, executing a plan with bounded
// concurrency and streaming progress/metrics as it goes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/conflict"
	"github.com/ivoronin/filesync/internal/diff"
	"github.com/ivoronin/filesync/internal/filter"
	"github.com/ivoronin/filesync/internal/hashcache"
	"github.com/ivoronin/filesync/internal/metrics"
	"github.com/ivoronin/filesync/internal/model"
	"github.com/ivoronin/filesync/internal/preserve"
	"github.com/ivoronin/filesync/internal/progress"
	"github.com/ivoronin/filesync/internal/scanner"
	"github.com/ivoronin/filesync/internal/syncerr"
)

// Engine runs sync operations between a source and destination root
// using the options it was constructed with.
type Engine struct {
	opts       Options
	scanner    *scanner.Scanner
	comparator *comparator.Comparator
	diffEngine *diff.Engine
	resolver   *conflict.Resolver
	preserver  *preserve.Preserver
	filter     *filter.Filter
	cache      *hashcache.Cache
	logger     *slog.Logger
}

// New builds an Engine from opts. A nil logger falls back to
// slog.Default().
func New(opts Options, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	scanOpts := opts.ScanOptions
	var f *filter.Filter
	if opts.FilterOptions != nil {
		built, err := filter.New(*opts.FilterOptions)
		if err != nil {
			return nil, err
		}
		f = built
		scanOpts.Filter = built
	}

	resolver := conflict.New(opts.ConflictStrategy)
	if opts.BackupDirectory != "" {
		resolver.SetBackupDirectory(opts.BackupDirectory)
	}

	cache, err := hashcache.Open(opts.HashCachePath)
	if err != nil {
		return nil, err
	}
	scanOpts.DigestCache = cache

	cmp := comparatorFor(opts.BufferSize)

	return &Engine{
		opts:       opts,
		scanner:    scanner.New(scanOpts),
		comparator: cmp,
		diffEngine: diff.NewWithComparator(cmp),
		resolver:   resolver,
		preserver:  preserve.New(opts.PreservationOptions),
		filter:     f,
		cache:      cache,
		logger:     logger,
	}, nil
}

// Close releases resources the Engine holds open across calls (the
// hash cache database). Safe to call even if no cache was configured.
func (e *Engine) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}

// Sync runs a full sync with no progress stream attached.
func (e *Engine) Sync(ctx context.Context, source, destination string) (*metrics.SyncMetrics, error) {
	return e.SyncWithProgress(ctx, source, destination, nil)
}

// SyncWithProgress runs a full sync, emitting events to reporter if it
// is non-nil.
func (e *Engine) SyncWithProgress(ctx context.Context, source, destination string, reporter *progress.Reporter) (*metrics.SyncMetrics, error) {
	m := metrics.New()
	m.Start()

	if reporter != nil {
		reporter.Info(fmt.Sprintf("starting sync from %q to %q", source, destination))
	}

	// Phase 1: Setup.
	if _, err := os.Stat(destination); os.IsNotExist(err) {
		if e.opts.DryRun {
			if reporter != nil {
				reporter.Info(fmt.Sprintf("dry run: would create destination directory %q", destination))
			}
		} else if err := os.MkdirAll(destination, 0o755); err != nil {
			return nil, syncerr.Wrap(syncerr.IO, "creating destination directory", destination, err)
		}
	}

	// Phase 2: Scan.
	srcEntries, dstEntries, err := e.scanDirectories(ctx, source, destination, reporter, m)
	if err != nil {
		return nil, err
	}

	if reporter != nil {
		var totalBytes int64
		for _, e := range srcEntries {
			totalBytes += e.Size
		}
		reporter.SyncStarted(len(srcEntries), totalBytes)
	}

	// Phase 3: Plan.
	plan, err := e.generatePlan(srcEntries, dstEntries)
	if err != nil {
		return nil, err
	}

	if reporter != nil {
		reporter.Info(fmt.Sprintf("generated sync plan: %d actions (%d copies, %d updates, %d deletes, %d conflicts)",
			plan.Summary.TotalActions, plan.Summary.Copies, plan.Summary.Updates, plan.Summary.Deletes, plan.Summary.Conflicts))
	}

	// Phase 4: Execute.
	if err := e.executePlan(ctx, plan, source, destination, reporter, m); err != nil {
		m.Complete(e.logger)
		if reporter != nil {
			reporter.SyncFailed(err)
		}
		return m, err
	}

	// Phase 5: Complete.
	m.Complete(e.logger)
	if reporter != nil {
		reporter.SyncCompleted()
		reporter.Info(m.Summary())
	}

	return m, nil
}

// Preview runs phases 1-3 only (scan + plan) and returns the plan
// without touching the filesystem.
func (e *Engine) Preview(ctx context.Context, source, destination string) (model.SyncPlan, error) {
	srcEntries, dstEntries, err := e.scanDirectories(ctx, source, destination, nil, nil)
	if err != nil {
		return model.SyncPlan{}, err
	}
	return e.generatePlan(srcEntries, dstEntries)
}

func (e *Engine) scanDirectories(ctx context.Context, source, destination string, reporter *progress.Reporter, m *metrics.SyncMetrics) ([]model.FileEntry, []model.FileEntry, error) {
	if reporter != nil {
		reporter.ScanStarted(source)
	}

	start := time.Now()
	srcEntries, err := e.scanner.Scan(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	srcDuration := time.Since(start)

	if reporter != nil {
		reporter.ScanCompleted(source, len(srcEntries), srcDuration)
		reporter.ScanStarted(destination)
	}

	var dstEntries []model.FileEntry
	if _, statErr := os.Stat(destination); statErr == nil {
		start = time.Now()
		dstEntries, err = e.scanner.Scan(ctx, destination)
		if err != nil {
			return nil, nil, err
		}
	}
	dstDuration := time.Since(start)

	if reporter != nil {
		reporter.ScanCompleted(destination, len(dstEntries), dstDuration)
	}

	if m != nil {
		var bytesScanned int64
		for _, e := range srcEntries {
			bytesScanned += e.Size
		}
		for _, e := range dstEntries {
			bytesScanned += e.Size
		}
		m.RecordScan(len(srcEntries)+len(dstEntries), bytesScanned, srcDuration+dstDuration)
	}

	return srcEntries, dstEntries, nil
}

func (e *Engine) generatePlan(srcEntries, dstEntries []model.FileEntry) (model.SyncPlan, error) {
	// The scan root itself (RelPath ".") is never an actionable item —
	// Setup already guarantees the destination root exists — so it's
	// dropped before diffing rather than surfacing as a permanent
	// "directory already exists" Skip on every single plan.
	plan, err := e.diffEngine.GeneratePlan(dropRoot(srcEntries), dropRoot(dstEntries), e.opts.ComparisonMethod, e.opts.DeleteExtra)
	if err != nil {
		return model.SyncPlan{}, err
	}

	if e.filter != nil {
		plan = diff.FilterActions(plan, func(a model.SyncAction) bool {
			size := a.Size
			return e.filter.Matches(a.RelPath(), size, a.Kind == model.ActionCreateDirectory)
		})
	}

	return diff.SortActions(plan), nil
}

// executePlan dispatches every action in plan concurrently, bounded by
// a semaphore of capacity max_concurrency. The sort order already
// guarantees CreateDirectory actions for an ancestor precede actions
// under it; dispatching out of order is still safe because copyFile's
// own parent-mkdir step is idempotent.
func (e *Engine) executePlan(ctx context.Context, plan model.SyncPlan, srcRoot, dstRoot string, reporter *progress.Reporter, m *metrics.SyncMetrics) error {
	if reporter != nil {
		reporter.Info(fmt.Sprintf("executing %d actions", len(plan.Actions)))
	}

	sem := semaphore.NewWeighted(e.opts.maxConcurrency())
	group, groupCtx := errgroup.WithContext(ctx)

	for _, action := range plan.Actions {
		action := action
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break // context cancelled; stop dispatching, still await in-flight tasks
		}

		group.Go(func() error {
			defer sem.Release(1)
			return e.runAction(groupCtx, action, srcRoot, dstRoot, reporter, m)
		})
	}

	return group.Wait()
}

// runAction executes one action and records its outcome. It returns a
// non-nil error only when continue_on_error is false, so that
// errgroup cancels the remaining tasks' context; otherwise failures
// are recorded as recoverable and runAction returns nil.
func (e *Engine) runAction(ctx context.Context, action model.SyncAction, srcRoot, dstRoot string, reporter *progress.Reporter, m *metrics.SyncMetrics) error {
	srcPath, dstPath := actionPaths(action, srcRoot, dstRoot)

	if reporter != nil {
		reporter.FileOperationStarted(action.Kind, srcPath, dstPath, action.Size)
	}

	start := time.Now()
	op, err := e.executeAction(ctx, action, srcRoot, dstRoot, m)
	duration := time.Since(start)

	if err != nil {
		if m != nil {
			m.RecordError("ActionExecution", err.Error(), !e.opts.ContinueOnError)
		}
		if reporter != nil {
			reporter.FileOperationFailed(action.Kind, srcPath, dstPath, err)
		}
		if !e.opts.ContinueOnError {
			return err
		}
		return nil
	}

	if m != nil {
		m.RecordFileOperation(op, action.Size, duration)
	}
	if reporter != nil {
		reporter.FileOperationCompleted(op, srcPath, dstPath, action.Size, duration)
	}
	return nil
}

func dropRoot(entries []model.FileEntry) []model.FileEntry {
	out := make([]model.FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.RelPath == "." {
			continue
		}
		out = append(out, e)
	}
	return out
}

func comparatorFor(bufferSize int) *comparator.Comparator {
	if bufferSize <= 0 {
		return comparator.New()
	}
	return comparator.WithBufferSize(bufferSize)
}

func actionPaths(action model.SyncAction, srcRoot, dstRoot string) (string, string) {
	srcPath := ""
	if action.SrcRelPath != "" {
		srcPath = joinPath(srcRoot, action.SrcRelPath)
	}
	dstPath := ""
	if action.DstRelPath != "" {
		dstPath = joinPath(dstRoot, action.DstRelPath)
	}
	return srcPath, dstPath
}
