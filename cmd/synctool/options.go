package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/conflict"
	"github.com/ivoronin/filesync/internal/engine"
	"github.com/ivoronin/filesync/internal/filter"
	"github.com/ivoronin/filesync/internal/scanner"
)

// syncFlags holds the CLI flags shared by the sync and preview
// subcommands, mirroring engine.Options' shape.
type syncFlags struct {
	method      string
	conflict    string
	hashAlgo    string
	includes    []string
	excludes    []string
	minSizeStr  string
	maxSizeStr  string
	bufferStr   string
	hashCache   string
	backupDir   string
	workers     int
	concurrency int

	caseSensitive      bool
	includeHidden      bool
	followLinks        bool
	respectIgnoreFiles bool

	preserveModTime    bool
	preserveAccessTime bool
	preservePerms      bool
	preserveOwnership  bool
	preserveXattrs     bool
	preserveSymlinks   bool

	deleteExtra     bool
	continueOnError bool
	dryRun          bool

	noProgress bool
	verbose    bool
	quiet      bool
	logFormat  string
}

func newSyncFlags() *syncFlags {
	return &syncFlags{
		method:      "size-and-timestamp",
		conflict:    "manual",
		hashAlgo:    "blake3",
		bufferStr:   "64K",
		workers:     runtime.NumCPU(),
		concurrency: 4,
		deleteExtra: true,
		logFormat:   "text",

		preserveModTime:  true,
		preservePerms:    true,
		preserveSymlinks: true,
	}
}

// register attaches every shared flag to cmd.
func (f *syncFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "method", f.method,
		"Comparison method: size, timestamp, size-and-timestamp, sha256, blake3, byte-by-byte, comprehensive")
	cmd.Flags().StringVar(&f.conflict, "conflict", f.conflict,
		"Conflict strategy: prefer-source, prefer-destination, prefer-newer, prefer-older, prefer-larger, prefer-smaller, skip, backup-and-use-source, backup-and-keep-destination, manual, fail")
	cmd.Flags().StringVar(&f.hashAlgo, "hash-algorithm", f.hashAlgo, "Digest algorithm for scanning/caching: blake3, sha256")
	cmd.Flags().StringSliceVar(&f.includes, "include", nil, "Glob patterns a path must match at least one of")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "Glob patterns that reject a path regardless of --include")
	cmd.Flags().StringVar(&f.minSizeStr, "min-size", "", "Minimum file size (e.g., 100, 1K, 10M)")
	cmd.Flags().StringVar(&f.maxSizeStr, "max-size", "", "Maximum file size")
	cmd.Flags().StringVar(&f.bufferStr, "buffer-size", f.bufferStr, "I/O chunk size for comparisons and copies")
	cmd.Flags().StringVar(&f.hashCache, "hash-cache", "", "Path to persistent digest cache (enables caching)")
	cmd.Flags().StringVar(&f.backupDir, "backup-dir", "", "Directory conflict backups are written to (an overwritten destination is moved there, a discarded source is copied)")
	cmd.Flags().IntVar(&f.workers, "workers", f.workers, "Number of parallel scan/hash workers")
	cmd.Flags().IntVar(&f.concurrency, "max-concurrency", f.concurrency, "Number of actions executed concurrently")

	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "Match include/exclude patterns case-sensitively")
	cmd.Flags().BoolVar(&f.includeHidden, "include-hidden", false, "Include dotfiles and dot-directories")
	cmd.Flags().BoolVar(&f.followLinks, "follow-links", false, "Follow symlinked directories while scanning")
	cmd.Flags().BoolVar(&f.respectIgnoreFiles, "respect-ignore-files", false, "Honor .gitignore-style ignore files")

	cmd.Flags().BoolVar(&f.preserveModTime, "preserve-mtime", f.preserveModTime, "Preserve modification times")
	cmd.Flags().BoolVar(&f.preserveAccessTime, "preserve-atime", f.preserveAccessTime, "Preserve access times")
	cmd.Flags().BoolVar(&f.preservePerms, "preserve-permissions", f.preservePerms, "Preserve file permissions")
	cmd.Flags().BoolVar(&f.preserveOwnership, "preserve-ownership", f.preserveOwnership, "Preserve uid/gid (requires privileges)")
	cmd.Flags().BoolVar(&f.preserveXattrs, "preserve-extended-attrs", f.preserveXattrs, "Accepted but has no effect: extended attributes are not copied")
	cmd.Flags().BoolVar(&f.preserveSymlinks, "preserve-symlinks", f.preserveSymlinks, "Accepted but has no effect: a symlink's target content is copied, not the link itself")

	cmd.Flags().BoolVar(&f.deleteExtra, "delete-extra", f.deleteExtra, "Delete destination files absent from the source")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "Keep syncing remaining files after a recoverable error")

	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print one line per file operation and debug logs")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Only log errors")
	cmd.Flags().StringVar(&f.logFormat, "log-format", f.logFormat, "Log format: text or json")
}

// engineOptions translates the parsed flags into engine.Options.
func (f *syncFlags) engineOptions() (engine.Options, error) {
	method, err := parseMethod(f.method)
	if err != nil {
		return engine.Options{}, err
	}
	strategy, err := parseStrategy(f.conflict)
	if err != nil {
		return engine.Options{}, err
	}
	hashAlgo, err := parseHashAlgorithm(f.hashAlgo)
	if err != nil {
		return engine.Options{}, err
	}
	bufferSize, err := parseSize(f.bufferStr, 64*1024)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid --buffer-size: %w", err)
	}
	minSize, err := parseSize(f.minSizeStr, 0)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid --min-size: %w", err)
	}
	maxSize, err := parseSize(f.maxSizeStr, 0)
	if err != nil {
		return engine.Options{}, fmt.Errorf("invalid --max-size: %w", err)
	}

	var filterOpts *filter.Options
	if len(f.includes) > 0 || len(f.excludes) > 0 || minSize > 0 || maxSize > 0 || f.includeHidden {
		filterOpts = &filter.Options{
			Includes:      f.includes,
			Excludes:      f.excludes,
			CaseSensitive: f.caseSensitive,
			IncludeHidden: f.includeHidden,
			MinSize:       minSize,
			MaxSize:       maxSize,
		}
	}

	opts := engine.DefaultOptions()
	opts.ScanOptions = scanner.Options{
		FollowLinks:        f.followLinks,
		IncludeHidden:      f.includeHidden,
		RespectIgnoreFiles: f.respectIgnoreFiles,
		CollectDigest:      method == comparator.SHA256 || method == comparator.BLAKE3 || method == comparator.Comprehensive,
		HashAlgorithm:      hashAlgo,
		BufferSize:         bufferSize,
		Workers:            f.workers,
	}
	opts.ComparisonMethod = method
	opts.ConflictStrategy = strategy
	opts.FilterOptions = filterOpts
	opts.PreservationOptions.PreserveModTime = f.preserveModTime
	opts.PreservationOptions.PreserveAccessTime = f.preserveAccessTime
	opts.PreservationOptions.PreservePermissions = f.preservePerms
	opts.PreservationOptions.PreserveOwnership = f.preserveOwnership
	opts.PreservationOptions.PreserveExtendedAttrs = f.preserveXattrs
	opts.PreservationOptions.PreserveSymlinks = f.preserveSymlinks
	opts.DryRun = f.dryRun
	opts.DeleteExtra = f.deleteExtra
	opts.BackupDirectory = f.backupDir
	opts.MaxConcurrency = f.concurrency
	opts.BufferSize = bufferSize
	opts.ContinueOnError = f.continueOnError
	opts.HashCachePath = f.hashCache

	return opts, nil
}

func parseSize(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func parseMethod(s string) (comparator.Method, error) {
	switch strings.ToLower(s) {
	case "size":
		return comparator.Size, nil
	case "timestamp":
		return comparator.Timestamp, nil
	case "size-and-timestamp", "":
		return comparator.SizeAndTimestamp, nil
	case "sha256":
		return comparator.SHA256, nil
	case "blake3":
		return comparator.BLAKE3, nil
	case "byte-by-byte":
		return comparator.ByteByByte, nil
	case "comprehensive":
		return comparator.Comprehensive, nil
	default:
		return 0, fmt.Errorf("unknown comparison method %q", s)
	}
}

func parseStrategy(s string) (conflict.Strategy, error) {
	switch strings.ToLower(s) {
	case "prefer-source":
		return conflict.PreferSource, nil
	case "prefer-destination":
		return conflict.PreferDestination, nil
	case "prefer-newer":
		return conflict.PreferNewer, nil
	case "prefer-older":
		return conflict.PreferOlder, nil
	case "prefer-larger":
		return conflict.PreferLarger, nil
	case "prefer-smaller":
		return conflict.PreferSmaller, nil
	case "skip":
		return conflict.Skip, nil
	case "backup-and-use-source":
		return conflict.BackupAndUseSource, nil
	case "backup-and-keep-destination":
		return conflict.BackupAndKeepDestination, nil
	case "manual", "":
		return conflict.Manual, nil
	case "fail":
		return conflict.Fail, nil
	default:
		return 0, fmt.Errorf("unknown conflict strategy %q", s)
	}
}

func parseHashAlgorithm(s string) (scanner.HashAlgorithm, error) {
	switch strings.ToLower(s) {
	case "blake3", "":
		return scanner.HashBLAKE3, nil
	case "sha256":
		return scanner.HashSHA256, nil
	default:
		return 0, fmt.Errorf("unknown hash algorithm %q", s)
	}
}
