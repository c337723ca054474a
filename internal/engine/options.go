package engine

import (
	"github.com/ivoronin/filesync/internal/comparator"
	"github.com/ivoronin/filesync/internal/conflict"
	"github.com/ivoronin/filesync/internal/filter"
	"github.com/ivoronin/filesync/internal/preserve"
	"github.com/ivoronin/filesync/internal/scanner"
)

// Options bundles every knob a Sync run needs, mirroring the shape of
// the sub-package options it wires together.
type Options struct {
	ScanOptions         scanner.Options
	ComparisonMethod    comparator.Method
	ConflictStrategy    conflict.Strategy
	FilterOptions       *filter.Options
	PreservationOptions preserve.Options

	DryRun          bool
	DeleteExtra     bool
	BackupDirectory string

	MaxConcurrency  int
	BufferSize      int
	ContinueOnError bool

	HashCachePath string
}

// DefaultOptions returns the conservative defaults used when a caller
// doesn't set a field explicitly: mtime and permission bits preserved, extras deleted,
// manual conflict resolution, four concurrent actions, 64KiB I/O
// chunks — the same defaults `original_source/sync/src/sync_engine.rs`
// ships.
func DefaultOptions() Options {
	return Options{
		ComparisonMethod:    comparator.SizeAndTimestamp,
		ConflictStrategy:    conflict.Manual,
		PreservationOptions: preserve.DefaultOptions(),
		DeleteExtra:         true,
		MaxConcurrency:      4,
		BufferSize:          64 * 1024,
	}
}

func (o Options) maxConcurrency() int64 {
	if o.MaxConcurrency <= 0 {
		return 4
	}
	return int64(o.MaxConcurrency)
}
