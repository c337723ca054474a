package scanner

import (
	"github.com/ivoronin/filesync/internal/filter"
	"github.com/ivoronin/filesync/internal/hashcache"
)

// HashAlgorithm selects the digest algorithm used when digest-on-scan is
// requested.
type HashAlgorithm int

const (
	HashBLAKE3 HashAlgorithm = iota
	HashSHA256
)

// Options configures a Scanner. The zero value scans without following
// symlinks, without honoring ignore files, and without computing digests.
type Options struct {
	// FollowLinks makes the walk descend into symlinked directories.
	FollowLinks bool
	// MaxDepth bounds recursion; zero means unlimited.
	MaxDepth int
	// IncludeHidden disables the default leading-dot exclusion. Filter
	// has its own IncludeHidden flag; both must agree for a hidden path
	// to be emitted when a Filter is attached.
	IncludeHidden bool
	// RespectIgnoreFiles enables hierarchical .gitignore-style exclusion.
	RespectIgnoreFiles bool
	// Filter is an optional compiled predicate; entries failing it are
	// not emitted and, for directories, not descended into.
	Filter *filter.Filter
	// CollectDigest computes a content digest for every regular file.
	CollectDigest bool
	HashAlgorithm HashAlgorithm
	// BufferSize is the chunk size used when streaming file content for
	// digest computation. Defaults to 1MiB when zero.
	BufferSize int
	// Workers bounds concurrent directory reads. Defaults to 8 when zero.
	Workers int
	// DigestCache, if set, is consulted before hashing a file and
	// updated after — letting a caller skip rehashing files whose
	// (size, mtime) fingerprint hasn't changed since a prior scan.
	DigestCache *hashcache.Cache
}

func (o Options) algorithmName() string {
	if o.HashAlgorithm == HashSHA256 {
		return "sha256"
	}
	return "blake3"
}

func (o Options) bufferSize() int {
	if o.BufferSize <= 0 {
		return 1 << 20
	}
	return o.BufferSize
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 8
	}
	return o.Workers
}
