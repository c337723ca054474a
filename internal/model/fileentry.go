// Package model holds the data types shared across the sync pipeline:
// scan results, plan actions, and the plan itself. None of these types
// carry behavior beyond simple projections — the packages that consume
// them (scanner, comparator, diff, conflict, engine) own the logic.
package model

import "time"

// Permission bits synthesized for hosts that don't expose POSIX mode bits.
const (
	ModeReadOnly  = 0o444
	ModeReadWrite = 0o666
)

// FileEntry is the unit of scan output: one visited file or directory.
type FileEntry struct {
	// Path is the absolute path on disk.
	Path string
	// RelPath is Path with the scan root stripped — the identity of this
	// entry across source and destination trees.
	RelPath string
	Size    int64
	ModTime time.Time
	// CreatedTime is the creation time, when the host filesystem reports one.
	CreatedTime time.Time
	HasCreated  bool
	IsDir       bool
	IsSymlink   bool
	// Mode holds POSIX permission bits, or ModeReadOnly/ModeReadWrite on
	// hosts that don't have a permission model.
	Mode uint32
	// Digest is the content hash computed during scanning, if requested.
	// Empty when not computed.
	Digest string
}

// FileInfo is the projection of a FileEntry carrying only what the
// conflict resolver needs. Produced from a FileEntry by copy.
type FileInfo struct {
	Size      int64
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool
	Mode      uint32
	Digest    string
}

// Info projects a FileEntry down to a FileInfo.
func (e FileEntry) Info() FileInfo {
	return FileInfo{
		Size:      e.Size,
		ModTime:   e.ModTime,
		IsDir:     e.IsDir,
		IsSymlink: e.IsSymlink,
		Mode:      e.Mode,
		Digest:    e.Digest,
	}
}
