// Package preserve captures and reapplies file metadata across a copy,
// so that a synced file keeps as much of its source's attributes as the
// configured options and the host platform allow.
package preserve

import (
	"os"
	"time"

	"github.com/ivoronin/filesync/internal/syncerr"
)

// Options controls which attributes Copy carries over from
// source to destination. Defaults mirror a conservative sync: timestamps
// and permission bits are preserved, ownership and extended attributes
// are not (changing either usually requires privileges the sync process
// doesn't have).
type Options struct {
	PreserveModTime       bool
	PreserveAccessTime    bool
	PreservePermissions   bool
	PreserveOwnership     bool
	PreserveExtendedAttrs bool
	PreserveSymlinks      bool
}

// DefaultOptions returns the conservative default preservation policy.
func DefaultOptions() Options {
	return Options{
		PreserveModTime:     true,
		PreserveAccessTime:  false,
		PreservePermissions: true,
		PreserveOwnership:   false,
		PreserveExtendedAttrs: false,
		PreserveSymlinks:    true,
	}
}

// Attributes is a snapshot of a file's metadata, extracted from one file
// and later applied to another. Zero-value fields mean "not captured",
// either because the option for that attribute was off or the platform
// can't report it.
type Attributes struct {
	ModTime     time.Time
	AccessTime  time.Time
	HasAccess   bool
	Permissions os.FileMode
	HasPerms    bool
	UID         int
	GID         int
	HasOwner    bool
}

// Preserver extracts and reapplies Attributes according to an Options
// policy.
type Preserver struct {
	opts Options
}

func New(opts Options) *Preserver {
	return &Preserver{opts: opts}
}

// Extract reads path's current metadata into an Attributes snapshot,
// capturing only what opts asks for.
func (p *Preserver) Extract(path string) (Attributes, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Attributes{}, syncerr.Wrap(syncerr.Preservation, "reading attributes", path, err)
	}

	var attrs Attributes
	if p.opts.PreserveModTime {
		attrs.ModTime = info.ModTime()
	}
	if p.opts.PreservePermissions {
		attrs.Permissions = info.Mode().Perm()
		attrs.HasPerms = true
	}
	if p.opts.PreserveAccessTime {
		if at, ok := accessTime(info); ok {
			attrs.AccessTime = at
			attrs.HasAccess = true
		}
	}
	if p.opts.PreserveOwnership {
		if uid, gid, ok := ownerOf(info); ok {
			attrs.UID, attrs.GID = uid, gid
			attrs.HasOwner = true
		}
	}
	return attrs, nil
}

// Apply writes attrs onto path, skipping any field the current options
// don't ask for or the snapshot never captured.
func (p *Preserver) Apply(path string, attrs Attributes) error {
	if p.opts.PreservePermissions && attrs.HasPerms {
		if err := os.Chmod(path, attrs.Permissions); err != nil {
			return syncerr.Wrap(syncerr.Preservation, "setting permissions", path, err)
		}
	}

	if p.opts.PreserveOwnership && attrs.HasOwner {
		if err := chown(path, attrs.UID, attrs.GID); err != nil {
			return syncerr.Wrap(syncerr.Preservation, "setting ownership", path, err)
		}
	}

	if p.opts.PreserveModTime && !attrs.ModTime.IsZero() {
		accessTime := attrs.AccessTime
		if !p.opts.PreserveAccessTime || !attrs.HasAccess {
			accessTime = attrs.ModTime
		}
		if err := os.Chtimes(path, accessTime, attrs.ModTime); err != nil {
			return syncerr.Wrap(syncerr.Preservation, "setting timestamps", path, err)
		}
	} else if p.opts.PreserveAccessTime && attrs.HasAccess {
		info, err := os.Stat(path)
		if err != nil {
			return syncerr.Wrap(syncerr.Preservation, "reading timestamps", path, err)
		}
		if err := os.Chtimes(path, attrs.AccessTime, info.ModTime()); err != nil {
			return syncerr.Wrap(syncerr.Preservation, "setting timestamps", path, err)
		}
	}

	return nil
}

// Copy extracts src's attributes and applies them to dst in one step.
func (p *Preserver) Copy(src, dst string) error {
	attrs, err := p.Extract(src)
	if err != nil {
		return err
	}
	return p.Apply(dst, attrs)
}
