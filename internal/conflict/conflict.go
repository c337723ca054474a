// Package conflict resolves SyncAction values of kind Conflict into a
// concrete follow-up action (Update, Skip, or a Manual-required
// Conflict with a suggestion attached), per a configured strategy.
package conflict

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ivoronin/filesync/internal/model"
	"github.com/ivoronin/filesync/internal/syncerr"
)

// Strategy selects how a conflict is resolved.
type Strategy int

const (
	PreferSource Strategy = iota
	PreferDestination
	PreferNewer
	PreferOlder
	PreferLarger
	PreferSmaller
	Skip
	BackupAndUseSource
	BackupAndKeepDestination
	Manual
	Fail
)

func (s Strategy) String() string {
	switch s {
	case PreferSource:
		return "PreferSource"
	case PreferDestination:
		return "PreferDestination"
	case PreferNewer:
		return "PreferNewer"
	case PreferOlder:
		return "PreferOlder"
	case PreferLarger:
		return "PreferLarger"
	case PreferSmaller:
		return "PreferSmaller"
	case Skip:
		return "Skip"
	case BackupAndUseSource:
		return "BackupAndUseSource"
	case BackupAndKeepDestination:
		return "BackupAndKeepDestination"
	case Manual:
		return "Manual"
	case Fail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Preset bundles a default strategy with conflict-kind overrides,
// mirroring the original's common presets.
type Preset int

const (
	SafeSync Preset = iota
	ForceSource
	ForceDestination
	PreferNewerPreset
	SkipConflicts
)

// Resolver applies a default strategy, with optional per-ConflictKind
// overrides, to Conflict actions. When a strategy needs a backup, the
// resolver performs the backup move itself (rather than returning a
// path for the caller to act on) and hands back the action the
// executor should apply next — the executor never needs to know a
// backup happened.
type Resolver struct {
	defaultStrategy Strategy
	typeStrategies  map[model.ConflictKind]Strategy
	backupDirectory string
}

func New(defaultStrategy Strategy) *Resolver {
	return &Resolver{
		defaultStrategy: defaultStrategy,
		typeStrategies:  make(map[model.ConflictKind]Strategy),
	}
}

// WithPreset builds a Resolver from one of the named presets.
func WithPreset(preset Preset) *Resolver {
	var r *Resolver
	switch preset {
	case SafeSync:
		r = New(Manual)
		r.SetStrategyForKind(model.ConflictFileDirectoryConflict, Fail)
		r.SetStrategyForKind(model.ConflictTypeMismatch, Manual)
	case ForceSource:
		r = New(PreferSource)
	case ForceDestination:
		r = New(PreferDestination)
	case PreferNewerPreset:
		r = New(PreferNewer)
	case SkipConflicts:
		r = New(Skip)
	default:
		r = New(Manual)
	}
	return r
}

func (r *Resolver) SetStrategyForKind(kind model.ConflictKind, strategy Strategy) {
	r.typeStrategies[kind] = strategy
}

func (r *Resolver) SetBackupDirectory(dir string) {
	r.backupDirectory = dir
}

func (r *Resolver) strategyFor(kind model.ConflictKind) Strategy {
	if s, ok := r.typeStrategies[kind]; ok {
		return s
	}
	return r.defaultStrategy
}

// StrategyFor exposes the strategy that will be applied to a conflict
// of the given kind, honoring any per-kind override, so callers can
// record it before or after invoking Resolve.
func (r *Resolver) StrategyFor(kind model.ConflictKind) Strategy {
	return r.strategyFor(kind)
}

// Resolve turns a Conflict action into the action the executor should
// apply. srcPath/dstPath are the absolute filesystem paths the conflict
// refers to — needed only for the backup strategies, which read the
// file about to be discarded.
func (r *Resolver) Resolve(srcPath, dstPath string, conflict model.SyncAction) (model.SyncAction, error) {
	return r.apply(r.strategyFor(conflict.ConflictKind), srcPath, dstPath, conflict)
}

func (r *Resolver) apply(strategy Strategy, srcPath, dstPath string, c model.SyncAction) (model.SyncAction, error) {
	switch strategy {
	case PreferSource:
		return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil

	case PreferDestination:
		return model.Skip(c.DstRelPath, "kept destination per PreferDestination strategy"), nil

	case PreferNewer:
		switch {
		case c.SrcInfo.ModTime.After(c.DstInfo.ModTime):
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil
		case c.DstInfo.ModTime.After(c.SrcInfo.ModTime):
			return model.Skip(c.DstRelPath, "kept newer destination"), nil
		default:
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil // tie: prefer source
		}

	case PreferOlder:
		switch {
		case c.SrcInfo.ModTime.Before(c.DstInfo.ModTime):
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil
		case c.DstInfo.ModTime.Before(c.SrcInfo.ModTime):
			return model.Skip(c.DstRelPath, "kept older destination"), nil
		default:
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil // tie: prefer source
		}

	case PreferLarger:
		switch {
		case c.SrcInfo.Size > c.DstInfo.Size:
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil
		case c.DstInfo.Size > c.SrcInfo.Size:
			return model.Skip(c.DstRelPath, "kept larger destination"), nil
		default:
			return r.apply(PreferNewer, srcPath, dstPath, c) // tie: fall back to newer
		}

	case PreferSmaller:
		switch {
		case c.SrcInfo.Size < c.DstInfo.Size:
			return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil
		case c.DstInfo.Size < c.SrcInfo.Size:
			return model.Skip(c.DstRelPath, "kept smaller destination"), nil
		default:
			return r.apply(PreferNewer, srcPath, dstPath, c) // tie: fall back to newer
		}

	case Skip:
		return model.Skip(c.DstRelPath, "skipped due to conflict"), nil

	case BackupAndUseSource:
		if err := r.backupFile(dstPath, "dst", true); err != nil {
			return model.SyncAction{}, err
		}
		return model.Update(c.SrcRelPath, c.DstRelPath, c.SrcInfo.Size), nil

	case BackupAndKeepDestination:
		if err := r.backupFile(srcPath, "src", false); err != nil {
			return model.SyncAction{}, err
		}
		return model.Skip(c.DstRelPath, "kept destination, source archived to backup"), nil

	case Manual:
		suggestion := Suggest(c.ConflictKind, c.SrcInfo, c.DstInfo)
		manual := c
		manual.Reason = suggestion
		return manual, nil

	case Fail:
		return model.SyncAction{}, syncerr.New(syncerr.ConflictResolution,
			fmt.Sprintf("conflict resolution strategy is set to fail on conflict kind %s", c.ConflictKind), nil)

	default:
		return model.SyncAction{}, syncerr.New(syncerr.ConflictResolution, "unknown conflict strategy", nil)
	}
}

// backupFile archives the file at path into the resolver's backup
// directory, named "<basename>_<suffix>.<UTC timestamp>". When move is
// true, the original is renamed into the backup location (the caller
// is about to overwrite it); otherwise it is copied, leaving the
// original in place (its version is discarded from the sync, but the
// file itself is not overwritten).
func (r *Resolver) backupFile(path, suffix string, move bool) error {
	if r.backupDirectory == "" {
		return syncerr.New(syncerr.ConflictResolution, "no backup directory configured", nil)
	}
	if err := os.MkdirAll(r.backupDirectory, 0o755); err != nil {
		return syncerr.Wrap(syncerr.IO, "creating backup directory", r.backupDirectory, err)
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	backupName := fmt.Sprintf("%s_%s.%s", filepath.Base(path), suffix, timestamp)
	backupPath := filepath.Join(r.backupDirectory, backupName)

	if move {
		if err := os.Rename(path, backupPath); err == nil {
			return nil
		}
		// Fall through to copy+remove for cross-device renames.
	}
	if err := copyFile(path, backupPath); err != nil {
		return syncerr.Wrap(syncerr.ConflictResolution, "backing up file", path, err)
	}
	if move {
		if err := os.Remove(path); err != nil {
			return syncerr.Wrap(syncerr.IO, "removing original after backup", path, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// Suggest renders the human-readable suggestion text for a Manual
// resolution, tailored to the conflict kind.
func Suggest(kind model.ConflictKind, srcInfo, dstInfo model.FileInfo) string {
	switch kind {
	case model.ConflictBothModified:
		switch {
		case srcInfo.ModTime.After(dstInfo.ModTime):
			return "source file is newer, consider using source"
		case dstInfo.ModTime.After(srcInfo.ModTime):
			return "destination file is newer, consider keeping destination"
		default:
			return "files have same modification time, consider comparing content"
		}
	case model.ConflictFileDirectoryConflict:
		return "file/directory conflict: consider renaming one of them"
	case model.ConflictTypeMismatch:
		return "file type mismatch: check if both files are needed"
	case model.ConflictPermissionConflict:
		return "permission conflict: verify which permissions are correct"
	case model.ConflictSizeMismatch:
		if srcInfo.Size > dstInfo.Size {
			return "source file is larger, may contain more data"
		}
		return "destination file is larger, may contain more data"
	default:
		return "manual resolution required"
	}
}
