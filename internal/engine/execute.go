package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ivoronin/filesync/internal/metrics"
	"github.com/ivoronin/filesync/internal/model"
	"github.com/ivoronin/filesync/internal/syncerr"
)

func joinPath(root, relPath string) string {
	if relPath == "." {
		return root
	}
	return filepath.Join(root, relPath)
}

// executeAction dispatches a single action by kind and returns the
// ActionKind actually performed — for Conflict, that's whatever the
// resolver's re-dispatched action turned out to be, not
// model.ActionConflict itself, so metrics bucket it correctly.
func (e *Engine) executeAction(ctx context.Context, action model.SyncAction, srcRoot, dstRoot string, m *metrics.SyncMetrics) (model.ActionKind, error) {
	switch action.Kind {
	case model.ActionCopy, model.ActionUpdate:
		srcPath := joinPath(srcRoot, action.SrcRelPath)
		dstPath := joinPath(dstRoot, action.DstRelPath)
		if err := e.copyFile(ctx, srcPath, dstPath); err != nil {
			return action.Kind, err
		}
		return action.Kind, nil

	case model.ActionDelete:
		if err := e.deleteFile(joinPath(dstRoot, action.DstRelPath)); err != nil {
			return action.Kind, err
		}
		return action.Kind, nil

	case model.ActionCreateDirectory:
		if err := e.createDirectory(joinPath(dstRoot, action.RelPath())); err != nil {
			return action.Kind, err
		}
		return action.Kind, nil

	case model.ActionConflict:
		srcPath := joinPath(srcRoot, action.SrcRelPath)
		dstPath := joinPath(dstRoot, action.DstRelPath)

		strategy := e.resolver.StrategyFor(action.ConflictKind)
		resolved, err := e.resolver.Resolve(srcPath, dstPath, action)
		if err != nil {
			return action.Kind, err
		}

		autoResolved := resolved.Kind != model.ActionConflict
		if m != nil {
			m.RecordConflictResolution(strategy.String(), autoResolved)
		}

		if !autoResolved {
			// Manual resolution: nothing more to do, the suggestion
			// already rode along on resolved.Reason.
			return model.ActionConflict, nil
		}
		return e.executeAction(ctx, resolved, srcRoot, dstRoot, m)

	case model.ActionSkip:
		return model.ActionSkip, nil

	default:
		return action.Kind, syncerr.New(syncerr.IO, "unrecognized action kind", nil)
	}
}

// copyFile copies src to dst, creating dst's parent directory first,
// then preserves attributes if any preservation flag is enabled. A
// preservation failure is logged but does not fail the copy.
func (e *Engine) copyFile(ctx context.Context, src, dst string) error {
	if e.opts.DryRun {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return syncerr.Wrap(syncerr.IO, "creating destination parent directory", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return syncerr.Wrap(syncerr.Copy, "opening source file", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return syncerr.Wrap(syncerr.Copy, "creating destination file", dst, err)
	}

	bufSize := e.opts.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	if _, err := io.CopyBuffer(out, in, make([]byte, bufSize)); err != nil {
		out.Close()
		return syncerr.Wrap(syncerr.Copy, "copying file contents", dst, err)
	}
	if err := out.Close(); err != nil {
		return syncerr.Wrap(syncerr.Copy, "closing destination file", dst, err)
	}

	po := e.opts.PreservationOptions
	if po.PreserveModTime || po.PreserveAccessTime || po.PreservePermissions ||
		po.PreserveOwnership || po.PreserveExtendedAttrs || po.PreserveSymlinks {
		if err := e.preserver.Copy(src, dst); err != nil {
			e.logger.Warn("failed to preserve attributes", "path", dst, "err", err)
		}
	}

	return nil
}

func (e *Engine) deleteFile(path string) error {
	if e.opts.DryRun {
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return syncerr.Wrap(syncerr.Delete, "stating path to delete", path, err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return syncerr.Wrap(syncerr.Delete, "removing directory", path, err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return syncerr.Wrap(syncerr.Delete, "removing file", path, err)
	}
	return nil
}

func (e *Engine) createDirectory(path string) error {
	if e.opts.DryRun {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return syncerr.Wrap(syncerr.IO, "creating directory", path, err)
	}
	return nil
}

