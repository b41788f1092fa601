// Package mount implements the privileged mount/unmount orchestrator: the
// component a sudo rule points at, which re-validates the storage path it
// was handed and exposes exactly one remote file inside the invoking
// user's sandbox through a two-stage bind sequence.
package mount

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starbind/starbind/internal/logger"
	"github.com/starbind/starbind/pkg/mount/errors"
	"github.com/starbind/starbind/pkg/rsepath"
)

// Outcome reports a completed operation back to the operator.
type Outcome struct {
	// Message is the human-readable confirmation, printed on success.
	Message string

	// Warnings are non-fatal conditions encountered along the way.
	// Unmount collects them instead of failing so that retrying after a
	// partial failure converges instead of erroring forever.
	Warnings []string
}

// Orchestrator sequences the privileged mount and unmount operations.
// All side effects go through the injected Binder and the filesystem;
// mount-state questions go through the injected Table. It holds no state
// of its own between invocations.
type Orchestrator struct {
	opts   Options
	binder Binder
	table  Table
	log    *slog.Logger
}

// New creates an orchestrator. A nil log uses the package-global logger.
func New(opts Options, binder Binder, table Table, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = logger.With()
	}
	return &Orchestrator{opts: opts, binder: binder, table: table, log: log}
}

// Mount exposes the file named by storagePath inside the invoking user's
// sandbox. The sequence is: decompose and validate the path, check the
// claimed group against the path's namespace, take the per-stem advisory
// lock, check the mount table for cycles, create and chown the sandbox
// directories, bindfs the remote parent directory, kernel-bind the single
// target file, and verify the final path is a mountpoint.
//
// Validation failures happen before any filesystem mutation. A failed
// verification deliberately leaves partial state in place: rolling back
// automatically would hide a broken verification step, and Unmount is
// built to clean up partial state safely.
func (o *Orchestrator) Mount(ctx context.Context, inv Invocation, storagePath, claimedGroup string) (Outcome, error) {
	dec, err := rsepath.Decompose(storagePath)
	if err != nil {
		return Outcome{}, err
	}

	if dec.Namespace != claimedGroup {
		return Outcome{}, errors.NewGroupMismatchError(dec.Namespace, claimedGroup)
	}

	lock, err := AcquireLock(o.opts.LockDir, inv.Username, dec.Stem)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = lock.Release() }()
	lock.Annotate(logger.KeyOperation, "mount")

	layout := NewLayout(inv, dec, o.opts)
	log := o.log.With(
		logger.KeyStem, dec.Stem,
		logger.KeyUsername, inv.Username,
		logger.KeyStagingMode, string(layout.Mode),
	)

	// The guard checks the exact paths that will receive mounts, never an
	// ancestor: a second mount for the same stem must fail here while the
	// first stays untouched.
	for _, target := range layout.MountTargets() {
		mounted, err := o.table.IsMountPoint(target)
		if err != nil {
			return Outcome{}, fmt.Errorf("checking mount table for %s: %w", target, err)
		}
		if mounted {
			return Outcome{}, errors.NewAlreadyMountedError(target)
		}
	}

	if err := o.createSandbox(inv, layout); err != nil {
		return Outcome{}, err
	}
	log.Debug("sandbox prepared", logger.KeyPath, layout.ProjectPath)

	bindfsTarget := layout.ProjectPath
	if layout.Mode == StagingTwoStage {
		bindfsTarget = layout.StagingDir
	}
	if err := o.binder.Bindfs(ctx, layout.SourceDir, bindfsTarget, inv.UID, inv.GID); err != nil {
		return Outcome{}, err
	}
	log.Debug("staging bind established", logger.KeySource, layout.SourceDir, logger.KeyTarget, bindfsTarget)

	if layout.Mode == StagingTwoStage {
		if err := o.binder.Bind(ctx, layout.SourceFile, layout.ProjectPath); err != nil {
			// The staging bind just created would otherwise leak with no
			// project mount referencing it. Best effort: a failure here
			// leaves state for Unmount to converge on.
			if uerr := o.binder.Unmount(ctx, layout.StagingDir); uerr != nil {
				log.Warn("could not undo staging bind after failed project bind", logger.KeyError, uerr)
			}
			return Outcome{}, err
		}
	}

	mounted, err := o.table.IsMountPoint(layout.ProjectPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("verifying mount of %s: %w", layout.ProjectPath, err)
	}
	if !mounted {
		return Outcome{}, errors.NewVerificationFailedError(dec.FileName, layout.ProjectPath)
	}

	log.Info("mount verified", logger.KeyPath, layout.ProjectPath)
	return Outcome{
		Message: fmt.Sprintf("Mount verification successful: %s is mounted at %s", dec.FileName, layout.ProjectPath),
	}, nil
}

// Unmount reverses the Mount sequence for storagePath. Every step
// tolerates "not mounted" and "does not exist": the operation is safely
// re-runnable and converges to a fully unmounted state. Artifact removal
// is gated on the path no longer being a mountpoint, so a stuck unmount
// can never delete remote data through a live bind.
func (o *Orchestrator) Unmount(ctx context.Context, inv Invocation, storagePath string) (Outcome, error) {
	dec, err := rsepath.Decompose(storagePath)
	if err != nil {
		return Outcome{}, err
	}

	lock, err := AcquireLock(o.opts.LockDir, inv.Username, dec.Stem)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = lock.Release() }()
	lock.Annotate(logger.KeyOperation, "unmount")

	layout := NewLayout(inv, dec, o.opts)
	log := o.log.With(logger.KeyStem, dec.Stem, logger.KeyUsername, inv.Username)

	var outcome Outcome
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Warn(msg)
		outcome.Warnings = append(outcome.Warnings, msg)
	}

	// Unmount in reverse mount order: the project path first, then the
	// staging bind underneath it.
	targets := layout.MountTargets()
	for i := len(targets) - 1; i >= 0; i-- {
		o.unmountTolerant(ctx, targets[i], warn)
	}

	o.removeArtifact(layout.StagingDir, true, warn)
	o.removeArtifact(layout.ProjectPath, layout.Mode == StagingDirect, warn)

	log.Info("unmount complete", logger.KeyPath, layout.ProjectPath)
	outcome.Message = fmt.Sprintf("Unmounted %s from %s", dec.FileName, layout.ProjectPath)
	return outcome, nil
}

// createSandbox builds the directory tree the binds land in and hands
// ownership to the invoking user. Directories are 0700 and the project
// file 0600: nothing under the sandbox is readable by anyone else.
func (o *Orchestrator) createSandbox(inv Invocation, layout Layout) error {
	dirs := []string{layout.ProjectsDir}
	if layout.Mode == StagingTwoStage {
		dirs = append(dirs, layout.StagingDir)
	} else {
		dirs = append(dirs, layout.ProjectPath)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	chowns := []string{layout.ProjectsDir}
	if layout.Mode == StagingTwoStage {
		chowns = append(chowns, layout.BindsRoot, layout.StagingDir)

		f, err := os.OpenFile(layout.ProjectPath, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("creating %s: %w", layout.ProjectPath, err)
		}
		_ = f.Close()
		if err := os.Chmod(layout.ProjectPath, 0o600); err != nil {
			return fmt.Errorf("setting mode of %s: %w", layout.ProjectPath, err)
		}
	}
	chowns = append(chowns, layout.ProjectPath)

	for _, path := range chowns {
		if err := os.Chown(path, int(inv.UID), int(inv.GID)); err != nil {
			return fmt.Errorf("setting ownership of %s: %w", path, err)
		}
	}
	return nil
}

// unmountTolerant detaches target if it is currently mounted, downgrading
// every failure to a warning.
func (o *Orchestrator) unmountTolerant(ctx context.Context, target string, warn func(string, ...any)) {
	mounted, err := o.table.IsMountPoint(target)
	if err != nil {
		warn("could not check mount table for %s: %v", target, err)
		return
	}
	if !mounted {
		return
	}
	if err := o.binder.Unmount(ctx, target); err != nil {
		warn("failed to unmount %s: %v", target, err)
	}
}

// removeArtifact deletes a leftover sandbox entry once it is no longer a
// mountpoint. recursive selects RemoveAll for directories that may have
// content of their own.
func (o *Orchestrator) removeArtifact(path string, recursive bool, warn func(string, ...any)) {
	if path == "" {
		return
	}
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return
	}

	mounted, err := o.table.IsMountPoint(path)
	if err != nil {
		warn("could not check mount table for %s: %v", path, err)
		return
	}
	if mounted {
		warn("%s is still mounted, leaving it in place", path)
		return
	}

	if recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		warn("failed to remove %s: %v", path, err)
	}
}
