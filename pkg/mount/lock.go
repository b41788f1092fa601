package mount

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/starbind/starbind/pkg/mount/errors"
)

// OperationLock is a held advisory lock for one (user, stem) pair. The
// mount-table check and the mount that follows it are not atomic, so two
// concurrent invocations for the same stem could both pass the cycle
// guard; holding this lock across the whole operation closes that window.
type OperationLock struct {
	path string
	file *os.File
}

// AcquireLock takes a non-blocking flock on <lockDir>/<user>-<stem>.lock.
// A held lock fails fast with a LockBusy error rather than waiting: the
// caller is a one-shot process and the operator can simply retry.
//
// The lock file is never removed on release. Unlinking it would let a
// second invocation open a fresh inode and lock that instead, which is
// exactly the race the lock exists to close.
func AcquireLock(lockDir, username, stem string) (*OperationLock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory %s: %w", lockDir, err)
	}

	path := filepath.Join(lockDir, username+"-"+stem+".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errors.NewLockBusyError(path)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	// Record who holds the lock for diagnosis. Best effort: the flock is
	// the authority, the contents are only for humans.
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "pid=%d\n", os.Getpid())

	return &OperationLock{path: path, file: f}, nil
}

// Annotate appends a diagnostic line to the lock file, typically the
// operation ID once it is known.
func (l *OperationLock) Annotate(key, value string) {
	_, _ = fmt.Fprintf(l.file, "%s=%s\n", key, value)
}

// Path returns the lock file path.
func (l *OperationLock) Path() string {
	return l.path
}

// Release drops the flock. Safe to call more than once.
func (l *OperationLock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = l.file.Truncate(0)
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return closeErr
}
