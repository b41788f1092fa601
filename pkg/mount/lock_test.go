package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mounterrors "github.com/starbind/starbind/pkg/mount/errors"
)

func TestAcquireLockBlocksSameUserAndStem(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	defer func() { _ = first.Release() }()

	_, err = AcquireLock(dir, "alice", "map")
	require.Error(t, err)
	assert.True(t, mounterrors.IsLockBusy(err))
}

func TestAcquireLockIndependentKeys(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	defer func() { _ = first.Release() }()

	otherStem, err := AcquireLock(dir, "alice", "catalog")
	require.NoError(t, err)
	defer func() { _ = otherStem.Release() }()

	otherUser, err := AcquireLock(dir, "bob", "map")
	require.NoError(t, err)
	defer func() { _ = otherUser.Release() }()
}

func TestReleaseAllowsReacquisition(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release(), "double release is safe")

	again, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	defer func() { _ = again.Release() }()
}

func TestLockFilePersistsAfterRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	path := lock.Path()
	assert.Equal(t, filepath.Join(dir, "alice-map.lock"), path)
	require.NoError(t, lock.Release())

	// Removing the file on release would let a concurrent invocation lock
	// a fresh inode, reopening the race the lock closes.
	assert.FileExists(t, path)
}

func TestAcquireLockCreatesLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "locks")

	lock, err := AcquireLock(dir, "alice", "map")
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
