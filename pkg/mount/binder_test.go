package mount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mounterrors "github.com/starbind/starbind/pkg/mount/errors"
)

func TestBindfsArgs(t *testing.T) {
	args := bindfsArgs("/skadata/astro", "/home/alice/.binds/map", 1000, 1000)
	assert.Equal(t, []string{
		"--perms=0700",
		"--force-user=1000",
		"--force-group=1000",
		"/skadata/astro",
		"/home/alice/.binds/map",
	}, args)
}

func TestExecBinderRefusesRelativePaths(t *testing.T) {
	b := &ExecBinder{BindfsPath: "/usr/bin/bindfs", MountPath: "/bin/mount", UmountPath: "/bin/umount"}
	ctx := context.Background()

	err := b.Bindfs(ctx, "relative/source", "/abs/target", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-absolute")

	err = b.Bind(ctx, "/abs/source", "--options=evil")
	require.Error(t, err)
	assert.True(t, mounterrors.IsMountFailed(err))

	err = b.Unmount(ctx, "not-absolute")
	require.Error(t, err)
	assert.True(t, mounterrors.IsUnmountFailed(err))
}

func TestExecBinderReportsMissingPrograms(t *testing.T) {
	b := &ExecBinder{}
	ctx := context.Background()

	err := b.Bindfs(ctx, "/a", "/b", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bindfs is not installed")

	err = b.Bind(ctx, "/a", "/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mount program")

	err = b.Unmount(ctx, "/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "umount program")
}

func TestHintFor(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"fuse: Transport endpoint is not connected", "a previous bindfs process died; unmount the stale mountpoint first"},
		{"umount: /home/alice/projects/map.fits: target is busy.", "a process is still using the mountpoint"},
		{"mount: only root can do that", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hintFor(tt.output), "output %q", tt.output)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond\nthird"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "", firstLine(""))
}
