package mount

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starbind/starbind/pkg/mount/errors"
)

// Binder runs the external mount programs. The production implementation
// shells out to bindfs, mount and umount; tests substitute a fake so no
// real mounts and no root privileges are needed.
type Binder interface {
	// Bindfs mounts source onto target with ownership remapped to uid/gid
	// and permissions forced to 0700.
	Bindfs(ctx context.Context, source, target string, uid, gid uint32) error

	// Bind kernel-bind-mounts source onto target.
	Bind(ctx context.Context, source, target string) error

	// Unmount detaches the mount at target.
	Unmount(ctx context.Context, target string) error
}

// ExecBinder shells out to the system mount programs.
type ExecBinder struct {
	BindfsPath string
	MountPath  string
	UmountPath string
}

// NewExecBinder locates bindfs, mount and umount on PATH. A missing
// program is reported when the corresponding operation is attempted, not
// here, so unmount still works on a host where bindfs was removed.
func NewExecBinder() *ExecBinder {
	b := &ExecBinder{}
	if path, err := exec.LookPath("bindfs"); err == nil {
		b.BindfsPath = path
	}
	if path, err := exec.LookPath("mount"); err == nil {
		b.MountPath = path
	}
	if path, err := exec.LookPath("umount"); err == nil {
		b.UmountPath = path
	}
	return b
}

// Bindfs implements Binder.
func (b *ExecBinder) Bindfs(ctx context.Context, source, target string, uid, gid uint32) error {
	if b.BindfsPath == "" {
		return errors.NewMountFailedError(target, "bindfs is not installed (install it with your package manager)")
	}
	if err := requireAbsolute(errors.ErrMountFailed, source, target); err != nil {
		return err
	}
	return b.run(ctx, errors.ErrMountFailed, target, b.BindfsPath, bindfsArgs(source, target, uid, gid)...)
}

// Bind implements Binder.
func (b *ExecBinder) Bind(ctx context.Context, source, target string) error {
	if b.MountPath == "" {
		return errors.NewMountFailedError(target, "the mount program was not found on PATH")
	}
	if err := requireAbsolute(errors.ErrMountFailed, source, target); err != nil {
		return err
	}
	return b.run(ctx, errors.ErrMountFailed, target, b.MountPath, "--bind", source, target)
}

// Unmount implements Binder.
func (b *ExecBinder) Unmount(ctx context.Context, target string) error {
	if b.UmountPath == "" {
		return errors.NewUnmountFailedError(target, "the umount program was not found on PATH")
	}
	if err := requireAbsolute(errors.ErrUnmountFailed, target); err != nil {
		return err
	}
	return b.run(ctx, errors.ErrUnmountFailed, target, b.UmountPath, target)
}

func bindfsArgs(source, target string, uid, gid uint32) []string {
	return []string{
		"--perms=0700",
		"--force-user=" + strconv.FormatUint(uint64(uid), 10),
		"--force-group=" + strconv.FormatUint(uint64(gid), 10),
		source,
		target,
	}
}

// requireAbsolute refuses to hand a non-absolute path to an external mount
// program. Layout paths are always absolute; anything else reaching this
// point is a programming error, and absolute paths can never be mistaken
// for options.
func requireAbsolute(code errors.ErrorCode, paths ...string) error {
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			return &errors.MountError{
				Code:    code,
				Message: "refusing to pass a non-absolute path to a mount program",
				Path:    path,
			}
		}
	}
	return nil
}

func (b *ExecBinder) run(ctx context.Context, code errors.ErrorCode, target, program string, args ...string) error {
	output, err := exec.CommandContext(ctx, program, args...).CombinedOutput()
	if err == nil {
		return nil
	}

	base := filepath.Base(program)
	trimmed := strings.TrimSpace(string(output))
	var message string
	if trimmed != "" {
		message = fmt.Sprintf("%s: %s", base, firstLine(trimmed))
	} else {
		message = fmt.Sprintf("%s: %v", base, err)
	}
	if hint := hintFor(trimmed); hint != "" {
		message += " (" + hint + ")"
	}

	return &errors.MountError{Code: code, Message: message, Path: target}
}

// mountHints maps fragments of mount-program output to operator hints.
var mountHints = []struct {
	keyword string
	hint    string
}{
	{"transport endpoint is not connected", "a previous bindfs process died; unmount the stale mountpoint first"},
	{"target is busy", "a process is still using the mountpoint"},
	{"device is busy", "a process is still using the mountpoint"},
	{"operation not permitted", "the kernel refused the request; check that the helper runs as root"},
}

func hintFor(output string) string {
	lowered := strings.ToLower(output)
	for _, h := range mountHints {
		if strings.Contains(lowered, h.keyword) {
			return h.hint
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
