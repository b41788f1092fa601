package mount

import (
	"path/filepath"

	"github.com/starbind/starbind/pkg/rsepath"
)

// StagingMode selects how the sandbox exposes a mounted file.
type StagingMode string

const (
	// StagingTwoStage stages the parent directory under a hidden binds
	// directory via bindfs, then bind-mounts the single requested file into
	// the projects directory. Only that file becomes visible to the user.
	StagingTwoStage StagingMode = "twoStage"

	// StagingDirect bindfs-mounts the parent directory straight into the
	// projects directory under the stem. The whole directory becomes
	// visible; there is no second stage.
	StagingDirect StagingMode = "direct"
)

// Valid reports whether m is a supported staging mode.
func (m StagingMode) Valid() bool {
	return m == StagingTwoStage || m == StagingDirect
}

// Layout holds every path one mount or unmount operation touches, computed
// up front so the cycle guard can inspect the exact mount-receiving paths
// before anything is created.
type Layout struct {
	// Mode is the staging mode the layout was computed for.
	Mode StagingMode

	// SourceDir is the storage directory handed to bindfs:
	// <storageRoot>/<parentDir>.
	SourceDir string

	// SourceFile is the requested file as seen through the staged
	// directory, the source of the kernel bind. Empty in direct mode.
	SourceFile string

	// BindsRoot is <home>/<bindsDir>, the parent of all staging
	// directories.
	BindsRoot string

	// StagingDir is <bindsRoot>/<stem>, the bindfs target. Empty in direct
	// mode.
	StagingDir string

	// ProjectsDir is <home>/<projectsDir>.
	ProjectsDir string

	// ProjectPath is the final path exposed to the user and the target of
	// post-mount verification: <projectsDir>/<fileName> in twoStage mode,
	// <projectsDir>/<stem> in direct mode.
	ProjectPath string
}

// NewLayout computes the sandbox layout for one decomposed path and one
// invoking user.
func NewLayout(inv Invocation, dec rsepath.Decomposed, opts Options) Layout {
	l := Layout{
		Mode:        opts.StagingMode,
		SourceDir:   filepath.Join(opts.StorageRoot, filepath.FromSlash(dec.ParentDir)),
		BindsRoot:   filepath.Join(inv.HomeDir, opts.BindsDir),
		ProjectsDir: filepath.Join(inv.HomeDir, opts.ProjectsDir),
	}

	switch opts.StagingMode {
	case StagingDirect:
		l.ProjectPath = filepath.Join(l.ProjectsDir, dec.Stem)
	default:
		l.StagingDir = filepath.Join(l.BindsRoot, dec.Stem)
		l.SourceFile = filepath.Join(l.StagingDir, dec.FileName)
		l.ProjectPath = filepath.Join(l.ProjectsDir, dec.FileName)
	}

	return l
}

// MountTargets returns the paths that will receive mounts, in mount order.
// The cycle guard checks exactly these paths, never their ancestors: a
// mounted home directory is legitimate, a mounted staging or project path
// is a duplicate or a cycle.
func (l Layout) MountTargets() []string {
	if l.Mode == StagingDirect {
		return []string{l.ProjectPath}
	}
	return []string{l.StagingDir, l.ProjectPath}
}
