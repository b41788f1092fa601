package mount

// Options carries the storage and sandbox settings one orchestrator
// instance operates with. The helper fills it from the root-owned system
// configuration; tests fill it by hand.
type Options struct {
	// StorageRoot is the absolute path the storage-relative paths hang
	// off, e.g. /skadata.
	StorageRoot string

	// StagingMode selects the two-stage or the direct sandbox layout.
	StagingMode StagingMode

	// BindsDir is the staging directory name under the user's home,
	// e.g. ".binds". Unused in direct mode.
	BindsDir string

	// ProjectsDir is the user-visible directory name under the user's
	// home, e.g. "projects".
	ProjectsDir string

	// LockDir is the directory holding advisory operation locks,
	// e.g. /run/lock/starbind.
	LockDir string
}

// DefaultOptions returns the layout the deployment documentation
// describes.
func DefaultOptions() Options {
	return Options{
		StorageRoot: "/skadata",
		StagingMode: StagingTwoStage,
		BindsDir:    ".binds",
		ProjectsDir: "projects",
		LockDir:     "/run/lock/starbind",
	}
}
