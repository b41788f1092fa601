package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/output"
	"github.com/starbind/starbind/pkg/mount"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sandbox mounts",
	Long: `List the mounts currently active under your sandbox directories.

The mount table is read directly, so this command needs no privileges
and reflects reality even after a reboot or a manual umount.

Examples:
  # List your active mounts
  starbind list

  # Output as JSON
  starbind list -o json`,
	RunE: runList,
}

// sandboxMount is one active mount for display.
type sandboxMount struct {
	Path   string `json:"path"   yaml:"path"`
	Type   string `json:"type"   yaml:"type"`
	Source string `json:"source" yaml:"source"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	entries, err := mount.NewProcTable().Entries()
	if err != nil {
		return err
	}

	roots := []string{
		filepath.Join(home, cfg.Storage.ProjectsDir),
		filepath.Join(home, cfg.Storage.BindsDir),
	}

	var mounts []sandboxMount
	for _, entry := range entries {
		if !underAny(entry.MountPoint, roots) {
			continue
		}
		mounts = append(mounts, sandboxMount{
			Path:   entry.MountPoint,
			Type:   entry.FSType,
			Source: entry.Source,
		})
	}

	table := output.NewTableData("PATH", "TYPE", "SOURCE")
	for _, m := range mounts {
		table.AddRow(m.Path, m.Type, m.Source)
	}

	return cmdutil.PrintOutput(os.Stdout, mounts, len(mounts) == 0, "No active mounts.", table)
}

// underAny reports whether path lies strictly beneath one of the roots.
func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
