package commands

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/credentials"
	"github.com/starbind/starbind/internal/cli/output"
	"github.com/starbind/starbind/pkg/config"
	"github.com/starbind/starbind/pkg/mount"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show starbind status",
	Long: `Show the local starbind state: login status, configuration source,
helper availability, storage root, and active mounts.

Examples:
  # Show status
  starbind status

  # Output as JSON
  starbind status -o json`,
	RunE: runStatus,
}

// clientStatus is the local state summary for display.
type clientStatus struct {
	LoggedIn     bool   `json:"logged_in"     yaml:"logged_in"`
	ConfigSource string `json:"config_source" yaml:"config_source"`
	HelperPath   string `json:"helper_path"   yaml:"helper_path"`
	HelperFound  bool   `json:"helper_found"  yaml:"helper_found"`
	StorageRoot  string `json:"storage_root"  yaml:"storage_root"`
	StorageFound bool   `json:"storage_found" yaml:"storage_found"`
	ActiveMounts int    `json:"active_mounts" yaml:"active_mounts"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	status := clientStatus{
		ConfigSource: configSource(),
		HelperPath:   cfg.Helper.Path,
		StorageRoot:  cfg.Storage.Root,
	}

	if store, err := credentials.NewStore(); err == nil {
		status.LoggedIn = store.IsLoggedIn()
	}

	if _, err := os.Stat(cfg.Helper.Path); err == nil {
		status.HelperFound = true
	}
	if _, err := os.Stat(cfg.Storage.Root); err == nil {
		status.StorageFound = true
	}

	if home, err := os.UserHomeDir(); err == nil {
		if entries, err := mount.NewProcTable().Entries(); err == nil {
			roots := []string{
				filepath.Join(home, cfg.Storage.ProjectsDir),
				filepath.Join(home, cfg.Storage.BindsDir),
			}
			for _, entry := range entries {
				if underAny(entry.MountPoint, roots) {
					status.ActiveMounts++
				}
			}
		}
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		return output.SimpleTable(os.Stdout, [][2]string{
			{"Logged in", yesNo(status.LoggedIn)},
			{"Config", status.ConfigSource},
			{"Helper", checkmark(status.HelperPath, status.HelperFound)},
			{"Storage root", checkmark(status.StorageRoot, status.StorageFound)},
			{"Active mounts", strconv.Itoa(status.ActiveMounts)},
		})
	}
}

// configSource returns a description of where the config was loaded from.
func configSource() string {
	if cmdutil.Flags.ConfigPath != "" {
		return cmdutil.Flags.ConfigPath
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	if _, err := os.Stat(config.HelperConfigPath); err == nil {
		return config.HelperConfigPath
	}
	return "defaults"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func checkmark(path string, found bool) string {
	if found {
		return path
	}
	return path + " (not found)"
}
