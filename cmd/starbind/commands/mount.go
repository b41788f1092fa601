package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/prompt"
	"github.com/starbind/starbind/pkg/config"
	"github.com/starbind/starbind/pkg/resolver"
)

var (
	mountGroup       string
	mountPath        string
	mountInteractive bool
)

var mountCmd = &cobra.Command{
	Use:   "mount <namespace> <file-name>",
	Short: "Mount a data file into your sandbox",
	Long: `Resolve a file's storage path and mount it into your sandbox under
~/projects through the privileged helper.

The claimed group defaults to the namespace; the helper re-validates it
against the path. With --path the resolution step is skipped and the
given storage-relative path is mounted as-is.

Examples:
  # Resolve and mount a file
  starbind mount daac map.fits

  # Mount a known storage path without resolution
  starbind mount daac map.fits --path daac/obs/2024/map.fits

  # Pick interactively when replicas exist at multiple paths
  starbind mount daac map.fits --interactive`,
	Args: cobra.ExactArgs(2),
	RunE: runMount,
}

func init() {
	mountCmd.Flags().StringVar(&mountGroup, "group", "", "Claimed access group (default: the namespace)")
	mountCmd.Flags().StringVar(&mountPath, "path", "", "Storage-relative path (skips resolution)")
	mountCmd.Flags().BoolVar(&mountInteractive, "interactive", false, "Prompt to choose between ambiguous replica paths")
}

func runMount(cmd *cobra.Command, args []string) error {
	namespace, fileName := args[0], args[1]

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	storagePath, err := resolveStoragePath(cmd, cfg, namespace, fileName, mountPath, mountInteractive)
	if err != nil {
		return err
	}
	if storagePath == "" {
		// Interactive selection aborted.
		return nil
	}

	group := mountGroup
	if group == "" {
		group = namespace
	}

	fmt.Printf("Mounting %s (group %s)...\n", storagePath, group)
	return runHelper(cfg, "--mount", storagePath, group)
}

// resolveStoragePath returns the storage path to operate on: the
// explicit override when given, otherwise the resolver's answer. An
// ambiguous result is offered as an interactive choice when allowed.
// An empty return with nil error means the user aborted the selection.
func resolveStoragePath(cmd *cobra.Command, cfg *config.Config, namespace, fileName, override string, interactive bool) (string, error) {
	if override != "" {
		return override, nil
	}

	ctx := cmd.Context()
	res, err := cmdutil.NewResolver(ctx, cfg)
	if err != nil {
		return "", err
	}

	result, err := res.Resolve(ctx, namespace, fileName)
	if err != nil {
		var ambiguous *resolver.AmbiguousError
		if errors.As(err, &ambiguous) && interactive {
			selected, serr := prompt.SelectString("Select replica path", ambiguous.Paths)
			if serr != nil {
				if prompt.IsAborted(serr) {
					fmt.Println("\nAborted.")
					return "", nil
				}
				return "", serr
			}
			return selected, nil
		}
		return "", err
	}

	for _, warning := range result.Warnings {
		PrintErr("Warning: %s", warning)
	}
	return result.StoragePath, nil
}
