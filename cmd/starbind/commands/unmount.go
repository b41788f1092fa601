package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/prompt"
)

var (
	unmountPath  string
	unmountForce bool
)

var unmountCmd = &cobra.Command{
	Use:   "unmount <namespace> <file-name>",
	Short: "Unmount a data file from your sandbox",
	Long: `Unmount a previously mounted file and remove its sandbox artifacts.

The unmount is tolerant: steps that find nothing to undo are reported as
warnings, so retrying after a partial failure converges instead of
erroring forever.

Examples:
  # Resolve and unmount a file
  starbind unmount daac map.fits

  # Unmount a known storage path without resolution
  starbind unmount daac map.fits --path daac/obs/2024/map.fits

  # Skip the confirmation prompt
  starbind unmount daac map.fits --force`,
	Args: cobra.ExactArgs(2),
	RunE: runUnmount,
}

func init() {
	unmountCmd.Flags().StringVar(&unmountPath, "path", "", "Storage-relative path (skips resolution)")
	unmountCmd.Flags().BoolVarP(&unmountForce, "force", "f", false, "Skip confirmation prompt")
}

func runUnmount(cmd *cobra.Command, args []string) error {
	namespace, fileName := args[0], args[1]

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	storagePath, err := resolveStoragePath(cmd, cfg, namespace, fileName, unmountPath, false)
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Unmount %s?", storagePath), unmountForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	// The helper takes the same positional arguments for both
	// operations; the group is unused on unmount.
	group := namespace

	fmt.Printf("Unmounting %s...\n", storagePath)
	return runHelper(cfg, "--unmount", storagePath, group)
}
