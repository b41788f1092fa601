package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/output"
)

var locateCmd = &cobra.Command{
	Use:   "locate <namespace> <file-name>",
	Short: "Resolve a file to its storage path",
	Long: `Resolve a namespace and file name into the storage-relative path the
mount helper operates on, using the data management service.

Examples:
  # Locate a file
  starbind locate daac map.fits

  # Output as JSON
  starbind locate daac map.fits -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runLocate,
}

// locateResult is the resolved location for display.
type locateResult struct {
	Namespace   string   `json:"namespace"             yaml:"namespace"`
	FileName    string   `json:"file_name"             yaml:"file_name"`
	StoragePath string   `json:"storage_path"          yaml:"storage_path"`
	FullPath    string   `json:"full_path"             yaml:"full_path"`
	Warnings    []string `json:"warnings,omitempty"    yaml:"warnings,omitempty"`
}

func runLocate(cmd *cobra.Command, args []string) error {
	namespace, fileName := args[0], args[1]

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := cmdutil.NewResolver(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := res.Resolve(ctx, namespace, fileName)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		PrintErr("Warning: %s", warning)
	}

	display := locateResult{
		Namespace:   namespace,
		FileName:    fileName,
		StoragePath: result.StoragePath,
		FullPath:    filepath.Join(cfg.Storage.Root, result.StoragePath),
		Warnings:    result.Warnings,
	}

	table := output.NewTableData("NAMESPACE", "FILE", "STORAGE PATH")
	table.AddRow(display.Namespace, display.FileName, display.StoragePath)

	return cmdutil.PrintOutput(os.Stdout, display, false, "", table)
}
