package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the starbind configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  starbind config validate

  # Validate specific config file
  starbind config validate --config /etc/starbind/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Site.Node == "" {
		warnings = append(warnings, "site.node/site.site not set - multi-site replicas cannot be disambiguated")
	}
	if cfg.Metrics.TextfileDir == "" {
		warnings = append(warnings, "metrics.textfile_dir not set - helper operations will not be exported")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Storage root:  %s\n", cfg.Storage.Root)
	fmt.Printf("  Staging mode:  %s\n", cfg.Storage.StagingMode)
	fmt.Printf("  Helper:        %s\n", cfg.Helper.Path)
	fmt.Printf("  Log level:     %s\n", cfg.Logging.Level)

	return nil
}
