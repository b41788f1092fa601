package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with defaults",
	Long: `Write a configuration file populated with default values.

The file is created at $XDG_CONFIG_HOME/starbind/config.yaml unless
--config names another location.

Examples:
  # Create the default config file
  starbind config init

  # Create at a custom location
  starbind config init --config /etc/starbind/config.yaml

  # Overwrite an existing file
  starbind config init --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", configPath)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set api.* to your federation's service URLs")
	fmt.Println("  2. Set site.node and site.site if this host has local storage")
	fmt.Println("  3. Authenticate with: starbind login")
	return nil
}
