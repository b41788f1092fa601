package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/output"
	"github.com/starbind/starbind/pkg/apiclient"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List federation nodes and sites",
	Long: `List the federation's nodes and their sites from the site
capabilities service.

Useful for filling in the site.node and site.site configuration keys
that disambiguate multi-site replicas.

Examples:
  # List nodes and sites
  starbind sites

  # Output as YAML
  starbind sites -o yaml`,
	RunE: runSites,
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := cmdutil.APIClient(ctx, cfg, apiclient.APISiteCapabilities)
	if err != nil {
		return err
	}

	nodes, err := client.ListNodes(ctx)
	if err != nil {
		return err
	}

	table := output.NewTableData("NODE", "SITE", "COUNTRY", "STORAGE AREAS")
	for _, node := range nodes {
		for _, site := range node.Sites {
			table.AddRow(node.Name, site.Name, site.Country,
				strconv.Itoa(len(site.StorageAreas())))
		}
	}

	return cmdutil.PrintOutput(os.Stdout, nodes, len(nodes) == 0, "No nodes found.", table)
}
