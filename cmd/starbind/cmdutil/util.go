// Package cmdutil provides shared utilities for starbind commands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/starbind/starbind/internal/cli/credentials"
	"github.com/starbind/starbind/internal/cli/output"
	"github.com/starbind/starbind/internal/cli/prompt"
	"github.com/starbind/starbind/internal/logger"
	"github.com/starbind/starbind/pkg/apiclient"
	"github.com/starbind/starbind/pkg/config"
	"github.com/starbind/starbind/pkg/resolver"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	Output     string
	NoColor    bool
	Verbose    bool
}

// LoadConfig loads the CLI configuration honoring the --config flag.
func LoadConfig() (*config.Config, error) {
	return config.Load(Flags.ConfigPath)
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// IsVerbose returns whether verbose output is enabled.
func IsVerbose() bool {
	return Flags.Verbose
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses
// the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
// JSON/YAML output stays machine-parseable with no status lines mixed in.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, !IsColorDisabled()).Success(msg)
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original
// error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}

// AuthnClient returns a client for the authentication service.
func AuthnClient(cfg *config.Config) *apiclient.Client {
	return apiclient.New(cfg.API.AuthnURL, cfg.API.Timeout)
}

// apiBaseURL maps an API name to its configured base URL.
func apiBaseURL(cfg *config.Config, apiName string) (string, error) {
	switch apiName {
	case apiclient.APIDataManagement:
		return cfg.API.DataManagementURL, nil
	case apiclient.APISiteCapabilities:
		return cfg.API.SiteCapabilitiesURL, nil
	default:
		return "", fmt.Errorf("unknown API %q", apiName)
	}
}

// APIClient returns an authenticated client for the named service API.
// A cached per-API token is used when still valid; otherwise the stored
// authentication token is exchanged for a fresh one and cached.
func APIClient(ctx context.Context, cfg *config.Config, apiName string) (*apiclient.Client, error) {
	baseURL, err := apiBaseURL(cfg, apiName)
	if err != nil {
		return nil, err
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	token, ok := store.APIToken(apiName)
	if !ok {
		authToken, err := store.AuthToken()
		if err != nil {
			return nil, err
		}

		token, err = AuthnClient(cfg).ExchangeToken(ctx, apiName, authToken)
		if err != nil {
			return nil, fmt.Errorf("exchanging token for %s: %w", apiName, err)
		}
		if err := store.SetAPIToken(apiName, token, apiclient.TokenExpiry(token)); err != nil {
			return nil, fmt.Errorf("caching %s token: %w", apiName, err)
		}
	}

	return apiclient.New(baseURL, cfg.API.Timeout).WithToken(token), nil
}

// NewResolver builds a Resolver wired to the configured data management
// and site capabilities services.
func NewResolver(ctx context.Context, cfg *config.Config) (*resolver.Resolver, error) {
	dm, err := APIClient(ctx, cfg, apiclient.APIDataManagement)
	if err != nil {
		return nil, err
	}
	sc, err := APIClient(ctx, cfg, apiclient.APISiteCapabilities)
	if err != nil {
		return nil, err
	}

	local := apiclient.NodeSite{Node: cfg.Site.Node, Site: cfg.Site.Site}
	return resolver.New(dm, sc, local, logger.With()), nil
}
