package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/credentials"
	"github.com/starbind/starbind/pkg/apiclient"
)

var (
	loginAuthnURL string
	loginNoCache  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the federation",
	Long: `Authenticate with the federation's authentication service using the
OAuth2 device flow and store the resulting tokens.

The command prints a verification URL; open it in a browser, approve the
device, and the command completes once the approval is registered. After
login, per-service API tokens are obtained automatically as needed.

Examples:
  # Log in using the configured authentication service
  starbind login

  # Log in against a different authentication service
  starbind login --authn-url https://authn.example.org/api/v1

  # Authenticate without caching tokens on disk
  starbind login --no-cache`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginAuthnURL, "authn-url", "", "Authentication service URL (overrides config)")
	loginCmd.Flags().BoolVar(&loginNoCache, "no-cache", false, "Do not store tokens on disk")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	authnURL := loginAuthnURL
	if authnURL == "" {
		authnURL = cfg.API.AuthnURL
	}

	ctx := cmd.Context()
	client := apiclient.New(authnURL, cfg.API.Timeout)

	auth, err := client.StartDeviceFlow(ctx)
	if err != nil {
		return fmt.Errorf("starting device flow: %w", err)
	}

	fmt.Printf("Open the following URL in a browser to authenticate:\n\n")
	fmt.Printf("  %s\n\n", auth.VerificationURL())
	fmt.Println("Waiting for approval...")

	token, err := client.PollForToken(ctx, auth.DeviceCode, auth.PollInterval())
	if err != nil {
		return fmt.Errorf("device authorization failed: %w", err)
	}

	if loginNoCache {
		fmt.Println("Logged in (tokens not cached).")
		fmt.Println(token)
		return nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	if err := store.SetAuthToken(authnURL, token, apiclient.TokenExpiry(token)); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	// Warm the per-API token cache so the first mount does not need a
	// round of exchanges. Failures here are not fatal: the exchange is
	// retried on demand.
	for _, apiName := range []string{apiclient.APIDataManagement, apiclient.APISiteCapabilities} {
		apiToken, err := client.ExchangeToken(ctx, apiName, token)
		if err != nil {
			PrintErr("Warning: could not obtain %s token: %v", apiName, err)
			continue
		}
		if err := store.SetAPIToken(apiName, apiToken, apiclient.TokenExpiry(apiToken)); err != nil {
			PrintErr("Warning: could not cache %s token: %v", apiName, err)
		}
	}

	cmdutil.PrintSuccess("Logged in successfully.")
	fmt.Printf("Credentials saved to: %s\n", store.Path())
	return nil
}
