package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starbind/starbind/cmd/starbind/cmdutil"
	"github.com/starbind/starbind/internal/cli/credentials"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Long: `Remove the cached authentication and API tokens from disk.

This only clears local state; tokens already issued remain valid until
they expire on the server side.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	if !store.IsLoggedIn() {
		fmt.Println("Not logged in.")
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}

	cmdutil.PrintSuccess("Logged out.")
	return nil
}
