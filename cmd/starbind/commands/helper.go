package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/starbind/starbind/pkg/config"
)

// runHelper executes the privileged helper through sudo, streaming its
// output. The helper's exact argument shape is what the sudoers rule
// matches, so it is built here and nowhere else.
func runHelper(cfg *config.Config, operation, storagePath, group string) error {
	helperCmd := exec.Command(cfg.Helper.SudoPath, cfg.Helper.Path, operation, storagePath, group)
	helperCmd.Stdin = os.Stdin
	helperCmd.Stdout = os.Stdout
	helperCmd.Stderr = os.Stderr

	if err := helperCmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The helper already printed its diagnostic to stderr.
			return fmt.Errorf("%s %s failed (exit code %d)",
				cfg.Helper.Path, operation, exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", cfg.Helper.SudoPath, err)
	}
	return nil
}
