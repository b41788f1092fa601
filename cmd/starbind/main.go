// starbind is the user-facing CLI: it authenticates against the
// federation services, resolves a namespace + file name into a storage
// path, and drives the privileged starbind-helper through sudo.
package main

import (
	"fmt"
	"os"

	"github.com/starbind/starbind/cmd/starbind/commands"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
