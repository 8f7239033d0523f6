package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags during releases
var (
	version = "latest"  // version is the application version shown by --version
	commit  = "unknown" // commit is the git commit hash
)

// newCmdVersion returns a command that prints the application version.
func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wfdef version %s (%s)\n", version, commit)
		},
	}
}
