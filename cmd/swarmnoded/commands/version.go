package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("swarmnoded %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
