// Package commands implements swarmnoded's CLI, grounded on the
// teacher's cmd/dittofs/commands (a cobra root command with global
// --config flag, one subcommand per operation).
package commands

import "github.com/spf13/cobra"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "swarmnoded",
	Short: "swarmnode - a content-addressed exchange node",
	Long: `swarmnoded runs a peer-to-peer content-exchange node: a bitswap-style
block-exchange protocol, a content-addressed locator parser, and a
DHT-backed provider/peer lookup, coordinated by a single-threaded event
loop.

Use "swarmnoded [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command. Called once by
// main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/swarmnode/config.yaml)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
}
