// Command swarmnoded runs the content-exchange node's coordinator.
package main

import (
	"fmt"
	"os"

	"github.com/contentmesh/swarmnode/cmd/swarmnoded/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
