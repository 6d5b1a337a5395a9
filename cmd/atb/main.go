// Command atb runs the active-time-battle turn tracker.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/atb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
