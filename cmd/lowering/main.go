// Command lowering validates, tunes and distributes the codegen lowering
// configuration of compute dispatches.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/lowering/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
