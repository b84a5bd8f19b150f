// Command samwire renders, serves and tests samwire applications.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/samwire/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
