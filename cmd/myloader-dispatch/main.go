// Command myloader-dispatch is the entry point for the restore dispatcher
// CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mydumper/myloader-go/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
