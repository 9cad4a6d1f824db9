// Command sdsim is a minimal batch runner for the stock-and-flow core: it
// loads a scenario file into the reference Frame, compiles it, runs it for
// the configured (or overridden) step count, and prints the result table to
// stdout and any compile issues to stderr. It is the library's demo entrypoint, not a
// reimplementation of an interactive design tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdsim",
	Short: "Compile and run stock-and-flow scenarios",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
