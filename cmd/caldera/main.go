// main is the entry point for the caldera CLI.
package main

import (
	"fmt"
	"os"

	"github.com/alexander-stage-hoco/caldera-sot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
