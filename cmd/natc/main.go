// Command natc is the CLI entry point of the compiler driver (spec.md
// §1 "out of scope", §4.H, §6): it parses flags, assembles a
// internal/config.Config, runs internal/driver's pipeline, and reports
// diagnostics or hands the built artifact's path back to the caller.
package main

import (
	"fmt"
	"os"

	"github.com/natc-lang/natc/cmd/natc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
