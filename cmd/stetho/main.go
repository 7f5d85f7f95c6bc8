// Command stetho runs triage assessments from the command line without the
// HTTP service. Prompts come from the built-in defaults and reports are
// written to stdout rather than stored.
package main

import (
	"fmt"
	"os"
)

// Version information set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
