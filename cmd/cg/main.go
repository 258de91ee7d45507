// Command cg explores a concept graph in the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
