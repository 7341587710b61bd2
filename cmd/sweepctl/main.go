// Package main is the entry point for the sweepctl CLI.
// The CLI is the operator terminal tool for interacting with the finsweep scheduler.
package main

import (
	"os"

	"finsweep/cmd/sweepctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
