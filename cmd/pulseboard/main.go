// Package main provides the entry point for the pulseboard CLI.
package main

import (
	"os"

	"github.com/randalmurphal/pulseboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
