// Package main is the entry point for the anticrawl CLI.
package main

import (
	"os"

	"github.com/searcrawl/anticrawl/cmd/anticrawl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
