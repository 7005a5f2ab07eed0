// Package main implements the flowscript CLI (flowc).
// It provides commands for converting handler scripts to flow function
// definitions, decompiling definitions back to scripts, and batch processing.
package main

import (
	"os"

	"github.com/kaivue/flowscript/cmd/flowc/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`flowc version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
