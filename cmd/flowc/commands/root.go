package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "flowc",
	Short: "flowscript - Convert handler scripts to flow function definitions",
	Long: `flowscript converts restricted JavaScript event handlers into flow
function definitions and back.

Commands:
  convert     Convert a handler script to a function definition
  decompile   Render a function definition back as a handler script
  validate    Check a handler script for convertibility
  catalog     List functions the decompiler can render
  batch       Convert every handler script under a directory

Use "flowc [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Add subcommands
	RootCmd.AddCommand(convertCmd)
	RootCmd.AddCommand(decompileCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(catalogCmd)
	RootCmd.AddCommand(batchCmd)
}
