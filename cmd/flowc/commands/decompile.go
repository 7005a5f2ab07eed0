package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/pkg/decompiler"
	"github.com/kaivue/flowscript/pkg/ir"
)

// decompileCmd represents the decompile command
var decompileCmd = &cobra.Command{
	Use:   "decompile [file]",
	Short: "Render a function definition back as a handler script",
	Long: `Reads a flow function definition (JSON) and renders the equivalent
handler script. Reads from stdin when no file is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, inputPath, err := readSource(args)
		if err != nil {
			return err
		}

		var fn ir.FunctionDefinition
		if err := json.Unmarshal([]byte(data), &fn); err != nil {
			if inputPath == "" {
				inputPath = "stdin"
			}
			return fmt.Errorf("parsing definition from %s: %w", inputPath, err)
		}

		output, _ := cmd.Flags().GetString("output")
		script := decompiler.New().Decompile(&fn)
		return writeOutput(output, script)
	},
}

func init() {
	decompileCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
}
