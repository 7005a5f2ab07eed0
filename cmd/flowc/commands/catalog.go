package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/pkg/decompiler"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List functions the decompiler can render",
	Long: `Lists every namespaced function the decompiler has a script template
for. Definitions using other functions decompile to descriptive comments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		functions := decompiler.New().SupportedFunctions()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			type entry struct {
				Namespace string `json:"namespace"`
				Name      string `json:"name"`
			}
			entries := make([]entry, 0, len(functions))
			for _, fn := range functions {
				entries = append(entries, entry{Namespace: fn[0], Name: fn[1]})
			}
			rendered, err := jsonMarshalIndent(entries, 2)
			if err != nil {
				return fmt.Errorf("encoding catalog: %w", err)
			}
			fmt.Println(rendered)
			return nil
		}

		for _, fn := range functions {
			fmt.Printf("%s.%s\n", fn[0], fn[1])
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
