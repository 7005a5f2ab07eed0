package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/pkg/converter"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a handler script for convertibility",
	Long: `Parses and converts a handler script without keeping the result,
reporting anything that would not survive conversion. Reads from stdin when no
file is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _, err := readSource(args)
		if err != nil {
			return err
		}

		validation := converter.New().Validate(source)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			rendered, err := jsonMarshalIndent(validation, 2)
			if err != nil {
				return fmt.Errorf("encoding validation result: %w", err)
			}
			fmt.Println(rendered)
		} else {
			for _, w := range validation.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			for _, e := range validation.Errors {
				fmt.Printf("error: %s\n", e)
			}
			if validation.Valid {
				fmt.Println("valid")
			}
		}

		if !validation.Valid {
			return fmt.Errorf("script is not convertible (%d error(s))", len(validation.Errors))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
