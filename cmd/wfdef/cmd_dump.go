package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newCmdDump returns a command that prints parsed definitions.
func newCmdDump() *cobra.Command {
	var output string
	var allowDuplicates bool
	cmd := &cobra.Command{
		Use:   "dump PATH",
		Short: "Print parsed workflow definitions",
		Long:  "Parse the definitions at PATH and print them in document order as JSON or YAML.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format: %s", output)
			}

			ctx, cleanup := withCmdRunLogger(cmd.Context(), "dump", args[0])
			defer func() { cleanup(err) }()

			result, err := loadPath(ctx, cmd, newDefinitionLoader(allowDuplicates), args[0])
			if err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return errors.Join(result.Errors...)
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				for _, doc := range result.Documents {
					if err := enc.Encode(doc.Definition); err != nil {
						return fmt.Errorf("encoding %s: %w", doc.Ref(), err)
					}
				}
				return nil
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			for _, doc := range result.Documents {
				if err := enc.Encode(doc.Definition); err != nil {
					return fmt.Errorf("encoding %s: %w", doc.Ref(), err)
				}
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (json|yaml)")
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicate-keys", false, "Let repeated keys replace earlier values instead of failing")
	return cmd
}
