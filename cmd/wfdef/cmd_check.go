package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kompox/wfdef/definition"
	"github.com/kompox/wfdef/yml"
)

// stdinPath is the PATH argument that reads definitions from standard input.
const stdinPath = "-"

// newCmdCheck returns a command that validates workflow definition files.
func newCmdCheck() *cobra.Command {
	var allowDuplicates bool
	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Validate workflow definition files",
		Long:  "Load every YAML definition under the given files or directories and report each document. Use - to read standard input.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "check", strings.Join(args, ","))
			defer func() { cleanup(err) }()

			loader := newDefinitionLoader(allowDuplicates)
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				result, err := loadPath(ctx, cmd, loader, path)
				if err != nil {
					fmt.Fprintf(out, "error %s\n", err)
					failed++
					continue
				}
				for _, doc := range result.Documents {
					fmt.Fprintf(out, "ok %s\n", doc.Ref())
				}
				for _, e := range result.Errors {
					fmt.Fprintf(out, "error %s\n", e)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d definition error(s)", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicate-keys", false, "Let repeated keys replace earlier values instead of failing")
	return cmd
}

func newDefinitionLoader(allowDuplicates bool) *definition.Loader {
	loader := definition.NewLoader()
	loader.Parser = &yml.Loader{AllowDuplicateKeys: allowDuplicates, MaxDepth: yml.DefaultMaxDepth}
	return loader
}

// loadPath loads a file, a directory or standard input.
func loadPath(ctx context.Context, cmd *cobra.Command, loader *definition.Loader, path string) (*definition.LoaderResult, error) {
	if path != stdinPath {
		return loader.Load(ctx, path)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading standard input: %w", err)
	}
	return loader.LoadBytes(ctx, path, data)
}
