package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kompox/wfdef/internal/logging"
)

// newRootCmd builds the command tree. The returned function closes the log
// output opened by the persistent pre-run hook.
func newRootCmd() (*cobra.Command, func() error) {
	var logOutput *logging.Output

	cmd := &cobra.Command{
		Use:     "wfdef",
		Short:   "Workflow definition loader",
		Long:    "Load and validate YAML workflow definitions with strict duplicate key checks.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-format", "human", "Log format (human|text|json) (env WFDEF_LOG_FORMAT)")
	cmd.PersistentFlags().String("log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR) (env WFDEF_LOG_LEVEL)")
	cmd.PersistentFlags().String("log-output", "-", "Log output (- for stderr, none, or a file path)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		fs := c.Flags()
		level, err := logging.ParseLevel(flagOrEnv(fs, "log-level", "WFDEF_LOG_LEVEL"))
		if err != nil {
			return err
		}
		output, _ := fs.GetString("log-output")
		out, err := logging.OpenOutput(output)
		if err != nil {
			return err
		}
		logOutput = out
		l, err := logging.NewWithWriter(flagOrEnv(fs, "log-format", "WFDEF_LOG_FORMAT"), level, out.Writer())
		if err != nil {
			return err
		}
		l = l.With("runId", uuid.NewString())
		c.SetContext(logging.WithLogger(c.Context(), l))
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdCheck())
	cmd.AddCommand(newCmdDump())

	closeLog := func() error {
		if logOutput == nil {
			return nil
		}
		return logOutput.Close()
	}
	return cmd, closeLog
}

// flagOrEnv returns the flag value when it was set explicitly, otherwise the
// environment variable when present, otherwise the flag default.
func flagOrEnv(fs *pflag.FlagSet, name, env string) string {
	v, _ := fs.GetString(name)
	if fs.Changed(name) {
		return v
	}
	if e := os.Getenv(env); e != "" {
		return e
	}
	return v
}

func main() {
	root, closeLog := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}
