// Package cli wires the fetch client, its journal and logging into the
// streamfetch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Set by build flags.
var (
	version = "dev"
	commit  = "none"
)

// NewRootCommand builds the command tree. Command output goes to out,
// logs and progress go to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "streamfetch",
		Short: "Download a resource over HTTP/1.1, streaming the body to disk",

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolP("verbose", "v", false, "log debug details")

	root.AddCommand(newGetCommand(), newHistoryCommand(), newVersionCommand())
	return root
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streamfetch %s (commit: %s)\n", version, commit)
		},
	}
}
