package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// InitOptions holds the parsed flags for "init".
type InitOptions struct {
	GlobalOptions
	Force bool
}

// InitRunFunc is the function signature for the init command handler.
type InitRunFunc func(ctx context.Context, opts InitOptions) error

// NewInitCmd creates the "init" subcommand.
func NewInitCmd(globals *GlobalOptions, runFunc InitRunFunc) *cobra.Command {
	var opts InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Record the first snapshot of each component",
		Long:  "Analyse each component and save its topology next to its go.mod so later runs have a baseline to compare against.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = *globals
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing snapshot")

	return cmd
}
