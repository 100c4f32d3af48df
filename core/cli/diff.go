package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// DiffOptions holds the parsed flags for "diff".
type DiffOptions struct {
	GlobalOptions
}

// DiffRunFunc is the function signature for the diff command handler.
// It is injected by the wiring layer (cmd/semguard/main.go).
type DiffRunFunc func(ctx context.Context, opts DiffOptions) error

// NewDiffCmd creates the "diff" subcommand.
func NewDiffCmd(globals *GlobalOptions, runFunc DiffRunFunc) *cobra.Command {
	var opts DiffOptions

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Classify API changes since the last snapshot",
		Long:  "Compare each component against its saved snapshot and report whether the change is a patch, minor or major one, along with the version it should move to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = *globals
			return runFunc(cmd.Context(), opts)
		},
	}

	return cmd
}
