package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/semguard/core/version"
)

// BumpOptions holds the parsed flags for "bump".
type BumpOptions struct {
	GlobalOptions
	// Operation is the explicit bump to apply; nil selects auto mode.
	Operation   *version.Operation
	Descriptors []string
	DryRun      bool
	Strict      bool
}

// Auto reports whether the bump is derived from the snapshot diff.
func (o BumpOptions) Auto() bool { return o.Operation == nil }

// BumpRunFunc is the function signature for the bump command handler.
type BumpRunFunc func(ctx context.Context, opts BumpOptions) error

type bumpFlags struct {
	major, minor, patch, build, auto bool
}

func (f bumpFlags) operation() (*version.Operation, error) {
	var ops []version.Operation
	var names []string
	for _, c := range []struct {
		set  bool
		op   version.Operation
		name string
	}{
		{f.major, version.Major, "--major"},
		{f.minor, version.Minor, "--minor"},
		{f.patch, version.Patch, "--patch"},
		{f.build, version.Build, "--build"},
	} {
		if c.set {
			ops = append(ops, c.op)
			names = append(names, c.name)
		}
	}

	switch {
	case len(ops) > 1:
		return nil, fmt.Errorf("%s are mutually exclusive", strings.Join(names, ", "))
	case len(ops) == 1 && f.auto:
		return nil, fmt.Errorf("--auto cannot be combined with %s", names[0])
	case len(ops) == 1:
		return &ops[0], nil
	default:
		return nil, nil
	}
}

// NewBumpCmd creates the "bump" subcommand.
func NewBumpCmd(globals *GlobalOptions, runFunc BumpRunFunc) *cobra.Command {
	var (
		opts  BumpOptions
		flags bumpFlags
	)

	cmd := &cobra.Command{
		Use:   "bump",
		Short: "Bump component versions",
		Long: `Bump the version declared by each component and by any package descriptors.

With --major, --minor, --patch or --build the matching segment is incremented
in place. Otherwise (--auto) the change is classified against the saved
snapshot, the declarations are set to the next version and the snapshot is
refreshed.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			op, err := flags.operation()
			if err != nil {
				return err
			}
			opts.Operation = op
			return validateBumpFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GlobalOptions = *globals
			if !cmd.Flags().Changed("descriptor") {
				opts.Descriptors = globals.Config.ResolveDescriptors(globals.SolutionDir())
			}
			if !cmd.Flags().Changed("strict") {
				opts.Strict = globals.Config.Strict
			}
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&flags.major, "major", false, "Increment the major segment")
	cmd.Flags().BoolVar(&flags.minor, "minor", false, "Increment the minor segment")
	cmd.Flags().BoolVar(&flags.patch, "patch", false, "Increment the build (patch) segment")
	cmd.Flags().BoolVar(&flags.build, "build", false, "Increment the revision segment of 4-segment versions")
	cmd.Flags().BoolVar(&flags.auto, "auto", false, "Derive the bump from the snapshot diff (default when no segment flag is set)")
	cmd.Flags().StringArrayVar(&opts.Descriptors, "descriptor", nil, "Package descriptor (.nuspec, .csproj, ...) to bump as well; repeatable")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would change without writing")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail when a descriptor has no usable version instead of skipping it")

	return cmd
}

func validateBumpFlags(opts BumpOptions) error {
	for _, d := range opts.Descriptors {
		info, err := os.Stat(d)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("descriptor does not exist: %s", d)
			}
			return fmt.Errorf("cannot access descriptor: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("descriptor is a directory: %s", d)
		}
	}
	return nil
}
