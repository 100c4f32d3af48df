package driver

import (
	"context"

	"github.com/emenda-labs/semguard/core/rewrite"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
)

// Component is one analysed unit of a solution: its current topology plus
// the source files that declare its version.
type Component struct {
	Topology topology.Topology
	// VersionFiles lists every file holding a version declaration, in the
	// order they were found. Empty when the version is the default.
	VersionFiles []string
	// Declared is false when no usable declaration was found and the
	// topology carries version.Default.
	Declared bool
}

// Name returns the component name.
func (c Component) Name() string { return c.Topology.ComponentName() }

// Frontend is the interface each language must implement to feed semguard.
type Frontend interface {
	// LoadSolution discovers and analyses every component of the solution
	// at path.
	LoadSolution(ctx context.Context, path string) ([]Component, error)

	// SetVersion rewrites every version declaration of the component to v.
	// It fails with StructuralNotFound when the component has none. Nothing
	// is written unless every file could be rewritten, and nothing at all
	// when dryRun is set.
	SetVersion(ctx context.Context, c Component, v version.Version, dryRun bool) ([]rewrite.Result, error)

	// BumpDeclarations applies op to every version declaration of the
	// component, keeping each declaration's segment count.
	BumpDeclarations(ctx context.Context, c Component, op version.Operation, dryRun bool) ([]rewrite.Result, error)
}
