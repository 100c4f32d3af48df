// Package orchestrator runs the semguard commands: it loads components
// through a driver.Frontend, compares them against their snapshots and
// drives the rewrite engine.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/driver"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/serializer"
)

// Orchestrator implements the diff, init and bump command handlers.
type Orchestrator struct {
	frontend driver.Frontend
	out      io.Writer
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; the slog default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New returns an Orchestrator writing command output to out.
func New(frontend driver.Frontend, out io.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{frontend: frontend, out: out}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

// components loads the solution and keeps the named components, in the
// order they were named.
func (o *Orchestrator) components(ctx context.Context, g cli.GlobalOptions) ([]driver.Component, error) {
	all, err := o.frontend.LoadSolution(ctx, g.Solution)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]driver.Component, len(all))
	for _, c := range all {
		byName[c.Name()] = c
	}

	selected := make([]driver.Component, 0, len(g.Components))
	seen := make(map[string]bool, len(g.Components))
	for _, name := range g.Components {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, ok := byName[name]
		if !ok {
			names := make([]string, 0, len(all))
			for _, c := range all {
				names = append(names, c.Name())
			}
			slices.Sort(names)
			return nil, errors.NewWithContext(errors.ErrCodeInvalidArgument,
				fmt.Sprintf("component %s not found in solution", name),
				map[string]any{"solution": g.Solution, "available": strings.Join(names, ", ")})
		}
		selected = append(selected, c)
	}
	return selected, nil
}

// loadSnapshot reads the snapshot saved for c.
func loadSnapshot(c driver.Component) (topology.Topology, error) {
	path := topology.SnapshotPath(c.Topology)
	if !topology.SnapshotExists(path) {
		return topology.Topology{}, errors.NewWithContext(errors.ErrCodeIO,
			fmt.Sprintf("no snapshot for %s; run `semguard init` first", c.Name()),
			map[string]any{"path": path})
	}
	return topology.Load(path)
}

func (o *Orchestrator) write(format serializer.Format, v any) error {
	return serializer.NewWriter(format, o.out).Serialize(v)
}

// relPath shortens path to be relative to base when it lies below it.
func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
