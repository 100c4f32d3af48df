package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// SnapshotEntry describes one saved snapshot.
type SnapshotEntry struct {
	Component string          `json:"component" yaml:"component"`
	Version   version.Version `json:"version" yaml:"version"`
	Path      string          `json:"path" yaml:"path"`
	Members   int             `json:"members" yaml:"members"`
}

// InitReport is the output of the init command.
type InitReport struct {
	Snapshots []SnapshotEntry `json:"snapshots" yaml:"snapshots"`
}

// Rows implements serializer.Tabular.
func (r InitReport) Rows() [][]string {
	rows := [][]string{{"COMPONENT", "VERSION", "MEMBERS", "SNAPSHOT"}}
	for _, s := range r.Snapshots {
		rows = append(rows, []string{s.Component, s.Version.String(), strconv.Itoa(s.Members), s.Path})
	}
	return rows
}

// Init saves the first snapshot of every selected component. Existing
// snapshots are only replaced with Force. Nothing is written when any
// component would be refused.
func (o *Orchestrator) Init(ctx context.Context, opts cli.InitOptions) error {
	comps, err := o.components(ctx, opts.GlobalOptions)
	if err != nil {
		return err
	}

	if !opts.Force {
		for _, c := range comps {
			if path := topology.SnapshotPath(c.Topology); topology.SnapshotExists(path) {
				return errors.NewWithContext(errors.ErrCodeInvalidArgument,
					fmt.Sprintf("snapshot for %s already exists; use --force to replace it", c.Name()),
					map[string]any{"path": path})
			}
		}
	}

	report := InitReport{Snapshots: make([]SnapshotEntry, 0, len(comps))}
	for _, c := range comps {
		path, err := topology.Save(c.Topology)
		if err != nil {
			return err
		}
		o.log().Info("snapshot saved", "component", c.Name(), "version", c.Topology.Version().String(), "path", path)
		report.Snapshots = append(report.Snapshots, SnapshotEntry{
			Component: c.Name(),
			Version:   c.Topology.Version(),
			Path:      relPath(opts.SolutionDir(), path),
			Members:   len(c.Topology.PublicAPI()),
		})
	}

	return o.write(opts.Format, report)
}
