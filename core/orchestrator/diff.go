package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/semchange"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
)

// ComponentDiff is the classification of one component.
type ComponentDiff struct {
	Component        string           `json:"component" yaml:"component"`
	SnapshotVersion  version.Version  `json:"snapshotVersion" yaml:"snapshotVersion"`
	CurrentVersion   version.Version  `json:"currentVersion" yaml:"currentVersion"`
	NextVersion      version.Version  `json:"nextVersion" yaml:"nextVersion"`
	semchange.Report `yaml:",inline"`
}

// DiffReport is the output of the diff command.
type DiffReport struct {
	Components []ComponentDiff `json:"components" yaml:"components"`
}

// Rows implements serializer.Tabular. Member changes are listed under
// their component.
func (r DiffReport) Rows() [][]string {
	rows := [][]string{{"COMPONENT", "CHANGE", "SNAPSHOT", "CURRENT", "NEXT", "ADDED", "REMOVED"}}
	for _, d := range r.Components {
		rows = append(rows, []string{
			d.Component,
			d.Change.String(),
			d.SnapshotVersion.String(),
			d.CurrentVersion.String(),
			d.NextVersion.String(),
			strconv.Itoa(len(d.Added)),
			strconv.Itoa(len(d.Removed)),
		})
		for _, s := range d.Added {
			rows = append(rows, []string{"", "+ " + s})
		}
		for _, s := range d.Removed {
			rows = append(rows, []string{"", "- " + s})
		}
	}
	return rows
}

// Diff classifies every selected component against its snapshot.
func (o *Orchestrator) Diff(ctx context.Context, opts cli.DiffOptions) error {
	comps, err := o.components(ctx, opts.GlobalOptions)
	if err != nil {
		return err
	}

	report := DiffReport{Components: make([]ComponentDiff, 0, len(comps))}
	for _, c := range comps {
		snapshot, err := loadSnapshot(c)
		if err != nil {
			return err
		}
		d, err := o.classify(c.Topology, snapshot)
		if err != nil {
			return fmt.Errorf("classifying %s: %w", c.Name(), err)
		}
		report.Components = append(report.Components, d)
	}

	return o.write(opts.Format, report)
}

// classify compares current against snapshot and derives the next version
// from the current declaration.
func (o *Orchestrator) classify(current, snapshot topology.Topology) (ComponentDiff, error) {
	if semver.Compare(snapshot.Version().Semver(), current.Version().Semver()) > 0 {
		o.log().Warn("snapshot version is newer than the declared version",
			"component", current.ComponentName(),
			"snapshot", snapshot.Version().String(),
			"declared", current.Version().String())
	}

	rep, err := semchange.Compare(current, snapshot)
	if err != nil {
		return ComponentDiff{}, err
	}
	next, err := semchange.NextVersion(current, rep.Change)
	if err != nil {
		return ComponentDiff{}, err
	}

	o.log().Debug("classified component", "component", current.ComponentName(),
		"change", rep.Change.String(), "added", len(rep.Added), "removed", len(rep.Removed))

	return ComponentDiff{
		Component:       current.ComponentName(),
		SnapshotVersion: snapshot.Version(),
		CurrentVersion:  current.Version(),
		NextVersion:     next,
		Report:          rep,
	}, nil
}
