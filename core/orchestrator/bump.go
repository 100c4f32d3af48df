package orchestrator

import (
	"context"
	"fmt"
	"io"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/driver"
	"github.com/emenda-labs/semguard/core/rewrite"
	"github.com/emenda-labs/semguard/core/semchange"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/fsutil"
	"github.com/emenda-labs/semguard/pkg/serializer"
	"github.com/emenda-labs/semguard/pkg/textdiff"
)

const autoOperation = "auto"

// ComponentBump records the version change of one component.
type ComponentBump struct {
	Component string                    `json:"component" yaml:"component"`
	Change    *semchange.SemanticChange `json:"change,omitempty" yaml:"change,omitempty"`
	From      version.Version           `json:"from" yaml:"from"`
	To        version.Version           `json:"to" yaml:"to"`
	// Skipped is set when the component declares no version in source.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// FileChange records the rewrite of one file.
type FileChange struct {
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
	Path      string `json:"path" yaml:"path"`
	Changed   bool   `json:"changed" yaml:"changed"`
	Diff      string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// BumpReport is the output of the bump command.
type BumpReport struct {
	Operation  string          `json:"operation" yaml:"operation"`
	DryRun     bool            `json:"dryRun" yaml:"dryRun"`
	Components []ComponentBump `json:"components" yaml:"components"`
	Files      []FileChange    `json:"files" yaml:"files"`
}

// Rows implements serializer.Tabular.
func (r BumpReport) Rows() [][]string {
	rows := [][]string{{"KIND", "NAME", "FROM", "TO", "STATUS"}}
	for _, c := range r.Components {
		status := r.Operation
		if c.Change != nil {
			status = c.Change.String()
		}
		if c.Skipped {
			status = "skipped"
		}
		rows = append(rows, []string{"component", c.Component, c.From.String(), c.To.String(), status})
	}
	for _, f := range r.Files {
		status := "unchanged"
		switch {
		case f.Changed && r.DryRun:
			status = "would update"
		case f.Changed:
			status = "updated"
		}
		rows = append(rows, []string{"file", f.Path, "", "", status})
	}
	return rows
}

// bumpPlan is everything Bump computed before touching the disk.
type bumpPlan struct {
	report    BumpReport
	results   []rewrite.Result
	snapshots []topology.Topology
}

// Bump rewrites component and descriptor versions. With an explicit
// operation every declaration is bumped in place; otherwise each component
// is classified against its snapshot, set to its next version and its
// snapshot refreshed. Every rewrite is computed before anything is written.
func (o *Orchestrator) Bump(ctx context.Context, opts cli.BumpOptions) error {
	comps, err := o.components(ctx, opts.GlobalOptions)
	if err != nil {
		return err
	}

	plan, err := o.planBump(ctx, comps, opts)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := o.applyBump(plan); err != nil {
			return err
		}
	}

	return o.writeBump(opts, plan)
}

func (o *Orchestrator) planBump(ctx context.Context, comps []driver.Component, opts cli.BumpOptions) (bumpPlan, error) {
	plan := bumpPlan{report: BumpReport{Operation: autoOperation, DryRun: opts.DryRun}}
	if !opts.Auto() {
		plan.report.Operation = opts.Operation.String()
	}

	worst := semchange.Patch
	for _, c := range comps {
		if !c.Declared && len(opts.Descriptors) == 0 {
			return bumpPlan{}, errors.NewWithContext(errors.ErrCodeStructuralNotFound,
				fmt.Sprintf("component %s declares no version and no descriptor was given", c.Name()),
				map[string]any{"component": c.Name()})
		}

		entry := ComponentBump{Component: c.Name(), From: c.Topology.Version(), Skipped: !c.Declared}
		var results []rewrite.Result

		if opts.Auto() {
			snapshot, err := loadSnapshot(c)
			if err != nil {
				return bumpPlan{}, err
			}
			d, err := o.classify(c.Topology, snapshot)
			if err != nil {
				return bumpPlan{}, fmt.Errorf("classifying %s: %w", c.Name(), err)
			}
			worst = max(worst, d.Change)
			entry.Change = &d.Change
			entry.To = d.NextVersion.ShapedLike(c.Topology.Version())

			refreshed := c.Topology
			if c.Declared {
				if results, err = o.frontend.SetVersion(ctx, c, entry.To, true); err != nil {
					return bumpPlan{}, err
				}
				if refreshed, err = c.Topology.WithVersion(entry.To); err != nil {
					return bumpPlan{}, err
				}
			}
			plan.snapshots = append(plan.snapshots, refreshed)
		} else {
			entry.To = rewrite.BumpVersion(c.Topology.Version(), *opts.Operation)
			if c.Declared {
				var err error
				if results, err = o.frontend.BumpDeclarations(ctx, c, *opts.Operation, true); err != nil {
					return bumpPlan{}, err
				}
			}
		}

		if entry.Skipped {
			entry.To = entry.From
			o.log().Warn("component declares no version; only descriptors are bumped", "component", c.Name())
		}
		plan.report.Components = append(plan.report.Components, entry)
		plan.addResults(c.Name(), results)
	}

	op := operationFor(worst)
	if !opts.Auto() {
		op = *opts.Operation
	}
	for _, path := range opts.Descriptors {
		if err := ctx.Err(); err != nil {
			return bumpPlan{}, err
		}
		ropts := []rewrite.Option{rewrite.WithDryRun()}
		if opts.Strict {
			ropts = append(ropts, rewrite.WithStrict())
		}
		res, err := rewrite.BumpFile(path, op.String(), ropts...)
		if err != nil {
			return bumpPlan{}, err
		}
		if !res.Changed {
			o.log().Warn("descriptor left unchanged", "path", path, "operation", op.String())
		}
		plan.addResults("", []rewrite.Result{res})
	}

	return plan, nil
}

func (p *bumpPlan) addResults(component string, results []rewrite.Result) {
	for _, res := range results {
		p.results = append(p.results, res)
		p.report.Files = append(p.report.Files, FileChange{
			Component: component,
			Path:      res.Path,
			Changed:   res.Changed,
		})
	}
}

func (o *Orchestrator) applyBump(plan bumpPlan) error {
	for _, res := range plan.results {
		if !res.Changed {
			continue
		}
		if err := fsutil.WriteFileAtomic(res.Path, []byte(res.After), fsutil.DefaultPerm); err != nil {
			return errors.WrapWithContext(errors.ErrCodeIO, "writing version file", err,
				map[string]any{"path": res.Path})
		}
		o.log().Info("version file updated", "path", res.Path)
	}
	for _, t := range plan.snapshots {
		path, err := topology.Save(t)
		if err != nil {
			return err
		}
		o.log().Info("snapshot saved", "component", t.ComponentName(), "version", t.Version().String(), "path", path)
	}
	return nil
}

func (o *Orchestrator) writeBump(opts cli.BumpOptions, plan bumpPlan) error {
	dir := opts.SolutionDir()
	for i, res := range plan.results {
		plan.report.Files[i].Path = relPath(dir, res.Path)
	}

	if opts.DryRun {
		for i, res := range plan.results {
			diff, err := textdiff.Unified(plan.report.Files[i].Path, res.Before, res.After)
			if err != nil {
				return err
			}
			if opts.Format == serializer.FormatTable {
				if _, err := io.WriteString(o.out, diff); err != nil {
					return fmt.Errorf("writing diff: %w", err)
				}
				continue
			}
			plan.report.Files[i].Diff = diff
		}
	}

	return o.write(opts.Format, plan.report)
}

// operationFor maps a classification onto the text bump of the same
// segment, used for descriptors in auto mode.
func operationFor(c semchange.SemanticChange) version.Operation {
	switch c {
	case semchange.Major:
		return version.Major
	case semchange.Minor:
		return version.Minor
	default:
		return version.Patch
	}
}
