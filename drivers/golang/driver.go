// Package golang implements the semguard frontend for Go. A solution is a
// go.work workspace or a tree of modules; every module is a component whose
// public API is its exported identifiers and whose version is the first
// `Version` string declaration in its sources.
package golang

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/semguard/core/driver"
	"github.com/emenda-labs/semguard/core/rewrite"
	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/drivers/golang/exports"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/fsutil"
	"github.com/emenda-labs/semguard/pkg/gomod"
)

var _ driver.Frontend = (*Driver)(nil)

const (
	goModFile  = "go.mod"
	goWorkFile = "go.work"
)

// Driver implements driver.Frontend for Go modules.
type Driver struct {
	concurrency int
	logger      *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithConcurrency bounds how many modules are analysed at once.
func WithConcurrency(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithLogger sets the logger; the slog default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver analysing up to GOMAXPROCS modules at once.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// LoadSolution loads every module of the solution at path, which may be a
// go.work file, a go.mod file, a directory holding go.work, or a directory
// tree of modules. Components come back in discovery order.
func (d *Driver) LoadSolution(ctx context.Context, path string) ([]driver.Component, error) {
	goMods, err := discoverModules(path)
	if err != nil {
		return nil, err
	}
	d.log().Debug("discovered modules", "solution", path, "count", len(goMods))

	comps := make([]driver.Component, len(goMods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, goMod := range goMods {
		g.Go(func() error {
			c, err := d.loadComponent(gctx, goMod)
			if err != nil {
				return err
			}
			comps[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(comps))
	for _, c := range comps {
		if prev, dup := seen[c.Name()]; dup {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidArgument, "module declared twice in solution",
				map[string]any{"module": c.Name(), "first": prev, "second": c.Topology.ComponentPath()})
		}
		seen[c.Name()] = c.Topology.ComponentPath()
	}
	return comps, nil
}

func (d *Driver) loadComponent(ctx context.Context, goModPath string) (driver.Component, error) {
	m, err := gomod.ReadModule(goModPath)
	if err != nil {
		return driver.Component{}, errors.WrapWithContext(errors.ErrCodeParseFailure, "reading module", err,
			map[string]any{"path": goModPath})
	}
	if err := module.CheckImportPath(m.Path); err != nil {
		return driver.Component{}, errors.WrapWithContext(errors.ErrCodeInvalidArgument, "invalid module path", err,
			map[string]any{"path": goModPath})
	}

	ex, err := exports.Parse(ctx, m.Dir(), m.Path)
	if err != nil {
		return driver.Component{}, errors.WrapWithContext(errors.ErrCodeIO, "analysing module", err,
			map[string]any{"module": m.Path})
	}

	v, files := d.declaredVersion(m.Path, ex.Declarations)
	topo, err := topology.New(v, m.Path, goModPath, d.references(m), ex.API())
	if err != nil {
		return driver.Component{}, err
	}

	d.log().Debug("loaded module", "module", m.Path, "version", v.String(),
		"symbols", len(ex.Symbols), "versionFiles", len(files))

	return driver.Component{
		Topology:     topo,
		VersionFiles: files,
		Declared:     len(files) > 0,
	}, nil
}

// declaredVersion returns the first declaration that parses and the files
// holding parseable declarations. Without one the default version is used.
func (d *Driver) declaredVersion(modulePath string, decls []exports.Declaration) (version.Version, []string) {
	var (
		found version.Version
		files []string
		seen  = make(map[string]bool)
	)
	for _, decl := range decls {
		v, err := version.Parse(decl.Value)
		if err != nil {
			d.log().Warn("ignoring version declaration", "module", modulePath,
				"file", decl.File, "line", decl.Line, "value", decl.Value)
			continue
		}
		if found.IsZero() {
			found = v
		}
		if !seen[decl.File] {
			seen[decl.File] = true
			files = append(files, decl.File)
		}
	}
	if found.IsZero() {
		return version.Default(), nil
	}
	return found, files
}

// references maps require directives to topology references. Versions are
// reduced to their major.minor.patch core; prerelease, pseudo-version and
// build suffixes are dropped.
func (d *Driver) references(m gomod.Module) []topology.Reference {
	refs := make([]topology.Reference, 0, len(m.Requires))
	for _, req := range m.Requires {
		v, ok := referenceVersion(req.Version)
		if !ok {
			d.log().Warn("skipping require with invalid version", "module", m.Path,
				"require", req.Path, "version", req.Version)
			continue
		}
		if req.Replaced {
			d.log().Debug("require is replaced locally", "module", m.Path, "require", req.Path)
		}
		refs = append(refs, topology.Reference{Name: req.Path, Version: v})
	}
	return refs
}

func referenceVersion(v string) (version.Version, bool) {
	c := semver.Canonical(v)
	if c == "" {
		return version.Version{}, false
	}
	if pre := semver.Prerelease(c); pre != "" {
		c = strings.TrimSuffix(c, pre)
	}
	parsed, err := version.Parse(strings.TrimPrefix(c, "v"))
	if err != nil {
		return version.Version{}, false
	}
	return parsed, true
}

// SetVersion rewrites every version declaration of c to v, shaped like the
// declared version so a 3-segment declaration stays 3-segment when v has a
// zero revision.
func (d *Driver) SetVersion(ctx context.Context, c driver.Component, v version.Version, dryRun bool) ([]rewrite.Result, error) {
	if v.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "version is required")
	}
	target := v.ShapedLike(c.Topology.Version())

	return d.rewriteAll(ctx, c, dryRun, func(path string) (rewrite.Result, error) {
		return rewrite.SetFile(path, target, rewrite.WithDryRun())
	})
}

// BumpDeclarations applies op to every version declaration of c.
func (d *Driver) BumpDeclarations(ctx context.Context, c driver.Component, op version.Operation, dryRun bool) ([]rewrite.Result, error) {
	return d.rewriteAll(ctx, c, dryRun, func(path string) (rewrite.Result, error) {
		return rewrite.BumpFile(path, op.String(), rewrite.WithDryRun())
	})
}

// rewriteAll computes the rewrite of every version file before writing any,
// so a failure part way leaves all files untouched.
func (d *Driver) rewriteAll(ctx context.Context, c driver.Component, dryRun bool, compute func(string) (rewrite.Result, error)) ([]rewrite.Result, error) {
	if len(c.VersionFiles) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeStructuralNotFound,
			"no version declaration found", map[string]any{"component": c.Name()})
	}

	results := make([]rewrite.Result, 0, len(c.VersionFiles))
	for _, path := range c.VersionFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := compute(path)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if dryRun {
		return results, nil
	}
	for _, res := range results {
		if !res.Changed {
			continue
		}
		if err := fsutil.WriteFileAtomic(res.Path, []byte(res.After), fsutil.DefaultPerm); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeIO, "writing version file", err,
				map[string]any{"path": res.Path})
		}
		d.log().Info("version file updated", "component", c.Name(), "path", res.Path)
	}
	return results, nil
}

// discoverModules resolves a solution path to the go.mod files it names.
func discoverModules(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "opening solution", err, map[string]any{"path": path})
	}

	if !info.IsDir() {
		switch filepath.Base(path) {
		case goWorkFile:
			return workspaceModules(path)
		case goModFile:
			return []string{path}, nil
		default:
			return nil, errors.NewWithContext(errors.ErrCodeInvalidArgument,
				"solution must be a directory, go.work or go.mod", map[string]any{"path": path})
		}
	}

	if work := filepath.Join(path, goWorkFile); fileExists(work) {
		return workspaceModules(work)
	}

	var goMods []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			base := d.Name()
			if p != path && (base == "vendor" || base == "testdata" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == goModFile && d.Type().IsRegular() {
			goMods = append(goMods, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "searching solution", err, map[string]any{"path": path})
	}
	if len(goMods) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidArgument, "no Go modules found", map[string]any{"path": path})
	}
	return goMods, nil
}

func workspaceModules(goWork string) ([]string, error) {
	dirs, err := gomod.ReadWorkspace(goWork)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeParseFailure, "reading workspace", err,
			map[string]any{"path": goWork})
	}
	if len(dirs) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidArgument, "workspace uses no modules",
			map[string]any{"path": goWork})
	}

	goMods := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		goMod := filepath.Join(dir, goModFile)
		if !fileExists(goMod) {
			return nil, errors.NewWithContext(errors.ErrCodeIO, fmt.Sprintf("workspace module %s has no go.mod", dir),
				map[string]any{"path": goWork})
		}
		goMods = append(goMods, goMod)
	}
	return goMods, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
