package gomod

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Require is a single require directive of a go.mod file.
type Require struct {
	Path    string
	Version string
	// Replaced is set when a replace directive targets Path.
	Replaced bool
}

// Module is the part of a go.mod file semguard cares about.
type Module struct {
	Path      string
	GoModPath string
	Requires  []Require
}

// Dir returns the directory holding the go.mod file.
func (m Module) Dir() string {
	return filepath.Dir(m.GoModPath)
}

// ReadModule parses the go.mod file at goModPath.
func ReadModule(goModPath string) (Module, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Module{}, fmt.Errorf("no go.mod found at %s", goModPath)
		}
		return Module{}, fmt.Errorf("failed to read go.mod: %w", err)
	}

	f, err := modfile.Parse(goModPath, data, nil)
	if err != nil {
		return Module{}, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return Module{}, fmt.Errorf("no module directive in %s", goModPath)
	}

	replaced := make(map[string]bool, len(f.Replace))
	for _, rep := range f.Replace {
		replaced[rep.Old.Path] = true
	}

	reqs := make([]Require, 0, len(f.Require))
	for _, req := range f.Require {
		reqs = append(reqs, Require{
			Path:     req.Mod.Path,
			Version:  req.Mod.Version,
			Replaced: replaced[req.Mod.Path],
		})
	}

	return Module{
		Path:      f.Module.Mod.Path,
		GoModPath: goModPath,
		Requires:  reqs,
	}, nil
}

// ReadWorkspace parses the go.work file at goWorkPath and returns the
// directories of its use directives, resolved against the file's directory.
func ReadWorkspace(goWorkPath string) ([]string, error) {
	data, err := os.ReadFile(goWorkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no go.work found at %s", goWorkPath)
		}
		return nil, fmt.Errorf("failed to read go.work: %w", err)
	}

	f, err := modfile.ParseWork(goWorkPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.work: %w", err)
	}

	base := filepath.Dir(goWorkPath)
	dirs := make([]string, 0, len(f.Use))
	for _, use := range f.Use {
		dir := filepath.FromSlash(use.Path)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}
	return dirs, nil
}
